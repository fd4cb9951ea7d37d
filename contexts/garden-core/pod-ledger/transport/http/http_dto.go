package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePodRequest struct {
	Amount uint64 `json:"amount"`
}

type WaterPodRequest struct {
	Amount uint64 `json:"amount"`
}

type PodDTO struct {
	PodID           uint64 `json:"pod_id"`
	GardenerID      string `json:"gardener_id"`
	SeedAmount      uint64 `json:"seed_amount"`
	GrownScore      uint64 `json:"grown_score"`
	LastUpdateBlock uint64 `json:"last_update_block"`
	CreationBlock   uint64 `json:"creation_block"`
}

type PodResponse struct {
	Status string `json:"status"`
	Data   PodDTO `json:"data"`
}

type HarvestPodResponse struct {
	Status string `json:"status"`
	Data   struct {
		PodID           uint64 `json:"pod_id"`
		ReturnedAmount  uint64 `json:"returned_amount"`
		GrownScore      uint64 `json:"grown_score"`
		LastUpdateBlock uint64 `json:"last_update_block"`
	} `json:"data"`
}

type ListPodsResponse struct {
	Status string   `json:"status"`
	Data   []PodDTO `json:"data"`
}
