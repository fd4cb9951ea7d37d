package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type FundPoolRequest struct {
	Amount uint64 `json:"amount"`
}

type FundPoolResponse struct {
	Status string `json:"status"`
	Data   struct {
		PoolBalance uint64 `json:"pool_balance"`
	} `json:"data"`
}

type ShakeResponse struct {
	Status string `json:"status"`
	Data   struct {
		Reward            uint64 `json:"reward"`
		PseudoRandomValue string `json:"pseudo_random_value"`
		Roll              uint64 `json:"roll"`
		EntropyCounter    uint64 `json:"entropy_counter"`
		Block             uint64 `json:"block"`
	} `json:"data"`
}

type PoolResponse struct {
	Status string `json:"status"`
	Data   struct {
		PoolBalance uint64 `json:"pool_balance"`
	} `json:"data"`
}

type ParametersDTO struct {
	GrowthMultiplier       uint64 `json:"growth_multiplier"`
	MinimumBlocksForReward uint64 `json:"minimum_blocks_for_reward"`
	MaxRewardBasisPoints   uint64 `json:"max_reward_basis_points"`
}

type TweakParametersRequest struct {
	GrowthMultiplier       uint64 `json:"growth_multiplier"`
	MinimumBlocksForReward uint64 `json:"minimum_blocks_for_reward"`
	MaxRewardBasisPoints   uint64 `json:"max_reward_basis_points"`
}

type ParametersResponse struct {
	Status string        `json:"status"`
	Data   ParametersDTO `json:"data"`
}
