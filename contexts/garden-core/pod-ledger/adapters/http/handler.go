package httpadapter

import (
	"context"
	"log/slog"

	"arboretum/contexts/garden-core/pod-ledger/application"
	"arboretum/contexts/garden-core/pod-ledger/domain/entities"
	httptransport "arboretum/contexts/garden-core/pod-ledger/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// CreatePodHandler godoc
// @Summary Create a growth pod
// @Description Deposits the given amount into a new pod owned by the caller.
// @Tags pod-ledger
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Gardener id"
// @Param request body httptransport.CreatePodRequest true "Initial seed amount"
// @Success 200 {object} httptransport.PodResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 402 {object} httptransport.ErrorResponse
// @Router /v1/garden/pods [post]
func (h Handler) CreatePodHandler(
	ctx context.Context,
	gardenerID string,
	req httptransport.CreatePodRequest,
) (httptransport.PodResponse, error) {
	pod, err := h.Service.CreatePod(ctx, gardenerID, req.Amount)
	if err != nil {
		return httptransport.PodResponse{}, err
	}
	return httptransport.PodResponse{
		Status: "success",
		Data:   toDTO(pod),
	}, nil
}

// WaterPodHandler godoc
// @Summary Water a growth pod
// @Description Adds seed to an existing pod after folding in accrued score.
// @Tags pod-ledger
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Gardener id"
// @Param pod_id path int true "Pod id"
// @Param request body httptransport.WaterPodRequest true "Added seed amount"
// @Success 200 {object} httptransport.PodResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/garden/pods/{pod_id}/water [post]
func (h Handler) WaterPodHandler(
	ctx context.Context,
	gardenerID string,
	podID uint64,
	req httptransport.WaterPodRequest,
) (httptransport.PodResponse, error) {
	pod, err := h.Service.WaterPod(ctx, gardenerID, podID, req.Amount)
	if err != nil {
		return httptransport.PodResponse{}, err
	}
	return httptransport.PodResponse{
		Status: "success",
		Data:   toDTO(pod),
	}, nil
}

// HarvestPodHandler godoc
// @Summary Harvest a growth pod
// @Description Withdraws the full seed balance once; the pod keeps existing with zero seed.
// @Tags pod-ledger
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Gardener id"
// @Param pod_id path int true "Pod id"
// @Success 200 {object} httptransport.HarvestPodResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/garden/pods/{pod_id}/harvest [post]
func (h Handler) HarvestPodHandler(
	ctx context.Context,
	gardenerID string,
	podID uint64,
) (httptransport.HarvestPodResponse, error) {
	result, err := h.Service.HarvestPod(ctx, gardenerID, podID)
	if err != nil {
		return httptransport.HarvestPodResponse{}, err
	}
	resp := httptransport.HarvestPodResponse{Status: "success"}
	resp.Data.PodID = result.Pod.PodID
	resp.Data.ReturnedAmount = result.Amount
	resp.Data.GrownScore = result.Score
	resp.Data.LastUpdateBlock = result.Pod.LastUpdateBlock
	return resp, nil
}

// GetPodHandler godoc
// @Summary Get pod details
// @Description Returns one pod by id.
// @Tags pod-ledger
// @Produce json
// @Param pod_id path int true "Pod id"
// @Success 200 {object} httptransport.PodResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/garden/pods/{pod_id} [get]
func (h Handler) GetPodHandler(ctx context.Context, podID uint64) (httptransport.PodResponse, error) {
	pod, err := h.Service.GetPod(ctx, podID)
	if err != nil {
		return httptransport.PodResponse{}, err
	}
	return httptransport.PodResponse{
		Status: "success",
		Data:   toDTO(pod),
	}, nil
}

// ListPodsHandler godoc
// @Summary List the caller's pods
// @Description Returns the caller's pods ordered by creation.
// @Tags pod-ledger
// @Produce json
// @Param X-User-Id header string true "Gardener id"
// @Success 200 {object} httptransport.ListPodsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /v1/garden/pods [get]
func (h Handler) ListPodsHandler(ctx context.Context, gardenerID string) (httptransport.ListPodsResponse, error) {
	pods, err := h.Service.ListPods(ctx, gardenerID)
	if err != nil {
		return httptransport.ListPodsResponse{}, err
	}
	resp := httptransport.ListPodsResponse{
		Status: "success",
		Data:   make([]httptransport.PodDTO, 0, len(pods)),
	}
	for _, pod := range pods {
		resp.Data = append(resp.Data, toDTO(pod))
	}
	return resp, nil
}

func toDTO(pod entities.Pod) httptransport.PodDTO {
	return httptransport.PodDTO{
		PodID:           pod.PodID,
		GardenerID:      pod.GardenerID,
		SeedAmount:      pod.SeedAmount,
		GrownScore:      pod.GrownScore,
		LastUpdateBlock: pod.LastUpdateBlock,
		CreationBlock:   pod.CreationBlock,
	}
}
