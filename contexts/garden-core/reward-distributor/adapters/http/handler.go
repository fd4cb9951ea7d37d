package httpadapter

import (
	"context"
	"encoding/hex"
	"log/slog"

	"arboretum/contexts/garden-core/reward-distributor/application"
	"arboretum/contexts/garden-core/reward-distributor/domain/entities"
	httptransport "arboretum/contexts/garden-core/reward-distributor/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// FundPoolHandler godoc
// @Summary Fund the shared reward pool
// @Description Deposits the given amount from the caller into the pool.
// @Tags reward-distributor
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Gardener id"
// @Param request body httptransport.FundPoolRequest true "Deposit amount"
// @Success 200 {object} httptransport.FundPoolResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 402 {object} httptransport.ErrorResponse
// @Router /v1/garden/rewards/fund [post]
func (h Handler) FundPoolHandler(
	ctx context.Context,
	funderID string,
	req httptransport.FundPoolRequest,
) (httptransport.FundPoolResponse, error) {
	balance, err := h.Service.FundRewardPool(ctx, funderID, req.Amount)
	if err != nil {
		return httptransport.FundPoolResponse{}, err
	}
	resp := httptransport.FundPoolResponse{Status: "success"}
	resp.Data.PoolBalance = balance
	return resp, nil
}

// ShakeHandler godoc
// @Summary Shake the garden
// @Description Draws a pseudo-random reward from the pool under the caller's cooldown. A zero reward still consumes the cooldown.
// @Tags reward-distributor
// @Produce json
// @Param X-User-Id header string true "Gardener id"
// @Success 200 {object} httptransport.ShakeResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 429 {object} httptransport.ErrorResponse
// @Router /v1/garden/rewards/shake [post]
func (h Handler) ShakeHandler(ctx context.Context, gardenerID string) (httptransport.ShakeResponse, error) {
	result, err := h.Service.Shake(ctx, gardenerID)
	if err != nil {
		return httptransport.ShakeResponse{}, err
	}
	resp := httptransport.ShakeResponse{Status: "success"}
	resp.Data.Reward = result.Reward
	resp.Data.PseudoRandomValue = hex.EncodeToString(result.PseudoRandomValue[:])
	resp.Data.Roll = result.Roll
	resp.Data.EntropyCounter = result.Entropy
	resp.Data.Block = result.Block
	return resp, nil
}

// GetPoolHandler godoc
// @Summary Get the reward pool balance
// @Tags reward-distributor
// @Produce json
// @Success 200 {object} httptransport.PoolResponse
// @Router /v1/garden/rewards/pool [get]
func (h Handler) GetPoolHandler(ctx context.Context) (httptransport.PoolResponse, error) {
	balance, err := h.Service.PoolBalance(ctx)
	if err != nil {
		return httptransport.PoolResponse{}, err
	}
	resp := httptransport.PoolResponse{Status: "success"}
	resp.Data.PoolBalance = balance
	return resp, nil
}

// TweakParametersHandler godoc
// @Summary Tweak garden parameters
// @Description Replaces the garden parameters. Restricted to the configured authority.
// @Tags reward-distributor
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller id"
// @Param request body httptransport.TweakParametersRequest true "New parameters"
// @Success 200 {object} httptransport.ParametersResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /v1/garden/parameters [put]
func (h Handler) TweakParametersHandler(
	ctx context.Context,
	callerID string,
	req httptransport.TweakParametersRequest,
) (httptransport.ParametersResponse, error) {
	params := entities.Parameters{
		GrowthMultiplier:       req.GrowthMultiplier,
		MinimumBlocksForReward: req.MinimumBlocksForReward,
		MaxRewardBasisPoints:   req.MaxRewardBasisPoints,
	}
	if err := h.Service.TweakParameters(ctx, callerID, params); err != nil {
		return httptransport.ParametersResponse{}, err
	}
	return httptransport.ParametersResponse{
		Status: "success",
		Data:   toParametersDTO(params),
	}, nil
}

// GetParametersHandler godoc
// @Summary Get garden parameters
// @Tags reward-distributor
// @Produce json
// @Success 200 {object} httptransport.ParametersResponse
// @Router /v1/garden/parameters [get]
func (h Handler) GetParametersHandler(ctx context.Context) (httptransport.ParametersResponse, error) {
	params, err := h.Service.CurrentParameters(ctx)
	if err != nil {
		return httptransport.ParametersResponse{}, err
	}
	return httptransport.ParametersResponse{
		Status: "success",
		Data:   toParametersDTO(params),
	}, nil
}

func toParametersDTO(params entities.Parameters) httptransport.ParametersDTO {
	return httptransport.ParametersDTO{
		GrowthMultiplier:       params.GrowthMultiplier,
		MinimumBlocksForReward: params.MinimumBlocksForReward,
		MaxRewardBasisPoints:   params.MaxRewardBasisPoints,
	}
}
