package unit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	rewarddistributor "arboretum/contexts/garden-core/reward-distributor"
	rewarderrors "arboretum/contexts/garden-core/reward-distributor/domain/errors"
	rewardhttp "arboretum/contexts/garden-core/reward-distributor/transport/http"
	contractsv1 "arboretum/contracts/gen/events/v1"
)

func TestShakeFlowThroughHandlers(t *testing.T) {
	module := rewarddistributor.NewInMemoryModule("authority", "garden", nil)
	ctx := context.Background()
	_ = module.Store.Credit(ctx, "funder_1", 10000)

	funded, err := module.Handler.FundPoolHandler(ctx, "funder_1", rewardhttp.FundPoolRequest{Amount: 10000})
	if err != nil {
		t.Fatalf("fund pool failed: %v", err)
	}
	if funded.Data.PoolBalance != 10000 {
		t.Fatalf("expected pool 10000, got %d", funded.Data.PoolBalance)
	}

	_, err = module.Handler.ShakeHandler(ctx, "gardener_1")
	if !errors.Is(err, rewarderrors.ErrTooSoon) {
		t.Fatalf("expected too soon at height zero, got %v", err)
	}

	module.Store.AdvanceBlocks(11)

	shaken, err := module.Handler.ShakeHandler(ctx, "gardener_1")
	if err != nil {
		t.Fatalf("shake failed: %v", err)
	}
	if len(shaken.Data.PseudoRandomValue) != 64 {
		t.Fatalf("expected hex-encoded 32-byte draw, got %q", shaken.Data.PseudoRandomValue)
	}
	if shaken.Data.Roll > 1000 {
		t.Fatalf("roll %d outside the default band", shaken.Data.Roll)
	}

	pool, err := module.Handler.GetPoolHandler(ctx)
	if err != nil {
		t.Fatalf("get pool failed: %v", err)
	}
	if pool.Data.PoolBalance != 10000-shaken.Data.Reward {
		t.Fatalf("expected pool %d, got %d", 10000-shaken.Data.Reward, pool.Data.PoolBalance)
	}
}

func TestShakeEventsLandInOutbox(t *testing.T) {
	module := rewarddistributor.NewInMemoryModule("authority", "garden", nil)
	ctx := context.Background()
	_ = module.Store.Credit(ctx, "funder_1", 500)

	if _, err := module.Handler.FundPoolHandler(ctx, "funder_1", rewardhttp.FundPoolRequest{Amount: 500}); err != nil {
		t.Fatalf("fund pool failed: %v", err)
	}
	module.Store.AdvanceBlocks(11)
	if _, err := module.Handler.ShakeHandler(ctx, "gardener_1"); err != nil {
		t.Fatalf("shake failed: %v", err)
	}

	pending, err := module.Store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected fund and shake events, got %d", len(pending))
	}

	types := map[string]bool{}
	for _, message := range pending {
		var envelope contractsv1.Envelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			t.Fatalf("decode envelope failed: %v", err)
		}
		if envelope.SourceService != "reward-distributor" {
			t.Fatalf("expected source reward-distributor, got %s", envelope.SourceService)
		}
		types[envelope.EventType] = true
	}
	if !types["pool.funded"] || !types["garden.shaken"] {
		t.Fatalf("expected pool.funded and garden.shaken, got %v", types)
	}
}

func TestTweakParametersThroughHandlers(t *testing.T) {
	module := rewarddistributor.NewInMemoryModule("authority", "garden", nil)
	ctx := context.Background()

	_, err := module.Handler.TweakParametersHandler(ctx, "gardener_1", rewardhttp.TweakParametersRequest{
		GrowthMultiplier:       2,
		MinimumBlocksForReward: 3,
		MaxRewardBasisPoints:   500,
	})
	if !errors.Is(err, rewarderrors.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}

	tweaked, err := module.Handler.TweakParametersHandler(ctx, "authority", rewardhttp.TweakParametersRequest{
		GrowthMultiplier:       2,
		MinimumBlocksForReward: 3,
		MaxRewardBasisPoints:   500,
	})
	if err != nil {
		t.Fatalf("authority tweak failed: %v", err)
	}
	if tweaked.Data.MinimumBlocksForReward != 3 {
		t.Fatalf("unexpected parameters: %+v", tweaked.Data)
	}

	current, err := module.Handler.GetParametersHandler(ctx)
	if err != nil {
		t.Fatalf("get parameters failed: %v", err)
	}
	if current.Data != tweaked.Data {
		t.Fatalf("expected persisted parameters %+v, got %+v", tweaked.Data, current.Data)
	}
}
