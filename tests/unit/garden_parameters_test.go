package unit

import (
	"context"
	"testing"

	podledger "arboretum/contexts/garden-core/pod-ledger"
	podmemory "arboretum/contexts/garden-core/pod-ledger/adapters/memory"
	podhttp "arboretum/contexts/garden-core/pod-ledger/transport/http"
	rewarddistributor "arboretum/contexts/garden-core/reward-distributor"
	rewardmemory "arboretum/contexts/garden-core/reward-distributor/adapters/memory"
	rewardhttp "arboretum/contexts/garden-core/reward-distributor/transport/http"
)

// The growth multiplier is owned by the reward distributor but consumed by
// the pod ledger; this wires one parameter store into both modules the way
// the composition root does.
func TestTweakedMultiplierDrivesPodAccrual(t *testing.T) {
	ctx := context.Background()
	podStore := podmemory.NewStore()
	rewardStore := rewardmemory.NewStore()

	podModule := podledger.NewModule(podledger.Dependencies{
		Pods:        podStore,
		Ledger:      podStore,
		Blocks:      podStore,
		Params:      rewardStore,
		Outbox:      podStore,
		Clock:       podStore,
		IDGenerator: podStore,
	})
	rewardModule := rewarddistributor.NewModule(rewarddistributor.Dependencies{
		State:          rewardStore,
		Params:         rewardStore,
		Ledger:         rewardStore,
		Blocks:         rewardStore,
		Env:            rewardStore,
		Outbox:         rewardStore,
		Clock:          rewardStore,
		IDGenerator:    rewardStore,
		AuthorityID:    "authority",
		LedgerIdentity: "garden",
	})

	_ = podStore.Credit(ctx, "gardener_1", 100)
	created, err := podModule.Handler.CreatePodHandler(ctx, "gardener_1", podhttp.CreatePodRequest{Amount: 100})
	if err != nil {
		t.Fatalf("create pod failed: %v", err)
	}

	if _, err := rewardModule.Handler.TweakParametersHandler(ctx, "authority", rewardhttp.TweakParametersRequest{
		GrowthMultiplier:       5,
		MinimumBlocksForReward: 10,
		MaxRewardBasisPoints:   1000,
	}); err != nil {
		t.Fatalf("tweak failed: %v", err)
	}

	podStore.AdvanceBlocks(2)

	harvested, err := podModule.Handler.HarvestPodHandler(ctx, "gardener_1", created.Data.PodID)
	if err != nil {
		t.Fatalf("harvest failed: %v", err)
	}
	// 100 seed * 2 blocks * multiplier 5.
	if harvested.Data.GrownScore != 1000 {
		t.Fatalf("expected score 1000 under multiplier 5, got %d", harvested.Data.GrownScore)
	}
}
