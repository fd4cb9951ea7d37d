package application

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"arboretum/contexts/garden-core/reward-distributor/domain/entities"
	domainerrors "arboretum/contexts/garden-core/reward-distributor/domain/errors"
	domainservices "arboretum/contexts/garden-core/reward-distributor/domain/services"
	"arboretum/contexts/garden-core/reward-distributor/ports"
)

type Service struct {
	State  ports.RewardStateRepository
	Params ports.ParameterStore
	Ledger ports.ValueLedger
	Blocks ports.BlockClock
	Env    ports.EntropyEnvironment
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator

	// AuthorityID gates TweakParameters; LedgerIdentity is folded into
	// every pseudo-random draw. Both are fixed at construction.
	AuthorityID    string
	LedgerIdentity string

	Logger *slog.Logger
}

type ShakeResult struct {
	Reward            uint64
	PseudoRandomValue [32]byte
	Roll              uint64
	Entropy           uint64
	Block             uint64
}

func (s Service) FundRewardPool(ctx context.Context, funderID string, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, domainerrors.ErrInvalidAmount
	}

	pool, err := s.State.PoolBalance(ctx)
	if err != nil {
		return 0, err
	}
	funded, err := domainservices.AddChecked(pool, amount)
	if err != nil {
		return 0, err
	}

	if err := s.Ledger.Debit(ctx, funderID, amount); err != nil {
		return 0, domainerrors.ErrTransferFailed
	}
	if err := s.State.SetPoolBalance(ctx, funded); err != nil {
		s.refund(ctx, funderID, amount)
		return 0, err
	}
	s.emitEvent(ctx, "pool.funded", funderID, map[string]any{
		"funder_id":    funderID,
		"amount":       amount,
		"pool_balance": funded,
	})

	ResolveLogger(s.Logger).Info("reward pool funded",
		"event", "pool_funded",
		"module", "garden-core/reward-distributor",
		"layer", "application",
		"funder_id", funderID,
		"amount", amount,
		"pool_balance", funded,
	)
	return funded, nil
}

func (s Service) Shake(ctx context.Context, gardenerID string) (ShakeResult, error) {
	now, err := s.Blocks.Height(ctx)
	if err != nil {
		return ShakeResult{}, err
	}
	params, err := s.Params.Parameters(ctx)
	if err != nil {
		return ShakeResult{}, err
	}

	lastShake, err := s.State.LastShakeHeight(ctx, gardenerID)
	if err != nil {
		return ShakeResult{}, err
	}
	gate, err := domainservices.AddChecked(lastShake, params.MinimumBlocksForReward)
	if err != nil {
		return ShakeResult{}, err
	}
	if now <= gate {
		return ShakeResult{}, domainerrors.ErrTooSoon
	}

	pool, err := s.State.PoolBalance(ctx)
	if err != nil {
		return ShakeResult{}, err
	}
	if pool == 0 {
		return ShakeResult{}, domainerrors.ErrEmptyPool
	}

	entropy, err := s.State.EntropyCounter(ctx)
	if err != nil {
		return ShakeResult{}, err
	}
	mixed, err := domainservices.MixEntropy(entropy, gardenerID, now)
	if err != nil {
		return ShakeResult{}, err
	}

	prevDigest, err := s.Env.PrevStepDigest(ctx, now)
	if err != nil {
		return ShakeResult{}, err
	}
	stepSeed, err := s.Env.StepSeed(ctx, now)
	if err != nil {
		return ShakeResult{}, err
	}

	draw := domainservices.Draw(domainservices.DrawInput{
		GardenerID:     gardenerID,
		PrevStepDigest: prevDigest,
		TimestampNanos: s.now().UnixNano(),
		StepSeed:       stepSeed,
		LedgerIdentity: s.LedgerIdentity,
		Entropy:        mixed,
	})
	roll := domainservices.Roll(draw, params.MaxRewardBasisPoints)
	reward, err := domainservices.RewardForRoll(pool, roll)
	if err != nil {
		return ShakeResult{}, err
	}

	// Cooldown, entropy and pool are persisted before the outbound
	// transfer so a reentrant call during the transfer observes the
	// post-mutation state. The staged writes are undone if the transfer
	// is rejected.
	if err := s.State.SetLastShakeHeight(ctx, gardenerID, now); err != nil {
		return ShakeResult{}, err
	}
	if err := s.State.SetEntropyCounter(ctx, mixed); err != nil {
		s.rollbackShake(ctx, gardenerID, lastShake, entropy, pool, false)
		return ShakeResult{}, err
	}
	if reward > 0 {
		if err := s.State.SetPoolBalance(ctx, pool-reward); err != nil {
			s.rollbackShake(ctx, gardenerID, lastShake, entropy, pool, false)
			return ShakeResult{}, err
		}
		if err := s.Ledger.Credit(ctx, gardenerID, reward); err != nil {
			s.rollbackShake(ctx, gardenerID, lastShake, entropy, pool, true)
			return ShakeResult{}, domainerrors.ErrTransferFailed
		}
	}

	s.emitEvent(ctx, "garden.shaken", gardenerID, map[string]any{
		"gardener_id":         gardenerID,
		"pseudo_random_value": hex.EncodeToString(draw[:]),
		"roll":                roll,
		"reward":              reward,
		"entropy_counter":     mixed,
		"block":               now,
	})

	ResolveLogger(s.Logger).Info("garden shaken",
		"event", "garden_shaken",
		"module", "garden-core/reward-distributor",
		"layer", "application",
		"gardener_id", gardenerID,
		"roll", roll,
		"reward", reward,
		"block", now,
	)
	return ShakeResult{
		Reward:            reward,
		PseudoRandomValue: draw,
		Roll:              roll,
		Entropy:           mixed,
		Block:             now,
	}, nil
}

func (s Service) TweakParameters(ctx context.Context, callerID string, params entities.Parameters) error {
	if callerID != s.AuthorityID {
		return domainerrors.ErrNotAuthorized
	}

	if err := s.Params.SaveParameters(ctx, params); err != nil {
		return err
	}
	s.emitEvent(ctx, "parameters.tweaked", callerID, map[string]any{
		"growth_multiplier":         params.GrowthMultiplier,
		"minimum_blocks_for_reward": params.MinimumBlocksForReward,
		"max_reward_basis_points":   params.MaxRewardBasisPoints,
	})

	ResolveLogger(s.Logger).Info("garden parameters tweaked",
		"event", "parameters_tweaked",
		"module", "garden-core/reward-distributor",
		"layer", "application",
		"growth_multiplier", params.GrowthMultiplier,
		"minimum_blocks_for_reward", params.MinimumBlocksForReward,
		"max_reward_basis_points", params.MaxRewardBasisPoints,
	)
	return nil
}

func (s Service) PoolBalance(ctx context.Context) (uint64, error) {
	return s.State.PoolBalance(ctx)
}

func (s Service) CurrentParameters(ctx context.Context) (entities.Parameters, error) {
	return s.Params.Parameters(ctx)
}

// rollbackShake discards the staged cooldown, entropy and pool mutations
// of a shake whose transfer (or a later staged write) failed.
func (s Service) rollbackShake(
	ctx context.Context,
	gardenerID string,
	lastShake uint64,
	entropy uint64,
	pool uint64,
	poolDebited bool,
) {
	logger := ResolveLogger(s.Logger)
	if err := s.State.SetLastShakeHeight(ctx, gardenerID, lastShake); err != nil {
		logger.Error("shake cooldown rollback failed",
			"event", "shake_cooldown_rollback_failed",
			"module", "garden-core/reward-distributor",
			"layer", "application",
			"gardener_id", gardenerID,
			"error", err.Error(),
		)
	}
	if err := s.State.SetEntropyCounter(ctx, entropy); err != nil {
		logger.Error("shake entropy rollback failed",
			"event", "shake_entropy_rollback_failed",
			"module", "garden-core/reward-distributor",
			"layer", "application",
			"error", err.Error(),
		)
	}
	if poolDebited {
		if err := s.State.SetPoolBalance(ctx, pool); err != nil {
			logger.Error("shake pool rollback failed",
				"event", "shake_pool_rollback_failed",
				"module", "garden-core/reward-distributor",
				"layer", "application",
				"error", err.Error(),
			)
		}
	}
}

// refund is the compensating credit for a pool deposit whose state write
// failed.
func (s Service) refund(ctx context.Context, funderID string, amount uint64) {
	if err := s.Ledger.Credit(ctx, funderID, amount); err != nil {
		ResolveLogger(s.Logger).Error("pool deposit refund failed",
			"event", "pool_fund_refund_failed",
			"module", "garden-core/reward-distributor",
			"layer", "application",
			"funder_id", funderID,
			"amount", amount,
			"error", err.Error(),
		)
	}
}

// emitEvent records the domain event once the operation has committed.
// The transfer and state writes cannot be un-committed by a failed
// append, so append failures are logged and the operation still reports
// success.
func (s Service) emitEvent(ctx context.Context, eventType string, partitionKey string, payload map[string]any) {
	if s.Outbox == nil {
		return
	}
	err := func() error {
		eventID, err := s.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
			EventID:          eventID,
			EventType:        eventType,
			OccurredAt:       s.now(),
			SourceService:    "reward-distributor",
			TraceID:          eventID,
			SchemaVersion:    1,
			PartitionKeyPath: "gardener_id",
			PartitionKey:     partitionKey,
			Data:             data,
		})
	}()
	if err != nil {
		ResolveLogger(s.Logger).Error("reward event append failed",
			"event", "reward_event_append_failed",
			"module", "garden-core/reward-distributor",
			"layer", "application",
			"event_type", eventType,
			"partition_key", partitionKey,
			"error", err.Error(),
		)
	}
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
