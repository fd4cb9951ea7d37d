package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"arboretum/contexts/garden-core/pod-ledger/domain/entities"
	domainerrors "arboretum/contexts/garden-core/pod-ledger/domain/errors"
	"arboretum/contexts/garden-core/pod-ledger/ports"
)

type Service struct {
	Pods   ports.PodRepository
	Ledger ports.ValueLedger
	Blocks ports.BlockClock
	Params ports.GrowthParams
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

type HarvestResult struct {
	Pod    entities.Pod
	Amount uint64
	Score  uint64
}

func (s Service) CreatePod(ctx context.Context, gardenerID string, amount uint64) (entities.Pod, error) {
	if amount == 0 {
		return entities.Pod{}, domainerrors.ErrInvalidAmount
	}

	now, err := s.Blocks.Height(ctx)
	if err != nil {
		return entities.Pod{}, err
	}
	podID, err := s.Pods.NextPodID(ctx)
	if err != nil {
		return entities.Pod{}, err
	}

	pod := entities.Pod{
		PodID:           podID,
		GardenerID:      gardenerID,
		SeedAmount:      amount,
		GrownScore:      0,
		LastUpdateBlock: now,
		CreationBlock:   now,
		Exists:          true,
	}

	// Pull the deposit before the pod becomes visible; a failed transfer
	// leaves no state behind.
	if err := s.Ledger.Debit(ctx, gardenerID, amount); err != nil {
		return entities.Pod{}, domainerrors.ErrTransferFailed
	}
	if err := s.Pods.CreatePod(ctx, pod); err != nil {
		s.refund(ctx, gardenerID, amount, "pod_create_persist_failed")
		return entities.Pod{}, err
	}
	s.emitPodEvent(ctx, "pod.created", pod, map[string]any{
		"gardener_id":    pod.GardenerID,
		"pod_id":         pod.PodID,
		"seed_amount":    pod.SeedAmount,
		"creation_block": pod.CreationBlock,
	})

	ResolveLogger(s.Logger).Info("growth pod created",
		"event", "pod_created",
		"module", "garden-core/pod-ledger",
		"layer", "application",
		"gardener_id", pod.GardenerID,
		"pod_id", pod.PodID,
		"seed_amount", pod.SeedAmount,
	)
	return pod, nil
}

func (s Service) WaterPod(ctx context.Context, gardenerID string, podID uint64, amount uint64) (entities.Pod, error) {
	if amount == 0 {
		return entities.Pod{}, domainerrors.ErrInvalidAmount
	}

	pod, err := s.ownedPod(ctx, gardenerID, podID)
	if err != nil {
		return entities.Pod{}, err
	}
	pod, err = s.accrue(ctx, pod)
	if err != nil {
		return entities.Pod{}, err
	}
	watered, err := pod.Water(amount)
	if err != nil {
		return entities.Pod{}, err
	}

	if err := s.Ledger.Debit(ctx, gardenerID, amount); err != nil {
		return entities.Pod{}, domainerrors.ErrTransferFailed
	}
	if err := s.Pods.SavePod(ctx, watered); err != nil {
		s.refund(ctx, gardenerID, amount, "pod_water_persist_failed")
		return entities.Pod{}, err
	}
	s.emitPodEvent(ctx, "pod.watered", watered, map[string]any{
		"gardener_id":  watered.GardenerID,
		"pod_id":       watered.PodID,
		"added_amount": amount,
		"seed_amount":  watered.SeedAmount,
		"block":        watered.LastUpdateBlock,
	})

	ResolveLogger(s.Logger).Info("growth pod watered",
		"event", "pod_watered",
		"module", "garden-core/pod-ledger",
		"layer", "application",
		"gardener_id", watered.GardenerID,
		"pod_id", watered.PodID,
		"added_amount", amount,
	)
	return watered, nil
}

func (s Service) HarvestPod(ctx context.Context, gardenerID string, podID uint64) (HarvestResult, error) {
	pod, err := s.ownedPod(ctx, gardenerID, podID)
	if err != nil {
		return HarvestResult{}, err
	}
	if !pod.Harvestable() {
		return HarvestResult{}, domainerrors.ErrAlreadyHarvested
	}
	pod, err = s.accrue(ctx, pod)
	if err != nil {
		return HarvestResult{}, err
	}

	harvested, amount, score := pod.Harvest()

	// The zeroed seed is persisted before the outbound transfer so a
	// reentrant call during the transfer observes SeedAmount == 0 and
	// cannot harvest twice.
	if err := s.Pods.SavePod(ctx, harvested); err != nil {
		return HarvestResult{}, err
	}
	if err := s.Ledger.Credit(ctx, gardenerID, amount); err != nil {
		if restoreErr := s.Pods.SavePod(ctx, pod); restoreErr != nil {
			ResolveLogger(s.Logger).Error("harvest rollback failed",
				"event", "pod_harvest_rollback_failed",
				"module", "garden-core/pod-ledger",
				"layer", "application",
				"pod_id", pod.PodID,
				"error", restoreErr.Error(),
			)
			return HarvestResult{}, restoreErr
		}
		return HarvestResult{}, domainerrors.ErrTransferFailed
	}
	s.emitPodEvent(ctx, "pod.harvested", harvested, map[string]any{
		"gardener_id":     harvested.GardenerID,
		"pod_id":          harvested.PodID,
		"returned_amount": amount,
		"grown_score":     score,
		"block":           harvested.LastUpdateBlock,
	})

	ResolveLogger(s.Logger).Info("growth pod harvested",
		"event", "pod_harvested",
		"module", "garden-core/pod-ledger",
		"layer", "application",
		"gardener_id", harvested.GardenerID,
		"pod_id", harvested.PodID,
		"returned_amount", amount,
		"grown_score", score,
	)
	return HarvestResult{Pod: harvested, Amount: amount, Score: score}, nil
}

func (s Service) GetPod(ctx context.Context, podID uint64) (entities.Pod, error) {
	return s.Pods.GetPod(ctx, podID)
}

func (s Service) ListPods(ctx context.Context, gardenerID string) ([]entities.Pod, error) {
	return s.Pods.ListPodsByGardener(ctx, gardenerID)
}

func (s Service) ownedPod(ctx context.Context, gardenerID string, podID uint64) (entities.Pod, error) {
	pod, err := s.Pods.GetPod(ctx, podID)
	if err != nil {
		return entities.Pod{}, err
	}
	if pod.GardenerID != gardenerID {
		return entities.Pod{}, domainerrors.ErrNotOwner
	}
	return pod, nil
}

func (s Service) accrue(ctx context.Context, pod entities.Pod) (entities.Pod, error) {
	now, err := s.Blocks.Height(ctx)
	if err != nil {
		return entities.Pod{}, err
	}
	multiplier, err := s.Params.GrowthMultiplier(ctx)
	if err != nil {
		return entities.Pod{}, err
	}
	return pod.Accrue(now, multiplier)
}

// refund is the compensating credit for a deposit whose state write failed.
func (s Service) refund(ctx context.Context, gardenerID string, amount uint64, event string) {
	if err := s.Ledger.Credit(ctx, gardenerID, amount); err != nil {
		ResolveLogger(s.Logger).Error("deposit refund failed",
			"event", event,
			"module", "garden-core/pod-ledger",
			"layer", "application",
			"gardener_id", gardenerID,
			"amount", amount,
			"error", err.Error(),
		)
	}
}

// emitPodEvent records the domain event once the operation has committed.
// The transfer cannot be un-committed by a failed append, so append
// failures are logged and the operation still reports success.
func (s Service) emitPodEvent(ctx context.Context, eventType string, pod entities.Pod, payload map[string]any) {
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
			SourceService:    "pod-ledger",
			TraceID:          eventID,
			SchemaVersion:    1,
			PartitionKeyPath: "pod_id",
			PartitionKey:     strconv.FormatUint(pod.PodID, 10),
			Data:             data,
		})
	}()
	if err != nil {
		ResolveLogger(s.Logger).Error("pod event append failed",
			"event", "pod_event_append_failed",
			"module", "garden-core/pod-ledger",
			"layer", "application",
			"event_type", eventType,
			"pod_id", pod.PodID,
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
