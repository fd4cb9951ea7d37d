package unit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	podledger "arboretum/contexts/garden-core/pod-ledger"
	poderrors "arboretum/contexts/garden-core/pod-ledger/domain/errors"
	podhttp "arboretum/contexts/garden-core/pod-ledger/transport/http"
	contractsv1 "arboretum/contracts/gen/events/v1"
)

func TestPodLifecycleThroughHandlers(t *testing.T) {
	module := podledger.NewInMemoryModule(nil)
	ctx := context.Background()
	_ = module.Store.Credit(ctx, "gardener_1", 1000)

	created, err := module.Handler.CreatePodHandler(ctx, "gardener_1", podhttp.CreatePodRequest{Amount: 100})
	if err != nil {
		t.Fatalf("create pod failed: %v", err)
	}
	if created.Data.PodID != 1 || created.Data.SeedAmount != 100 {
		t.Fatalf("unexpected created pod: %+v", created.Data)
	}

	module.Store.AdvanceBlocks(10)

	watered, err := module.Handler.WaterPodHandler(ctx, "gardener_1", 1, podhttp.WaterPodRequest{Amount: 50})
	if err != nil {
		t.Fatalf("water pod failed: %v", err)
	}
	if watered.Data.GrownScore != 1000 || watered.Data.SeedAmount != 150 {
		t.Fatalf("unexpected watered pod: %+v", watered.Data)
	}

	harvested, err := module.Handler.HarvestPodHandler(ctx, "gardener_1", 1)
	if err != nil {
		t.Fatalf("harvest failed: %v", err)
	}
	if harvested.Data.ReturnedAmount != 150 {
		t.Fatalf("expected returned amount 150, got %d", harvested.Data.ReturnedAmount)
	}
	if harvested.Data.GrownScore != 1000 {
		t.Fatalf("expected frozen score 1000, got %d", harvested.Data.GrownScore)
	}

	_, err = module.Handler.HarvestPodHandler(ctx, "gardener_1", 1)
	if !errors.Is(err, poderrors.ErrAlreadyHarvested) {
		t.Fatalf("expected already harvested, got %v", err)
	}
}

func TestPodEventsLandInOutbox(t *testing.T) {
	module := podledger.NewInMemoryModule(nil)
	ctx := context.Background()
	_ = module.Store.Credit(ctx, "gardener_1", 100)

	if _, err := module.Handler.CreatePodHandler(ctx, "gardener_1", podhttp.CreatePodRequest{Amount: 100}); err != nil {
		t.Fatalf("create pod failed: %v", err)
	}

	pending, err := module.Store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(pending))
	}

	var envelope contractsv1.Envelope
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope failed: %v", err)
	}
	if envelope.EventType != "pod.created" {
		t.Fatalf("expected pod.created, got %s", envelope.EventType)
	}
	if envelope.SourceService != "pod-ledger" {
		t.Fatalf("expected source pod-ledger, got %s", envelope.SourceService)
	}
	if envelope.PartitionKey != "1" {
		t.Fatalf("expected partition key 1, got %s", envelope.PartitionKey)
	}

	var payload map[string]any
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload["gardener_id"] != "gardener_1" {
		t.Fatalf("expected gardener_1 in payload, got %v", payload["gardener_id"])
	}
}
