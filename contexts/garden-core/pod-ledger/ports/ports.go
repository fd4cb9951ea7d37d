package ports

import (
	"context"
	"time"

	"arboretum/contexts/garden-core/pod-ledger/domain/entities"
	contractsv1 "arboretum/contracts/gen/events/v1"
)

type PodRepository interface {
	NextPodID(ctx context.Context) (uint64, error)
	CreatePod(ctx context.Context, pod entities.Pod) error
	GetPod(ctx context.Context, podID uint64) (entities.Pod, error)
	SavePod(ctx context.Context, pod entities.Pod) error
	ListPodsByGardener(ctx context.Context, gardenerID string) ([]entities.Pod, error)
}

// ValueLedger is the external native-value transfer primitive. Credit and
// Debit are atomic; any failure is surfaced to callers as a transfer
// failure with full rollback of the triggering operation.
type ValueLedger interface {
	Credit(ctx context.Context, account string, amount uint64) error
	Debit(ctx context.Context, account string, amount uint64) error
}

// BlockClock is the monotonically non-decreasing logical clock, advanced
// by the host between calls, never by this service.
type BlockClock interface {
	Height(ctx context.Context) (uint64, error)
}

// GrowthParams exposes the process-wide growth multiplier. The value is
// owned by the reward distributor's parameter store.
type GrowthParams interface {
	GrowthMultiplier(ctx context.Context) (uint64, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
