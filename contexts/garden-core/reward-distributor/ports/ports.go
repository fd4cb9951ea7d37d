package ports

import (
	"context"
	"time"

	"arboretum/contexts/garden-core/reward-distributor/domain/entities"
	contractsv1 "arboretum/contracts/gen/events/v1"
)

// RewardStateRepository owns the shared pool balance, the per-gardener
// shake cooldowns and the global entropy counter.
type RewardStateRepository interface {
	PoolBalance(ctx context.Context) (uint64, error)
	SetPoolBalance(ctx context.Context, balance uint64) error
	LastShakeHeight(ctx context.Context, gardenerID string) (uint64, error)
	SetLastShakeHeight(ctx context.Context, gardenerID string, height uint64) error
	EntropyCounter(ctx context.Context) (uint64, error)
	SetEntropyCounter(ctx context.Context, value uint64) error
}

type ParameterStore interface {
	Parameters(ctx context.Context) (entities.Parameters, error)
	SaveParameters(ctx context.Context, params entities.Parameters) error
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

// EntropyEnvironment supplies the quasi-unpredictable per-step values the
// execution environment feeds into the pseudo-random mix.
type EntropyEnvironment interface {
	PrevStepDigest(ctx context.Context, height uint64) ([]byte, error)
	StepSeed(ctx context.Context, height uint64) ([]byte, error)
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
