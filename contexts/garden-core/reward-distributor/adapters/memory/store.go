package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"arboretum/contexts/garden-core/reward-distributor/domain/entities"
	"arboretum/contexts/garden-core/reward-distributor/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing every reward-distributor port:
// reward state, parameter store, value ledger, manual block clock and a
// deterministic entropy environment. Tests drive the logical clock with
// AdvanceBlocks and recompute draws from the same environment inputs.
type Store struct {
	mu sync.RWMutex

	pool      uint64
	cooldowns map[string]uint64
	entropy   uint64
	params    entities.Parameters
	accounts  map[string]uint64
	height    uint64
	outbox    map[string]outboxRecord
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

func NewStore() *Store {
	return &Store{
		cooldowns: make(map[string]uint64),
		params: entities.Parameters{
			GrowthMultiplier:       1,
			MinimumBlocksForReward: 10,
			MaxRewardBasisPoints:   1000,
		},
		accounts: make(map[string]uint64),
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) PoolBalance(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pool, nil
}

func (s *Store) SetPoolBalance(_ context.Context, balance uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pool = balance
	return nil
}

func (s *Store) LastShakeHeight(_ context.Context, gardenerID string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cooldowns[gardenerID], nil
}

func (s *Store) SetLastShakeHeight(_ context.Context, gardenerID string, height uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cooldowns[gardenerID] = height
	return nil
}

func (s *Store) EntropyCounter(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.entropy, nil
}

func (s *Store) SetEntropyCounter(_ context.Context, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entropy = value
	return nil
}

func (s *Store) Parameters(_ context.Context) (entities.Parameters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.params, nil
}

func (s *Store) SaveParameters(_ context.Context, params entities.Parameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.params = params
	return nil
}

// GrowthMultiplier exposes the shared accrual parameter to consumers that
// only need that single value.
func (s *Store) GrowthMultiplier(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.params.GrowthMultiplier, nil
}

func (s *Store) Credit(_ context.Context, account string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[account] += amount
	return nil
}

func (s *Store) Debit(_ context.Context, account string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.accounts[account]
	if balance < amount {
		return errors.New("insufficient native balance")
	}
	s.accounts[account] = balance - amount
	return nil
}

// Balance reports an account's native balance for assertions in tests.
func (s *Store) Balance(account string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.accounts[account]
}

func (s *Store) Height(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.height, nil
}

// AdvanceBlocks moves the manual block clock forward; the clock never
// moves backwards.
func (s *Store) AdvanceBlocks(blocks uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.height += blocks
}

// PrevStepDigest derives a deterministic per-height digest so draws are
// reproducible in tests.
func (s *Store) PrevStepDigest(_ context.Context, height uint64) ([]byte, error) {
	return heightDigest("prev-step-digest", height), nil
}

// StepSeed derives a deterministic per-height seed so draws are
// reproducible in tests.
func (s *Store) StepSeed(_ context.Context, height uint64) ([]byte, error) {
	return heightDigest("step-seed", height), nil
}

func heightDigest(domain string, height uint64) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	h.Write(buf[:])
	return h.Sum(nil)
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := envelope.EventID
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Message.Payload, payload) {
			return errors.New("outbox id already used with different payload")
		}
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[outboxID]
	if !ok {
		return errors.New("outbox row not found")
	}
	ts := publishedAt.UTC()
	row.Status = outboxStatusPublished
	row.PublishedAt = &ts
	s.outbox[outboxID] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.RewardStateRepository = (*Store)(nil)
var _ ports.ParameterStore = (*Store)(nil)
var _ ports.ValueLedger = (*Store)(nil)
var _ ports.BlockClock = (*Store)(nil)
var _ ports.EntropyEnvironment = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
