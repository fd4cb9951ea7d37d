package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"arboretum/contexts/garden-core/pod-ledger/domain/entities"
	domainerrors "arboretum/contexts/garden-core/pod-ledger/domain/errors"
	"arboretum/contexts/garden-core/pod-ledger/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing every pod-ledger port: pod
// repository, value ledger, manual block clock and growth params. Tests
// drive the logical clock with AdvanceBlocks.
type Store struct {
	mu sync.RWMutex

	pods             map[uint64]entities.Pod
	podCounter       uint64
	accounts         map[string]uint64
	height           uint64
	growthMultiplier uint64
	outbox           map[string]outboxRecord
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
		pods:             make(map[uint64]entities.Pod),
		accounts:         make(map[string]uint64),
		growthMultiplier: 1,
		outbox:           make(map[string]outboxRecord),
	}
}

func (s *Store) NextPodID(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.podCounter++
	return s.podCounter, nil
}

func (s *Store) CreatePod(_ context.Context, pod entities.Pod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pods[pod.PodID]; exists {
		return errors.New("pod id already allocated")
	}
	s.pods[pod.PodID] = pod
	return nil
}

func (s *Store) GetPod(_ context.Context, podID uint64) (entities.Pod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pod, ok := s.pods[podID]
	if !ok {
		return entities.Pod{}, domainerrors.ErrPodNotFound
	}
	return pod, nil
}

func (s *Store) SavePod(_ context.Context, pod entities.Pod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pods[pod.PodID]; !ok {
		return domainerrors.ErrPodNotFound
	}
	s.pods[pod.PodID] = pod
	return nil
}

func (s *Store) ListPodsByGardener(_ context.Context, gardenerID string) ([]entities.Pod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Pod, 0)
	for _, pod := range s.pods {
		if pod.GardenerID == gardenerID {
			items = append(items, pod)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].PodID < items[j].PodID
	})
	return items, nil
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

func (s *Store) GrowthMultiplier(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.growthMultiplier, nil
}

func (s *Store) SetGrowthMultiplier(value uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.growthMultiplier = value
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

var _ ports.PodRepository = (*Store)(nil)
var _ ports.ValueLedger = (*Store)(nil)
var _ ports.BlockClock = (*Store)(nil)
var _ ports.GrowthParams = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
