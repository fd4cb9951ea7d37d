package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"arboretum/contexts/garden-core/pod-ledger/domain/entities"
	domainerrors "arboretum/contexts/garden-core/pod-ledger/domain/errors"
	"arboretum/contexts/garden-core/pod-ledger/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	podCounterName = "pod_counter"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates the pod-ledger tables. Called from the composition
// root before the repository is used.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&growthPodModel{},
		&gardenCounterModel{},
		&outboxModel{},
	)
}

func (r *Repository) NextPodID(ctx context.Context) (uint64, error) {
	var next uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row gardenCounterModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", podCounterName).
			First(&row).
			Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row = gardenCounterModel{Name: podCounterName, Value: 0}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		row.Value++
		next = row.Value
		return tx.Model(&gardenCounterModel{}).
			Where("name = ?", podCounterName).
			Update("value", row.Value).
			Error
	})
	if err != nil {
		return 0, r.logError("pod_repo_next_pod_id_failed", err)
	}
	return next, nil
}

func (r *Repository) CreatePod(ctx context.Context, pod entities.Pod) error {
	row := podModelFromEntity(pod)
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return r.logError("pod_repo_create_pod_id_collision", create.Error,
				"pod_id", pod.PodID,
			)
		}
		return r.logError("pod_repo_create_pod_failed", create.Error,
			"pod_id", pod.PodID,
			"gardener_id", pod.GardenerID,
		)
	}
	return nil
}

func (r *Repository) GetPod(ctx context.Context, podID uint64) (entities.Pod, error) {
	var row growthPodModel
	err := r.db.WithContext(ctx).
		Where("pod_id = ?", podID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Pod{}, domainerrors.ErrPodNotFound
		}
		return entities.Pod{}, r.logError("pod_repo_get_pod_failed", err, "pod_id", podID)
	}
	return row.toEntity(), nil
}

func (r *Repository) SavePod(ctx context.Context, pod entities.Pod) error {
	result := r.db.WithContext(ctx).
		Model(&growthPodModel{}).
		Where("pod_id = ?", pod.PodID).
		Updates(map[string]any{
			"seed_amount":       pod.SeedAmount,
			"grown_score":       pod.GrownScore,
			"last_update_block": pod.LastUpdateBlock,
			"pod_exists":        pod.Exists,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return r.logError("pod_repo_save_pod_failed", result.Error, "pod_id", pod.PodID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPodNotFound
	}
	return nil
}

func (r *Repository) ListPodsByGardener(ctx context.Context, gardenerID string) ([]entities.Pod, error) {
	var rows []growthPodModel
	if err := r.db.WithContext(ctx).
		Where("gardener_id = ?", gardenerID).
		Order("pod_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("pod_repo_list_pods_failed", err, "gardener_id", gardenerID)
	}
	items := make([]entities.Pod, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("pod_repo_append_outbox_marshal_failed", err,
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
		)
	}
	row := outboxModel{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("pod_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("pod_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return errors.New("outbox id already used with different payload")
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("pod_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("pod_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", outboxID,
		)
	}
	if result.RowsAffected == 0 {
		return errors.New("outbox row not found")
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "garden-core/pod-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("pod repository operation failed", fields...)
	return err
}

type growthPodModel struct {
	PodID           uint64    `gorm:"column:pod_id;primaryKey;autoIncrement:false"`
	GardenerID      string    `gorm:"column:gardener_id;index"`
	SeedAmount      uint64    `gorm:"column:seed_amount"`
	GrownScore      uint64    `gorm:"column:grown_score"`
	LastUpdateBlock uint64    `gorm:"column:last_update_block"`
	CreationBlock   uint64    `gorm:"column:creation_block"`
	Exists          bool      `gorm:"column:pod_exists"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (growthPodModel) TableName() string {
	return "growth_pods"
}

func podModelFromEntity(pod entities.Pod) growthPodModel {
	now := time.Now().UTC()
	return growthPodModel{
		PodID:           pod.PodID,
		GardenerID:      pod.GardenerID,
		SeedAmount:      pod.SeedAmount,
		GrownScore:      pod.GrownScore,
		LastUpdateBlock: pod.LastUpdateBlock,
		CreationBlock:   pod.CreationBlock,
		Exists:          pod.Exists,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (m growthPodModel) toEntity() entities.Pod {
	return entities.Pod{
		PodID:           m.PodID,
		GardenerID:      m.GardenerID,
		SeedAmount:      m.SeedAmount,
		GrownScore:      m.GrownScore,
		LastUpdateBlock: m.LastUpdateBlock,
		CreationBlock:   m.CreationBlock,
		Exists:          m.Exists,
	}
}

type gardenCounterModel struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value uint64 `gorm:"column:value"`
}

func (gardenCounterModel) TableName() string {
	return "pod_ledger_counters"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "pod_ledger_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.PodRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
