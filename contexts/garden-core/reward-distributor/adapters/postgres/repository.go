package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"arboretum/contexts/garden-core/reward-distributor/domain/entities"
	"arboretum/contexts/garden-core/reward-distributor/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	rewardPoolCounterName     = "reward_pool"
	entropyCounterName        = "entropy_counter"
	gardenParametersSingleton = 1
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

// AutoMigrate creates the reward-distributor tables. Called from the
// composition root before the repository is used.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&rewardCounterModel{},
		&shakeCooldownModel{},
		&gardenParametersModel{},
		&outboxModel{},
	)
}

// SeedParameters inserts the parameter row once; an existing row wins so
// restarts never reset an authority tweak.
func (r *Repository) SeedParameters(ctx context.Context, params entities.Parameters) error {
	row := gardenParametersModel{
		ID:                     gardenParametersSingleton,
		GrowthMultiplier:       params.GrowthMultiplier,
		MinimumBlocksForReward: params.MinimumBlocksForReward,
		MaxRewardBasisPoints:   params.MaxRewardBasisPoints,
		UpdatedAt:              time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("reward_repo_seed_parameters_failed", create.Error)
	}
	return nil
}

func (r *Repository) PoolBalance(ctx context.Context) (uint64, error) {
	return r.counterValue(ctx, rewardPoolCounterName)
}

func (r *Repository) SetPoolBalance(ctx context.Context, balance uint64) error {
	return r.setCounterValue(ctx, rewardPoolCounterName, balance)
}

func (r *Repository) EntropyCounter(ctx context.Context) (uint64, error) {
	return r.counterValue(ctx, entropyCounterName)
}

func (r *Repository) SetEntropyCounter(ctx context.Context, value uint64) error {
	return r.setCounterValue(ctx, entropyCounterName, value)
}

func (r *Repository) counterValue(ctx context.Context, name string) (uint64, error) {
	var row rewardCounterModel
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, r.logError("reward_repo_counter_read_failed", err, "counter", name)
	}
	return row.Value, nil
}

func (r *Repository) setCounterValue(ctx context.Context, name string, value uint64) error {
	row := rewardCounterModel{Name: name, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
	if err != nil {
		return r.logError("reward_repo_counter_write_failed", err, "counter", name)
	}
	return nil
}

func (r *Repository) LastShakeHeight(ctx context.Context, gardenerID string) (uint64, error) {
	var row shakeCooldownModel
	err := r.db.WithContext(ctx).
		Where("gardener_id = ?", gardenerID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, r.logError("reward_repo_last_shake_read_failed", err, "gardener_id", gardenerID)
	}
	return row.LastShakeHeight, nil
}

func (r *Repository) SetLastShakeHeight(ctx context.Context, gardenerID string, height uint64) error {
	row := shakeCooldownModel{
		GardenerID:      gardenerID,
		LastShakeHeight: height,
		UpdatedAt:       time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gardener_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_shake_height", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return r.logError("reward_repo_last_shake_write_failed", err, "gardener_id", gardenerID)
	}
	return nil
}

func (r *Repository) Parameters(ctx context.Context) (entities.Parameters, error) {
	var row gardenParametersModel
	err := r.db.WithContext(ctx).
		Where("id = ?", gardenParametersSingleton).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Parameters{}, errors.New("garden parameters not seeded")
		}
		return entities.Parameters{}, r.logError("reward_repo_parameters_read_failed", err)
	}
	return entities.Parameters{
		GrowthMultiplier:       row.GrowthMultiplier,
		MinimumBlocksForReward: row.MinimumBlocksForReward,
		MaxRewardBasisPoints:   row.MaxRewardBasisPoints,
	}, nil
}

func (r *Repository) SaveParameters(ctx context.Context, params entities.Parameters) error {
	result := r.db.WithContext(ctx).
		Model(&gardenParametersModel{}).
		Where("id = ?", gardenParametersSingleton).
		Updates(map[string]any{
			"growth_multiplier":         params.GrowthMultiplier,
			"minimum_blocks_for_reward": params.MinimumBlocksForReward,
			"max_reward_basis_points":   params.MaxRewardBasisPoints,
			"updated_at":                time.Now().UTC(),
		})
	if result.Error != nil {
		return r.logError("reward_repo_parameters_write_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("garden parameters not seeded")
	}
	return nil
}

// GrowthMultiplier exposes the shared accrual parameter to consumers that
// only need that single value.
func (r *Repository) GrowthMultiplier(ctx context.Context) (uint64, error) {
	params, err := r.Parameters(ctx)
	if err != nil {
		return 0, err
	}
	return params.GrowthMultiplier, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("reward_repo_append_outbox_marshal_failed", err,
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
		return r.logError("reward_repo_append_outbox_insert_failed", create.Error,
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
		return r.logError("reward_repo_append_outbox_load_existing_failed", err,
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
		return nil, r.logError("reward_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("reward_repo_mark_outbox_published_failed", result.Error,
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
		"module", "garden-core/reward-distributor",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("reward repository operation failed", fields...)
	return err
}

type rewardCounterModel struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value uint64 `gorm:"column:value"`
}

func (rewardCounterModel) TableName() string {
	return "garden_reward_counters"
}

type shakeCooldownModel struct {
	GardenerID      string    `gorm:"column:gardener_id;primaryKey"`
	LastShakeHeight uint64    `gorm:"column:last_shake_height"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (shakeCooldownModel) TableName() string {
	return "shake_cooldowns"
}

type gardenParametersModel struct {
	ID                     int       `gorm:"column:id;primaryKey;autoIncrement:false"`
	GrowthMultiplier       uint64    `gorm:"column:growth_multiplier"`
	MinimumBlocksForReward uint64    `gorm:"column:minimum_blocks_for_reward"`
	MaxRewardBasisPoints   uint64    `gorm:"column:max_reward_basis_points"`
	UpdatedAt              time.Time `gorm:"column:updated_at"`
}

func (gardenParametersModel) TableName() string {
	return "garden_parameters"
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
	return "reward_distributor_outbox"
}

var _ ports.RewardStateRepository = (*Repository)(nil)
var _ ports.ParameterStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
