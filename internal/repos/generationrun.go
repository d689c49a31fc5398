package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

// GenerationRunRepo archives pipeline runs. The in-memory registry is
// the source of truth while a session is live; these rows survive
// restarts for audit and history queries.
type GenerationRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, runs []*types.GenerationRun) ([]*types.GenerationRun, error)
	GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*types.GenerationRun, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.GenerationRun, error)
}

type generationRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationRunRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRunRepo {
	repoLog := baseLog.With("repo", "GenerationRunRepo")
	return &generationRunRepo{db: db, log: repoLog}
}

func (r *generationRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.GenerationRun) ([]*types.GenerationRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(runs) == 0 {
		return []*types.GenerationRun{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *generationRunRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*types.GenerationRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if sessionID == "" {
		return nil, nil
	}

	var run types.GenerationRun
	err := transaction.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(1).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *generationRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.GenerationRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *generationRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	return transaction.WithContext(ctx).
		Model(&types.GenerationRun{}).
		Where("id = ? AND status = ?", id, "running").
		Updates(map[string]interface{}{
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}

func (r *generationRunRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.GenerationRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var runs []*types.GenerationRun
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
