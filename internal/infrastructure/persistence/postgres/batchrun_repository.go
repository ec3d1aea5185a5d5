package postgres

import (
	"context"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchRunRepository persists the orchestrator's accountability record
// (spec.md §4.5).
type BatchRunRepository struct {
	db *gorm.DB
}

// NewBatchRunRepository creates a batch run repository backed by db.
func NewBatchRunRepository(db *Database) *BatchRunRepository {
	return &BatchRunRepository{db: db.DB}
}

var _ repository.BatchRunRepository = (*BatchRunRepository)(nil)

func (r *BatchRunRepository) Create(ctx context.Context, run *entity.BatchRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *BatchRunRepository) Update(ctx context.Context, run *entity.BatchRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *BatchRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.BatchRun, error) {
	var run entity.BatchRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListStaleRunning returns runs still "running" that started before the
// cutoff. The orchestrator never calls it; the collector's shutdown handler
// calls it with olderThan=0 to mark every in-flight run failed, and clearing
// older stale rows is otherwise a manual operational step.
func (r *BatchRunRepository) ListStaleRunning(ctx context.Context, olderThan time.Duration) ([]entity.BatchRun, error) {
	var runs []entity.BatchRun
	cutoff := time.Now().UTC().Add(-olderThan)
	err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", entity.BatchRunStatusRunning, cutoff).
		Find(&runs).Error
	return runs, err
}
