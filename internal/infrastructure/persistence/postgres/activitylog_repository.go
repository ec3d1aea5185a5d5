package postgres

import (
	"context"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLogRepository appends to the event log (spec.md §4.7). Rows are
// never updated or deleted by the collector.
type ActivityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository creates an activity log repository backed by db.
func NewActivityLogRepository(db *Database) *ActivityLogRepository {
	return &ActivityLogRepository{db: db.DB}
}

var _ repository.ActivityLogRepository = (*ActivityLogRepository)(nil)

func (r *ActivityLogRepository) Append(ctx context.Context, log *entity.ActivityLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(log).Error
}
