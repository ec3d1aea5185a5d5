package postgres

import (
	"context"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/repository"
	"gorm.io/gorm"
)

// MonitoredDomainRepository reads the legacy domain-only fallback list
// (spec.md §4.4), consulted only when zero active BrandSource rows exist.
type MonitoredDomainRepository struct {
	db *gorm.DB
}

// NewMonitoredDomainRepository creates a monitored-domain repository backed by db.
func NewMonitoredDomainRepository(db *Database) *MonitoredDomainRepository {
	return &MonitoredDomainRepository{db: db.DB}
}

var _ repository.MonitoredDomainRepository = (*MonitoredDomainRepository)(nil)

func (r *MonitoredDomainRepository) ListActive(ctx context.Context) ([]entity.MonitoredDomain, error) {
	var domains []entity.MonitoredDomain
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("domain").Find(&domains).Error
	return domains, err
}
