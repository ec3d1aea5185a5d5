package postgres

import (
	"context"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BrandSourceRepository persists BrandSource rows.
type BrandSourceRepository struct {
	db *gorm.DB
}

// NewBrandSourceRepository creates a brand source repository backed by db.
func NewBrandSourceRepository(db *Database) *BrandSourceRepository {
	return &BrandSourceRepository{db: db.DB}
}

var _ repository.BrandSourceRepository = (*BrandSourceRepository)(nil)

func (r *BrandSourceRepository) Create(ctx context.Context, source *entity.BrandSource) error {
	if source.ID == uuid.Nil {
		source.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(source).Error
}

func (r *BrandSourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.BrandSource, error) {
	var source entity.BrandSource
	if err := r.db.WithContext(ctx).First(&source, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &source, nil
}

// Deactivate marks a source inactive. Past ads it produced are untouched —
// deactivation removes it from future target lists only.
func (r *BrandSourceRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.BrandSource{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *BrandSourceRepository) ListByBrand(ctx context.Context, brandID uuid.UUID) ([]entity.BrandSource, error) {
	var sources []entity.BrandSource
	err := r.db.WithContext(ctx).Where("brand_id = ?", brandID).Find(&sources).Error
	return sources, err
}
