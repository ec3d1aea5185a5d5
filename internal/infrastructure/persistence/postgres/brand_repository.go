package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BrandRepository persists Brand rows and their active sources.
type BrandRepository struct {
	db *gorm.DB
}

// NewBrandRepository creates a brand repository backed by db.
func NewBrandRepository(db *Database) *BrandRepository {
	return &BrandRepository{db: db.DB}
}

var _ repository.BrandRepository = (*BrandRepository)(nil)

func (r *BrandRepository) Create(ctx context.Context, brand *entity.Brand) error {
	if brand.ID == uuid.Nil {
		brand.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(brand).Error
}

func (r *BrandRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Brand, error) {
	var brand entity.Brand
	if err := r.db.WithContext(ctx).First(&brand, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *BrandRepository) GetByName(ctx context.Context, name string) (*entity.Brand, error) {
	var brand entity.Brand
	err := r.db.WithContext(ctx).First(&brand, "brand_name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *BrandRepository) Update(ctx context.Context, brand *entity.Brand) error {
	return r.db.WithContext(ctx).Save(brand).Error
}

// ListActiveWithSources returns every active brand with its active sources
// preloaded, ordered by (brand_name, platform) for deterministic target
// listing (spec.md §4.4).
func (r *BrandRepository) ListActiveWithSources(ctx context.Context) ([]entity.Brand, error) {
	var brands []entity.Brand
	err := r.db.WithContext(ctx).
		Preload("Sources", "is_active = ?", true).
		Where("is_active = ?", true).
		Order("brand_name").
		Find(&brands).Error
	if err != nil {
		return nil, err
	}

	for i := range brands {
		sources := brands[i].Sources
		sort.Slice(sources, func(a, b int) bool { return sources[a].Platform < sources[b].Platform })
	}

	return brands, nil
}
