package resolver

import (
	"context"
	"testing"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/google/uuid"
)

type fakeBrandRepo struct {
	brands []entity.Brand
	err    error
}

func (f *fakeBrandRepo) Create(ctx context.Context, brand *entity.Brand) error { return nil }
func (f *fakeBrandRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Brand, error) {
	return nil, nil
}
func (f *fakeBrandRepo) GetByName(ctx context.Context, name string) (*entity.Brand, error) {
	return nil, nil
}
func (f *fakeBrandRepo) Update(ctx context.Context, brand *entity.Brand) error { return nil }
func (f *fakeBrandRepo) ListActiveWithSources(ctx context.Context) ([]entity.Brand, error) {
	return f.brands, f.err
}

type fakeMonitoredDomainRepo struct {
	domains []entity.MonitoredDomain
	err     error
}

func (f *fakeMonitoredDomainRepo) ListActive(ctx context.Context) ([]entity.MonitoredDomain, error) {
	return f.domains, f.err
}

func TestResolve_UsesBrandSourcesWhenPresent(t *testing.T) {
	brands := []entity.Brand{
		{
			BaseEntity: entity.BaseEntity{ID: uuid.New()},
			Name:       "Zeta Co",
			IsActive:   true,
			Sources: []entity.BrandSource{
				{Platform: entity.PlatformGoogle, SourceType: entity.SourceTypeDomain, SourceValue: "zeta.example", IsActive: true},
			},
		},
		{
			BaseEntity: entity.BaseEntity{ID: uuid.New()},
			Name:       "Alpha Inc",
			IsActive:   true,
			Sources: []entity.BrandSource{
				{Platform: entity.PlatformMeta, SourceType: entity.SourceTypePageID, SourceValue: "999", IsActive: true},
				{Platform: entity.PlatformGoogle, SourceType: entity.SourceTypeDomain, SourceValue: "alpha.example", IsActive: false},
			},
		},
	}

	r := NewResolver(&fakeBrandRepo{brands: brands}, &fakeMonitoredDomainRepo{})

	targets, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// Alpha Inc's inactive Google source must be excluded, and the list must
	// be ordered by (brand_name, platform) for deterministic dry runs.
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want 2 (inactive source excluded)", len(targets))
	}
	if targets[0].BrandName != "Alpha Inc" || targets[1].BrandName != "Zeta Co" {
		t.Errorf("targets not sorted by brand name: %v, %v", targets[0].BrandName, targets[1].BrandName)
	}
}

func TestResolve_FallsBackToMonitoredDomains(t *testing.T) {
	domains := []entity.MonitoredDomain{
		{Domain: "legacy-b.example", IsActive: true},
		{Domain: "legacy-a.example", IsActive: true},
	}

	r := NewResolver(&fakeBrandRepo{}, &fakeMonitoredDomainRepo{domains: domains})

	targets, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want 2", len(targets))
	}
	for _, target := range targets {
		if target.Platform != entity.PlatformGoogle {
			t.Errorf("legacy fallback target platform = %q, want google-only", target.Platform)
		}
	}
	if targets[0].SourceValue != "legacy-a.example" {
		t.Errorf("legacy fallback not sorted: got %q first", targets[0].SourceValue)
	}
}
