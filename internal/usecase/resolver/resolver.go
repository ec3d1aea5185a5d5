// Package resolver implements the Brand Resolver (spec.md §4.4): the
// deterministic target list the Collection Orchestrator iterates.
package resolver

import (
	"context"
	"sort"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/internal/domain/repository"
	"github.com/brandwatch/collector/internal/domain/service"
)

// Resolver resolves the ordered scrape target list for a batch run.
type Resolver struct {
	brands           repository.BrandRepository
	monitoredDomains repository.MonitoredDomainRepository
}

// NewResolver creates a Brand Resolver.
func NewResolver(brands repository.BrandRepository, monitoredDomains repository.MonitoredDomainRepository) *Resolver {
	return &Resolver{brands: brands, monitoredDomains: monitoredDomains}
}

// Resolve returns every active brand's active sources as a target list,
// ordered by (brand_name, platform) so two back-to-back dry runs produce
// identical output. If zero brand sources exist, it falls back to the
// legacy monitored-domains list (domain-only, Google-only).
func (r *Resolver) Resolve(ctx context.Context) ([]service.Target, error) {
	brands, err := r.brands.ListActiveWithSources(ctx)
	if err != nil {
		return nil, err
	}

	var targets []service.Target
	for _, brand := range brands {
		for _, source := range brand.Sources {
			if !source.IsActive {
				continue
			}
			targets = append(targets, service.Target{
				BrandID:     brand.ID,
				BrandName:   brand.Name,
				Platform:    source.Platform,
				SourceType:  source.SourceType,
				SourceValue: source.SourceValue,
			})
		}
	}

	if len(targets) > 0 {
		sortTargets(targets)
		return targets, nil
	}

	return r.resolveLegacy(ctx)
}

// resolveLegacy builds the fallback target list from monitored_domains when
// no brand has an active source yet.
func (r *Resolver) resolveLegacy(ctx context.Context) ([]service.Target, error) {
	domains, err := r.monitoredDomains.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	targets := make([]service.Target, 0, len(domains))
	for _, d := range domains {
		targets = append(targets, service.Target{
			BrandName:   d.Domain,
			Platform:    entity.PlatformGoogle,
			SourceType:  entity.SourceTypeDomain,
			SourceValue: d.Domain,
		})
	}

	sortTargets(targets)
	return targets, nil
}

func sortTargets(targets []service.Target) {
	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].BrandName != targets[j].BrandName {
			return targets[i].BrandName < targets[j].BrandName
		}
		return targets[i].Platform < targets[j].Platform
	})
}
