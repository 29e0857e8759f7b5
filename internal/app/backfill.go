package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"travelshop/internal/adapters/observability"
	"travelshop/internal/domain"
	"travelshop/internal/normalize"
)

// imageFeatureKeys are the features entries that get folded into images on rewrite.
var imageFeatureKeys = []string{"all_images", "additional_images", "images"}

type BackfillOptions struct {
	Workers int
	Batch   int
	DryRun  bool
}

type BackfillReport struct {
	Scanned       int `json:"scanned"`
	Rewritten     int `json:"rewritten"`
	Failed        int `json:"failed"`
	PriceUnknown  int `json:"price_unknown"`
	DroppedImages int `json:"dropped_images"`
}

// BackfillService rewrites legacy package rows in the current shape.
// Rows are rewritten from their normalized form, so a rewritten row normalizes
// to the same result it did before.
type BackfillService struct {
	repo  domain.PackageRepository
	cache domain.Cache
}

func NewBackfillService(r domain.PackageRepository, c domain.Cache) *BackfillService {
	return &BackfillService{repo: r, cache: c}
}

// Rewrite returns the current-shape record for raw.
func Rewrite(raw domain.RawPackage) (domain.RawPackage, domain.NormalizedPackage) {
	n := normalize.Normalize(raw)
	out := normalize.Project(n)
	out.SchemaVersion = domain.SchemaCurrent
	if n.PriceUnknown {
		// "price on request" text survives instead of turning into a number
		out.Price = raw.Price
	}
	out.Features = nonImageFeatures(raw.Features)
	return out, n
}

// nonImageFeatures copies the features that are not image sources, or returns nil.
func nonImageFeatures(f map[string]any) map[string]any {
	if len(f) == 0 {
		return nil
	}
	rest := make(map[string]any, len(f))
	for k, v := range f {
		rest[k] = v
	}
	for _, k := range imageFeatureKeys {
		delete(rest, k)
	}
	if len(rest) == 0 {
		return nil
	}
	return rest
}

func (s *BackfillService) Run(ctx context.Context, opt BackfillOptions) (BackfillReport, error) {
	if opt.Workers <= 0 {
		opt.Workers = 4
	}
	if opt.Batch <= 0 {
		opt.Batch = 200
	}

	var rep BackfillReport
	for {
		limit := opt.Batch
		if opt.DryRun {
			limit = 0 // nothing changes between batches, so read everything once
		}
		rows, err := s.repo.ListLegacyPackages(ctx, limit)
		if err != nil {
			return rep, fmt.Errorf("list legacy packages: %w", err)
		}
		if len(rows) == 0 {
			break
		}
		batch, err := s.runBatch(ctx, rows, opt)
		rep.Scanned += batch.Scanned
		rep.Rewritten += batch.Rewritten
		rep.Failed += batch.Failed
		rep.PriceUnknown += batch.PriceUnknown
		rep.DroppedImages += batch.DroppedImages
		if err != nil {
			return rep, err
		}
		// failed rows stay legacy; stop instead of retrying them forever
		if opt.DryRun || batch.Rewritten == 0 || len(rows) < opt.Batch {
			break
		}
	}
	if rep.Rewritten > 0 {
		retireListPages(ctx, s.cache)
	}
	log.Info().
		Int("scanned", rep.Scanned).
		Int("rewritten", rep.Rewritten).
		Int("failed", rep.Failed).
		Bool("dry_run", opt.DryRun).
		Msg("backfill completed")
	return rep, nil
}

func (s *BackfillService) runBatch(ctx context.Context, rows []domain.RawPackage, opt BackfillOptions) (BackfillReport, error) {
	sem := semaphore.NewWeighted(int64(opt.Workers))
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		rep BackfillReport
	)
	for _, raw := range rows {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return rep, err
		}
		wg.Add(1)
		go func(raw domain.RawPackage) {
			defer wg.Done()
			defer sem.Release(1)

			out, n := Rewrite(raw)
			result := "rewritten"
			var err error
			if !opt.DryRun {
				err = s.repo.RewritePackage(ctx, out)
			}
			if err != nil {
				result = "failed"
				log.Warn().Str("id", n.ID).Err(err).Msg("backfill rewrite failed")
			} else if opt.DryRun {
				result = "skipped"
			} else if s.cache != nil {
				_ = s.cache.Del(ctx, packageKey(n.ID))
				if n.Slug != "" {
					_ = s.cache.Del(ctx, packageSlugKey(n.Slug))
				}
			}
			observability.ObserveBackfill(result)

			mu.Lock()
			defer mu.Unlock()
			rep.Scanned++
			switch result {
			case "rewritten":
				rep.Rewritten++
			case "failed":
				rep.Failed++
			}
			if n.PriceUnknown {
				rep.PriceUnknown++
			}
			rep.DroppedImages += n.DroppedImages
		}(raw)
	}
	wg.Wait()
	return rep, nil
}
