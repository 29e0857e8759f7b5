package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"travelshop/internal/adapters/observability"
	"travelshop/internal/domain"
	"travelshop/internal/normalize"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// QueryService serves storefront reads. Every record is normalized on the way out,
// whatever shape it was stored in.
type QueryService struct {
	repo     domain.PackageRepository
	notices  domain.NoticeRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.PackageRepository, n domain.NoticeRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, notices: n, cache: c, cacheTTL: ttl}
}

// normalizeObserved is normalize.Normalize plus the degraded-field metrics.
func normalizeObserved(raw domain.RawPackage) domain.NormalizedPackage {
	n := normalize.Normalize(raw)
	if n.PriceUnknown {
		observability.ObserveNormalize("price_unknown", 1)
	}
	observability.ObserveNormalize("image_dropped", n.DroppedImages)
	return n
}

func (s *QueryService) GetPackage(ctx context.Context, id string) (domain.NormalizedPackage, error) {
	return s.getCached(ctx, packageKey(id), func() (domain.RawPackage, error) {
		return s.repo.GetPackage(ctx, id)
	})
}

func (s *QueryService) GetPackageBySlug(ctx context.Context, slug string) (domain.NormalizedPackage, error) {
	return s.getCached(ctx, packageSlugKey(slug), func() (domain.RawPackage, error) {
		return s.repo.GetPackageBySlug(ctx, slug)
	})
}

func (s *QueryService) getCached(ctx context.Context, key string, load func() (domain.RawPackage, error)) (domain.NormalizedPackage, error) {
	var n domain.NormalizedPackage
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &n); ok {
			return visible(n)
		}
	}
	raw, err := load()
	if err != nil {
		return domain.NormalizedPackage{}, err
	}
	n = normalizeObserved(raw)
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, n, int(s.cacheTTL.Seconds()))
	}
	return visible(n)
}

// Unpublished packages are cached like any other but never served publicly.
func visible(n domain.NormalizedPackage) (domain.NormalizedPackage, error) {
	if !n.Published {
		return domain.NormalizedPackage{}, fmt.Errorf("package %s: %w", n.ID, domain.ErrNotFound)
	}
	return n, nil
}

type PackageQuery struct {
	Region string
	Q      string
	Limit  int
	Cursor string
}

// ListPackages returns one page of published list items. The cursor is an opaque offset.
func (s *QueryService) ListPackages(ctx context.Context, q PackageQuery) (domain.PackagesPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	offset, err := DecodeCursor(q.Cursor)
	if err != nil {
		return domain.PackagesPage{}, err
	}
	f := domain.PackageFilter{Region: q.Region, Q: q.Q, PublishedOnly: true, Limit: limit, Offset: offset}

	key := packagesKey(listGeneration(ctx, s.cache), f)
	var out domain.PackagesPage
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	// one extra row tells us whether another page exists
	page := f
	page.Limit = limit + 1
	rows, err := s.repo.ListPackages(ctx, page)
	if err != nil {
		return domain.PackagesPage{}, err
	}
	out = domain.PackagesPage{Items: make([]domain.PackageListItem, 0, min(len(rows), limit))}
	for i, raw := range rows {
		if i == limit {
			next := EncodeCursor(offset + limit)
			out.NextCursor = &next
			break
		}
		out.Items = append(out.Items, normalize.ListItem(normalizeObserved(raw)))
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

func (s *QueryService) ListNotices(ctx context.Context, limit int) ([]domain.Notice, error) {
	if limit <= 0 || limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return s.notices.ListNotices(ctx, domain.NoticeFilter{PublishedOnly: true, Limit: limit})
}

func (s *QueryService) GetNotice(ctx context.Context, id int64) (domain.Notice, error) {
	n, err := s.notices.GetNotice(ctx, id)
	if err != nil {
		return domain.Notice{}, err
	}
	if !n.Published {
		return domain.Notice{}, fmt.Errorf("notice %d: %w", id, domain.ErrNotFound)
	}
	return n, nil
}

func EncodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func DecodeCursor(c string) (int, error) {
	if c == "" {
		return 0, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(c)
	if err != nil {
		return 0, fmt.Errorf("cursor: %w", domain.ErrInvalid)
	}
	n, err := strconv.Atoi(string(b))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("cursor: %w", domain.ErrInvalid)
	}
	return n, nil
}
