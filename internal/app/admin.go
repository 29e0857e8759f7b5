package app

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"travelshop/internal/domain"
	"travelshop/internal/normalize"
)

// AdminService backs the admin console. Every package it writes is stored in the current shape.
type AdminService struct {
	packages     domain.PackageRepository
	notices      domain.NoticeRepository
	reservations domain.ReservationRepository
	cache        domain.Cache
	store        domain.ObjectStore
	bucket       string
}

func NewAdminService(p domain.PackageRepository, n domain.NoticeRepository, r domain.ReservationRepository,
	c domain.Cache, store domain.ObjectStore, bucket string) *AdminService {
	return &AdminService{packages: p, notices: n, reservations: r, cache: c, store: store, bucket: bucket}
}

// GetPackage returns the edit view of any package, published or not.
func (s *AdminService) GetPackage(ctx context.Context, id string) (domain.NormalizedPackage, error) {
	raw, err := s.packages.GetPackage(ctx, id)
	if err != nil {
		return domain.NormalizedPackage{}, err
	}
	return normalizeObserved(raw), nil
}

func (s *AdminService) ListPackages(ctx context.Context, f domain.PackageFilter) ([]domain.NormalizedPackage, error) {
	f.PublishedOnly = false
	if f.Limit <= 0 || f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	rows, err := s.packages.ListPackages(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]domain.NormalizedPackage, 0, len(rows))
	for _, raw := range rows {
		out = append(out, normalizeObserved(raw))
	}
	return out, nil
}

func preparePackage(p *domain.Package) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Slug == "" {
		p.Slug = p.Title
	}
	p.Slug = slug.Make(p.Slug)
	if err := checkStruct(p); err != nil {
		return err
	}
	if p.Slug == "" {
		return fmt.Errorf("%w: slug is empty", domain.ErrInvalid)
	}
	for i := range p.Itinerary {
		if p.Itinerary[i].Day <= 0 {
			p.Itinerary[i].Day = i + 1
		}
		if p.Itinerary[i].Images == nil {
			p.Itinerary[i].Images = []string{}
		}
	}
	return nil
}

func (s *AdminService) CreatePackage(ctx context.Context, p domain.Package) (domain.NormalizedPackage, error) {
	if err := preparePackage(&p); err != nil {
		return domain.NormalizedPackage{}, err
	}
	p.ID = uuid.NewString()
	if err := s.packages.CreatePackage(ctx, p); err != nil {
		return domain.NormalizedPackage{}, err
	}
	invalidatePackage(ctx, s.cache, p.ID, p.Slug)
	log.Info().Str("id", p.ID).Str("slug", p.Slug).Msg("package created")
	return s.GetPackage(ctx, p.ID)
}

func (s *AdminService) UpdatePackage(ctx context.Context, id string, p domain.Package) (domain.NormalizedPackage, error) {
	before, err := s.packages.GetPackage(ctx, id)
	if err != nil {
		return domain.NormalizedPackage{}, err
	}
	if err := preparePackage(&p); err != nil {
		return domain.NormalizedPackage{}, err
	}
	p.ID = id
	carryStored(&p, before)
	if err := s.packages.UpdatePackage(ctx, p); err != nil {
		return domain.NormalizedPackage{}, err
	}
	invalidatePackage(ctx, s.cache, id, p.Slug, deref(before.Slug))
	return s.GetPackage(ctx, id)
}

func (s *AdminService) DeletePackage(ctx context.Context, id string) error {
	before, err := s.packages.GetPackage(ctx, id)
	if err != nil {
		return err
	}
	if err := s.packages.DeletePackage(ctx, id); err != nil {
		return err
	}
	invalidatePackage(ctx, s.cache, id, deref(before.Slug))
	log.Info().Str("id", id).Msg("package deleted")
	return nil
}

// carryStored keeps what the edit form cannot express: the stored wording of an
// unknown price and any non-image legacy features.
func carryStored(p *domain.Package, before domain.RawPackage) {
	p.PriceText = ""
	if p.Price == nil {
		if text, ok := before.Price.(string); ok {
			if _, known := normalize.PriceAmount(text); !known {
				p.PriceText = text
			}
		}
	}
	p.Features = nonImageFeatures(before.Features)
}

// AddPackageImage uploads an image and appends its URL to the package gallery.
// The row is rewritten in the current shape the way the backfill does it, so
// price wording and non-image features survive.
func (s *AdminService) AddPackageImage(ctx context.Context, id, filename, contentType string, body io.Reader) (domain.NormalizedPackage, error) {
	if s.store == nil {
		return domain.NormalizedPackage{}, fmt.Errorf("%w: image storage is not configured", domain.ErrInvalid)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return domain.NormalizedPackage{}, fmt.Errorf("%w: content type %q is not an image", domain.ErrInvalid, contentType)
	}
	raw, err := s.packages.GetPackage(ctx, id)
	if err != nil {
		return domain.NormalizedPackage{}, err
	}

	key := fmt.Sprintf("packages/%s/%s%s", id, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	url, err := s.store.Upload(ctx, s.bucket, key, contentType, body)
	if err != nil {
		return domain.NormalizedPackage{}, fmt.Errorf("upload image: %w", err)
	}

	out, n := Rewrite(raw)
	out.ID = id
	out.Images = append(append([]string{}, n.GalleryImages...), url)
	if out.Image == nil {
		out.Image = &url
	}
	if err := s.packages.RewritePackage(ctx, out); err != nil {
		if derr := s.store.Delete(ctx, s.bucket, key); derr != nil {
			log.Warn().Err(derr).Str("key", key).Msg("orphaned package image")
		}
		return domain.NormalizedPackage{}, err
	}
	invalidatePackage(ctx, s.cache, id, n.Slug)
	log.Info().Str("id", id).Str("key", key).Msg("package image uploaded")
	return s.GetPackage(ctx, id)
}

// WriteModel turns an edit view back into the admin write model.
// Unknown prices stay nil.
func WriteModel(n domain.NormalizedPackage) domain.Package {
	days := make([]domain.ItineraryDay, len(n.ItineraryDays))
	copy(days, n.ItineraryDays)
	p := domain.Package{
		ID:          n.ID,
		Slug:        n.Slug,
		Title:       n.Title,
		Description: n.Description,
		Images:      append([]string{}, n.GalleryImages...),
		Itinerary:   days,
		Highlights:  append([]string{}, n.Highlights...),
		Included:    append([]string{}, n.Included...),
		Excluded:    append([]string{}, n.Excluded...),
		Notes:       append([]string{}, n.Notes...),
		Duration:    n.Duration,
		Published:   n.Published,
	}
	if !n.PriceUnknown {
		amount := n.PriceAmount
		p.Price = &amount
	}
	if n.Region != nil {
		p.Region = *n.Region
	}
	if n.RegionLabel != nil {
		p.RegionKo = *n.RegionLabel
	}
	if p.Slug == "" {
		p.Slug = slug.Make(p.Title)
	}
	return p
}

func (s *AdminService) ListNotices(ctx context.Context) ([]domain.Notice, error) {
	return s.notices.ListNotices(ctx, domain.NoticeFilter{Limit: MaxPageLimit})
}

func (s *AdminService) CreateNotice(ctx context.Context, n domain.Notice) (domain.Notice, error) {
	if err := checkStruct(n); err != nil {
		return domain.Notice{}, err
	}
	id, err := s.notices.CreateNotice(ctx, n)
	if err != nil {
		return domain.Notice{}, err
	}
	return s.notices.GetNotice(ctx, id)
}

func (s *AdminService) UpdateNotice(ctx context.Context, id int64, n domain.Notice) (domain.Notice, error) {
	if err := checkStruct(n); err != nil {
		return domain.Notice{}, err
	}
	n.ID = id
	if err := s.notices.UpdateNotice(ctx, n); err != nil {
		return domain.Notice{}, err
	}
	return s.notices.GetNotice(ctx, id)
}

func (s *AdminService) DeleteNotice(ctx context.Context, id int64) error {
	return s.notices.DeleteNotice(ctx, id)
}

func (s *AdminService) ListReservations(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	if f.Status != "" && !validStatus(f.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, f.Status)
	}
	return s.reservations.ListReservations(ctx, f)
}

// SetReservationStatus applies an admin transition; pending and confirmed may move forward, nothing moves back.
func (s *AdminService) SetReservationStatus(ctx context.Context, id string, next domain.ReservationStatus) (domain.Reservation, error) {
	r, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !r.Status.CanTransition(next) {
		return domain.Reservation{}, fmt.Errorf("%w: cannot move reservation from %s to %s", domain.ErrInvalid, r.Status, next)
	}
	if err := s.reservations.UpdateReservationStatus(ctx, id, r.Status, next); err != nil {
		return domain.Reservation{}, err
	}
	r.Status = next
	log.Info().Str("id", id).Str("status", string(next)).Msg("reservation status changed")
	return r, nil
}

func validStatus(s domain.ReservationStatus) bool {
	switch s {
	case domain.ReservationPending, domain.ReservationConfirmed, domain.ReservationCancelled:
		return true
	}
	return false
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

