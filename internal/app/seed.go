package app

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"travelshop/internal/domain"
)

//go:embed fixtures/seed.yaml
var defaultSeed []byte

// DefaultSeed is the demo catalogue shipped with the binary.
func DefaultSeed() []byte { return defaultSeed }

type seedFile struct {
	Admin    *seedAdmin    `yaml:"admin"`
	Packages []seedPackage `yaml:"packages"`
	Notices  []seedNotice  `yaml:"notices"`
}

type seedAdmin struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// seedPackage mirrors the stored columns so fixtures can hold any historical shape.
type seedPackage struct {
	ID            string         `yaml:"id"`
	LegacyID      *int64         `yaml:"legacy_id"`
	SchemaVersion int            `yaml:"schema_version"`
	Slug          string         `yaml:"slug"`
	Title         *string        `yaml:"title"`
	Name          *string        `yaml:"name"`
	Description   *string        `yaml:"description"`
	Price         any            `yaml:"price"`
	Image         *string        `yaml:"image"`
	Images        any            `yaml:"images"`
	Features      map[string]any `yaml:"features"`
	Region        *string        `yaml:"region"`
	RegionKo      *string        `yaml:"region_ko"`
	Itinerary     any            `yaml:"itinerary"`
	Highlights    any            `yaml:"highlights"`
	Included      any            `yaml:"included"`
	Excluded      any            `yaml:"excluded"`
	Notes         any            `yaml:"notes"`
	Duration      *string        `yaml:"duration"`
	Published     *bool          `yaml:"published"`
}

type seedNotice struct {
	Title     string `yaml:"title"`
	Body      string `yaml:"body"`
	Pinned    bool   `yaml:"pinned"`
	Published bool   `yaml:"published"`
}

type SeedReport struct {
	PackagesInserted int  `json:"packages_inserted"`
	PackagesSkipped  int  `json:"packages_skipped"`
	NoticesInserted  int  `json:"notices_inserted"`
	AdminCreated     bool `json:"admin_created"`
}

// Seeder loads fixtures. Packages are matched by slug and notices by title,
// so running it again only adds what is missing.
type Seeder struct {
	packages domain.PackageRepository
	notices  domain.NoticeRepository
	auth     *AuthService
}

func NewSeeder(p domain.PackageRepository, n domain.NoticeRepository, auth *AuthService) *Seeder {
	return &Seeder{packages: p, notices: n, auth: auth}
}

func (s *Seeder) Seed(ctx context.Context, data []byte) (SeedReport, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return SeedReport{}, fmt.Errorf("parse seed file: %w", err)
	}
	var rep SeedReport

	for i, p := range f.Packages {
		if p.Slug == "" {
			return rep, fmt.Errorf("seed package #%d: slug is required", i+1)
		}
		_, err := s.packages.GetPackageBySlug(ctx, p.Slug)
		if err == nil {
			rep.PackagesSkipped++
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return rep, err
		}
		if err := s.packages.InsertRawPackage(ctx, p.raw(), p.LegacyID); err != nil {
			return rep, fmt.Errorf("seed package %s: %w", p.Slug, err)
		}
		rep.PackagesInserted++
	}

	if len(f.Notices) > 0 {
		existing, err := s.notices.ListNotices(ctx, domain.NoticeFilter{})
		if err != nil {
			return rep, err
		}
		seen := make(map[string]bool, len(existing))
		for _, n := range existing {
			seen[n.Title] = true
		}
		for _, n := range f.Notices {
			if seen[n.Title] {
				continue
			}
			if _, err := s.notices.CreateNotice(ctx, domain.Notice{
				Title: n.Title, Body: n.Body, Pinned: n.Pinned, Published: n.Published,
			}); err != nil {
				return rep, fmt.Errorf("seed notice %q: %w", n.Title, err)
			}
			rep.NoticesInserted++
		}
	}

	if f.Admin != nil && s.auth != nil {
		created, err := s.auth.EnsureAdmin(ctx, SignupRequest{Email: f.Admin.Email, Name: f.Admin.Name, Password: f.Admin.Password})
		if err != nil {
			return rep, fmt.Errorf("seed admin: %w", err)
		}
		rep.AdminCreated = created
	}

	log.Info().
		Int("packages_inserted", rep.PackagesInserted).
		Int("packages_skipped", rep.PackagesSkipped).
		Int("notices_inserted", rep.NoticesInserted).
		Msg("seed completed")
	return rep, nil
}

func (p seedPackage) raw() domain.RawPackage {
	id := p.ID
	switch {
	case id != "":
	case p.LegacyID != nil:
		id = strconv.FormatInt(*p.LegacyID, 10)
	default:
		id = uuid.NewString()
	}
	slug := p.Slug
	return domain.RawPackage{
		ID:            id,
		Title:         p.Title,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Image:         p.Image,
		Images:        p.Images,
		Features:      p.Features,
		Region:        p.Region,
		RegionKo:      p.RegionKo,
		Itinerary:     p.Itinerary,
		Highlights:    p.Highlights,
		Included:      p.Included,
		Excluded:      p.Excluded,
		Notes:         p.Notes,
		Slug:          &slug,
		Duration:      p.Duration,
		Published:     p.Published,
		SchemaVersion: p.SchemaVersion,
	}
}
