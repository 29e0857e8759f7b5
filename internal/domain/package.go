package domain

import "time"

// Schema versions stored alongside every package record.
// Anything below SchemaCurrent may still carry images under features or a markdown itinerary.
const (
	SchemaLegacyDocument = 0
	SchemaLegacyRow      = 1
	SchemaCurrent        = 2
)

// RawPackage is a package record exactly as the storage layer returns it.
// Its fields are the union of every historical shape (document store and relational rows),
// so most of them are untyped and may hold numbers, strings, arrays or nothing at all.
type RawPackage struct {
	ID            any            `json:"id"`
	Title         *string        `json:"title,omitempty"`
	Name          *string        `json:"name,omitempty"`
	Description   *string        `json:"description,omitempty"`
	Price         any            `json:"price,omitempty"`
	Image         *string        `json:"image,omitempty"`
	Images        any            `json:"images,omitempty"`
	Features      map[string]any `json:"features,omitempty"`
	Region        *string        `json:"region,omitempty"`
	RegionKo      *string        `json:"region_ko,omitempty"`
	Itinerary     any            `json:"itinerary,omitempty"`
	Highlights    any            `json:"highlights,omitempty"`
	Included      any            `json:"included,omitempty"`
	Excluded      any            `json:"excluded,omitempty"`
	Notes         any            `json:"notes,omitempty"`
	Slug          *string        `json:"slug,omitempty"`
	Duration      *string        `json:"duration,omitempty"`
	Published     *bool          `json:"published,omitempty"`
	SchemaVersion int            `json:"schema_version"`
}

// NormalizedPackage is the canonical read model shared by list, detail and admin edit views.
// It is rebuilt on every read and never persisted.
type NormalizedPackage struct {
	ID            string         `json:"id"`
	Slug          string         `json:"slug,omitempty"`
	Title         string         `json:"title"`
	Summary       string         `json:"summary,omitempty"`
	Description   string         `json:"description,omitempty"`
	PriceAmount   int64          `json:"priceAmount"`
	PriceUnknown  bool           `json:"priceUnknown"`
	PrimaryImage  *string        `json:"primaryImage"`
	GalleryImages []string       `json:"galleryImages"`
	Region        *string        `json:"region"`
	RegionLabel   *string        `json:"regionLabel"`
	ItineraryDays []ItineraryDay `json:"itineraryDays"`
	Highlights    []string       `json:"highlights"`
	Included      []string       `json:"included"`
	Excluded      []string       `json:"excluded"`
	Notes         []string       `json:"notes"`
	Duration      string         `json:"duration,omitempty"`
	Published     bool           `json:"published"`
	SchemaVersion int            `json:"schemaVersion"`

	DroppedImages int `json:"-"` // unrecognized image candidates
}

type ItineraryDay struct {
	Day         int      `json:"day"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

// PackageListItem is the subset the storefront listing renders.
type PackageListItem struct {
	ID           string  `json:"id"`
	Slug         string  `json:"slug,omitempty"`
	Title        string  `json:"title"`
	Summary      string  `json:"summary,omitempty"`
	PriceAmount  int64   `json:"priceAmount"`
	PriceUnknown bool    `json:"priceUnknown"`
	PrimaryImage *string `json:"primaryImage"`
	Region       *string `json:"region"`
	RegionLabel  *string `json:"regionLabel"`
}

// Package is the admin write model. New and edited packages are always stored in the current shape.
// A nil Price means the package is sold on request.
type Package struct {
	ID          string         `json:"id"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description"`
	Price       *int64         `json:"price" validate:"omitempty,gte=0"`
	Region      string         `json:"region" validate:"max=64"`
	RegionKo    string         `json:"region_ko" validate:"max=64"`
	Images      []string       `json:"images" validate:"dive,required"`
	Itinerary   []ItineraryDay `json:"itinerary" validate:"dive"`
	Highlights  []string       `json:"highlights"`
	Included    []string       `json:"included"`
	Excluded    []string       `json:"excluded"`
	Notes       []string       `json:"notes"`
	Duration    string         `json:"duration" validate:"max=64"`
	Published   bool           `json:"published"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Carried over from the stored row on edits, never taken from clients.
	PriceText string         `json:"-"` // "price on request" wording, kept while Price is nil
	Features  map[string]any `json:"-"` // non-image legacy features
}

type PackageFilter struct {
	Region        string
	Q             string
	PublishedOnly bool
	Limit         int
	Offset        int
}

type PackagesPage struct {
	Items      []PackageListItem `json:"items"`
	NextCursor *string           `json:"nextCursor"`
}
