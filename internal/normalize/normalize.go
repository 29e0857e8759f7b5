// Package normalize reconciles the historical shapes of stored package records
// into the single canonical view every read path renders.
//
// legacy records accumulated images in four fields (image, images, features.images,
// features.additional_images/all_images) and itineraries as markdown prose; all of
// that is resolved here and nowhere else. Functions in this package are pure and
// safe for concurrent use. They never panic on malformed input and never return errors:
// every bad field degrades to a documented default.
package normalize

import (
	"github.com/rs/zerolog/log"

	"travelshop/internal/domain"
)

const untitled = "Untitled"

// Normalize builds the canonical view of one raw record.
func Normalize(raw domain.RawPackage) domain.NormalizedPackage {
	id := idString(raw.ID)

	title, ok := firstNonEmpty(raw.Title, raw.Name)
	if !ok {
		title = untitled
	}

	price, known := PriceAmount(raw.Price)
	if !known {
		log.Debug().Str("context", "normalize").Str("id", id).Msg("price unknown")
	}

	primary, gallery, dropped := resolveImages(id, raw)
	region, label := reconcileRegion(raw.Region, raw.RegionKo)
	desc := deref(raw.Description)

	published := true
	if raw.Published != nil {
		published = *raw.Published
	}

	return domain.NormalizedPackage{
		ID:            id,
		Slug:          deref(raw.Slug),
		Title:         title,
		Summary:       summarize(desc),
		Description:   desc,
		PriceAmount:   price,
		PriceUnknown:  !known,
		PrimaryImage:  primary,
		GalleryImages: gallery,
		Region:        region,
		RegionLabel:   label,
		ItineraryDays: ParseItinerary(raw.Itinerary),
		Highlights:    stringsFrom(raw.Highlights, true),
		Included:      stringsFrom(raw.Included, true),
		Excluded:      stringsFrom(raw.Excluded, true),
		Notes:         stringsFrom(raw.Notes, true),
		Duration:      deref(raw.Duration),
		Published:     published,
		SchemaVersion: raw.SchemaVersion,
		DroppedImages: dropped,
	}
}

// reconcileRegion prefers the raw key for region and the localized label for regionLabel,
// each falling back to the other.
func reconcileRegion(key, localized *string) (region, label *string) {
	k, kl := deref(key), deref(localized)
	if k == "" && kl == "" {
		return nil, nil
	}
	if k == "" {
		k = kl
	}
	if kl == "" {
		kl = k
	}
	return &k, &kl
}

// ListItem projects the fields the storefront listing needs.
func ListItem(n domain.NormalizedPackage) domain.PackageListItem {
	return domain.PackageListItem{
		ID:           n.ID,
		Slug:         n.Slug,
		Title:        n.Title,
		Summary:      n.Summary,
		PriceAmount:  n.PriceAmount,
		PriceUnknown: n.PriceUnknown,
		PrimaryImage: n.PrimaryImage,
		Region:       n.Region,
		RegionLabel:  n.RegionLabel,
	}
}

// Project maps a normalized package back to a current-shape raw record:
// one images array, numeric price, structured itinerary.
// Normalize(Project(n)) reproduces n.
func Project(n domain.NormalizedPackage) domain.RawPackage {
	title := n.Title
	raw := domain.RawPackage{
		ID:            n.ID,
		Title:         &title,
		Description:   ptrStr(n.Description),
		Images:        append([]string{}, n.GalleryImages...),
		Region:        n.Region,
		RegionKo:      n.RegionLabel,
		Itinerary:     ParseItinerary(n.ItineraryDays),
		Highlights:    append([]string{}, n.Highlights...),
		Included:      append([]string{}, n.Included...),
		Excluded:      append([]string{}, n.Excluded...),
		Notes:         append([]string{}, n.Notes...),
		Slug:          ptrStr(n.Slug),
		Duration:      ptrStr(n.Duration),
		SchemaVersion: n.SchemaVersion,
	}
	if n.PrimaryImage != nil {
		img := *n.PrimaryImage
		raw.Image = &img
	}
	if !n.PriceUnknown {
		raw.Price = n.PriceAmount
	}
	published := n.Published
	raw.Published = &published
	return raw
}
