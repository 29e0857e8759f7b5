package normalize

import (
	"strings"

	"github.com/rs/zerolog/log"

	"travelshop/internal/domain"
)

type imageKind int

const (
	imageUnrecognized imageKind = iota
	imageDataURI
	imageURL
)

func classifyImage(s string) imageKind {
	switch {
	case strings.HasPrefix(s, "data:image/"):
		return imageDataURI
	case strings.HasPrefix(s, "http"):
		return imageURL
	}
	return imageUnrecognized
}

// featureImageKeys are the legacy features sub-fields, in precedence order.
var featureImageKeys = []string{"all_images", "additional_images", "images"}

// imageCandidates concatenates every source that has ever held package images.
func imageCandidates(raw domain.RawPackage) []string {
	out := stringsFrom(raw.Images, false)
	for _, k := range featureImageKeys {
		out = append(out, stringsFrom(lookupAny(raw.Features, k), false)...)
	}
	if s := deref(raw.Image); s != "" {
		out = append(out, s)
	}
	return out
}

// ResolveImages picks the primary image and the ordered, deduplicated gallery.
// Unrecognized strings are counted in dropped and never fail the read.
func ResolveImages(raw domain.RawPackage) (primary *string, gallery []string, dropped int) {
	return resolveImages(idString(raw.ID), raw)
}

func resolveImages(id string, raw domain.RawPackage) (*string, []string, int) {
	gallery := []string{}
	seen := make(map[string]struct{}, 8)
	dropped := 0
	for _, c := range imageCandidates(raw) {
		if classifyImage(c) == imageUnrecognized {
			dropped++
			log.Debug().
				Str("context", "normalize").
				Str("id", id).
				Str("candidate", clip(c, 64)).
				Msg("unrecognized image dropped")
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		gallery = append(gallery, c)
	}
	if len(gallery) == 0 {
		return nil, gallery, dropped
	}
	primary := gallery[0]
	return &primary, gallery, dropped
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
