package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"travelshop/internal/domain"
)

var (
	// "Day 3", "## Day 3: Kyoto", "**Day 3** - Kyoto" at the start of a line.
	reDayHeading = regexp.MustCompile(`(?im)^[ \t]*(?:#{1,6}[ \t]*)?(?:\*\*)?[ \t]*day[ \t]*(\d+)\b(.*)$`)
	// Non-greedy and unbounded so long base64 data URIs still match.
	reMarkdownImage = regexp.MustCompile(`!\[([^\]]*)\]\((.+?)\)`)
)

const headingCutset = " \t:-.*|–—"

// ParseItinerary turns either structured day objects or a markdown blob into days.
// Every returned day has a non-nil Images slice.
func ParseItinerary(v any) []domain.ItineraryDay {
	switch t := v.(type) {
	case nil:
		return []domain.ItineraryDay{}
	case []domain.ItineraryDay:
		out := make([]domain.ItineraryDay, 0, len(t))
		for _, d := range t {
			d.Images = append([]string{}, d.Images...)
			out = append(out, d)
		}
		return out
	case []any:
		return structuredDays(t)
	case json.RawMessage:
		var arr []any
		if err := json.Unmarshal(t, &arr); err == nil {
			return structuredDays(arr)
		}
		return markdownDays(string(t))
	case string:
		if s := strings.TrimSpace(t); strings.HasPrefix(s, "[") {
			var arr []any
			if err := json.Unmarshal([]byte(s), &arr); err == nil {
				return structuredDays(arr)
			}
		}
		return markdownDays(t)
	}
	return []domain.ItineraryDay{}
}

func structuredDays(in []any) []domain.ItineraryDay {
	out := make([]domain.ItineraryDay, 0, len(in))
	for i, it := range in {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		day, ok := intFlexible(m["day"])
		if !ok {
			day = i + 1
		}
		title, _ := m["title"].(string)
		desc, _ := m["description"].(string)
		out = append(out, domain.ItineraryDay{
			Day:         day,
			Title:       title,
			Description: desc,
			Images:      stringsFrom(m["images"], false),
		})
	}
	return out
}

func markdownDays(s string) []domain.ItineraryDay {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if strings.TrimSpace(s) == "" {
		return []domain.ItineraryDay{}
	}

	locs := reDayHeading.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		desc, imgs := extractImages(s)
		return []domain.ItineraryDay{{Day: 1, Title: "Day 1", Description: desc, Images: imgs}}
	}

	out := make([]domain.ItineraryDay, 0, len(locs))
	for i, loc := range locs {
		end := len(s)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := s[loc[1]:end]
		if i == 0 {
			body = s[:loc[0]] + body
		}

		n, err := strconv.Atoi(s[loc[2]:loc[3]])
		if err != nil {
			n = i + 1
		}
		title, headImgs := extractImages(s[loc[4]:loc[5]])
		title = strings.Trim(title, headingCutset)
		if title == "" {
			title = fmt.Sprintf("Day %d", n)
		}
		desc, imgs := extractImages(body)

		out = append(out, domain.ItineraryDay{
			Day:         n,
			Title:       title,
			Description: desc,
			Images:      append(headImgs, imgs...),
		})
	}
	return out
}

// extractImages pulls every ![alt](url) out of text and returns the remaining prose.
// The alt text is discarded, as is an optional "title" after the url.
func extractImages(text string) (string, []string) {
	imgs := []string{}
	for _, m := range reMarkdownImage.FindAllStringSubmatch(text, -1) {
		if f := strings.Fields(m[2]); len(f) > 0 {
			imgs = append(imgs, f[0])
		}
	}
	text = reMarkdownImage.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), imgs
}
