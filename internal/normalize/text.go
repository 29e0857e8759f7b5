package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const summaryRunes = 160

// summarize reduces a description (plain, markdown or editor HTML) to one line of text.
func summarize(desc string) string {
	desc = reMarkdownImage.ReplaceAllString(desc, "")
	if strings.TrimSpace(desc) == "" {
		return ""
	}
	text := desc
	if strings.ContainsAny(desc, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(desc)); err == nil {
			// keep block boundaries as word boundaries
			doc.Find("p,div,li,br,h1,h2,h3,h4,h5,h6,tr").AfterHtml(" ")
			text = doc.Text()
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > summaryRunes {
		return strings.TrimSpace(string(r[:summaryRunes-1])) + "…"
	}
	return text
}
