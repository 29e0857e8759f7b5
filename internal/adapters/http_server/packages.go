package httpserver

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"travelshop/internal/app"
	"travelshop/internal/domain"
)

// packageDetail adds rendered HTML when the client asks for ?format=html.
type packageDetail struct {
	domain.NormalizedPackage
	DescriptionHTML template.HTML   `json:"descriptionHtml,omitempty"`
	ItineraryHTML   []template.HTML `json:"itineraryHtml,omitempty"`
}

func (h *Handlers) listPackages(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", app.DefaultPageLimit, 1, app.MaxPageLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := h.Q.ListPackages(r.Context(), app.PackageQuery{
		Region: q.Get("region"),
		Q:      q.Get("q"),
		Limit:  limit,
		Cursor: q.Get("cursor"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, page)
}

func (h *Handlers) getPackage(w http.ResponseWriter, r *http.Request) {
	n, err := h.Q.GetPackage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeDetail(w, r, n)
}

func (h *Handlers) getPackageBySlug(w http.ResponseWriter, r *http.Request) {
	n, err := h.Q.GetPackageBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeDetail(w, r, n)
}

func (h *Handlers) writeDetail(w http.ResponseWriter, r *http.Request, n domain.NormalizedPackage) {
	out := packageDetail{NormalizedPackage: n}
	if r.URL.Query().Get("format") == "html" {
		var err error
		if out.DescriptionHTML, err = h.Text.HTML(n.Description); err != nil {
			writeError(w, r, err)
			return
		}
		out.ItineraryHTML = make([]template.HTML, len(n.ItineraryDays))
		for i, d := range n.ItineraryDays {
			if out.ItineraryHTML[i], err = h.Text.HTML(d.Description); err != nil {
				writeError(w, r, err)
				return
			}
		}
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) listNotices(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", app.DefaultPageLimit, 1, app.MaxPageLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ns, err := h.Q.ListNotices(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, map[string]any{"items": ns})
}

func (h *Handlers) getNotice(w http.ResponseWriter, r *http.Request) {
	id, ok := noticeID(w, r)
	if !ok {
		return
	}
	n, err := h.Q.GetNotice(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, n)
}

func noticeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}
