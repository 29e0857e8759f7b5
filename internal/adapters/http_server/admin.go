package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"travelshop/internal/adapters/objectstore"
	"travelshop/internal/adapters/xlsx"
	"travelshop/internal/app"
	"travelshop/internal/domain"
)

func (h *Handlers) adminListPackages(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", app.MaxPageLimit, 1, app.MaxPageLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	ps, err := h.Admin.ListPackages(r.Context(), domain.PackageFilter{
		Region: q.Get("region"), Q: q.Get("q"), Limit: limit, Offset: offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": ps})
}

func (h *Handlers) adminGetPackage(w http.ResponseWriter, r *http.Request) {
	n, err := h.Admin.GetPackage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, n)
}

func (h *Handlers) adminCreatePackage(w http.ResponseWriter, r *http.Request) {
	var in domain.Package
	if !decodeJSON(w, r, &in) {
		return
	}
	n, err := h.Admin.CreatePackage(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/admin/packages/"+n.ID)
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handlers) adminUpdatePackage(w http.ResponseWriter, r *http.Request) {
	var in domain.Package
	if !decodeJSON(w, r, &in) {
		return
	}
	n, err := h.Admin.UpdatePackage(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handlers) adminDeletePackage(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeletePackage(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// adminUploadImage expects multipart/form-data with the image in the "file" field.
func (h *Handlers) adminUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, objectstore.MaxObjectSize+(1<<20))
	if err := r.ParseMultipartForm(objectstore.MaxObjectSize); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Upload", err.Error())
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Upload", "missing file field")
		return
	}
	defer f.Close()

	n, err := h.Admin.AddPackageImage(r.Context(), chi.URLParam(r, "id"), hdr.Filename, hdr.Header.Get("Content-Type"), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handlers) adminListNotices(w http.ResponseWriter, r *http.Request) {
	ns, err := h.Admin.ListNotices(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": ns})
}

func (h *Handlers) adminCreateNotice(w http.ResponseWriter, r *http.Request) {
	var in domain.Notice
	if !decodeJSON(w, r, &in) {
		return
	}
	n, err := h.Admin.CreateNotice(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handlers) adminUpdateNotice(w http.ResponseWriter, r *http.Request) {
	id, ok := noticeID(w, r)
	if !ok {
		return
	}
	var in domain.Notice
	if !decodeJSON(w, r, &in) {
		return
	}
	n, err := h.Admin.UpdateNotice(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handlers) adminDeleteNotice(w http.ResponseWriter, r *http.Request) {
	id, ok := noticeID(w, r)
	if !ok {
		return
	}
	if err := h.Admin.DeleteNotice(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func reservationFilter(r *http.Request) (domain.ReservationFilter, error) {
	limit, err := queryInt(r, "limit", app.MaxPageLimit, 1, 10000)
	if err != nil {
		return domain.ReservationFilter{}, err
	}
	q := r.URL.Query()
	return domain.ReservationFilter{
		UserID: q.Get("user_id"),
		Status: domain.ReservationStatus(strings.ToLower(q.Get("status"))),
		Limit:  limit,
	}, nil
}

func (h *Handlers) adminListReservations(w http.ResponseWriter, r *http.Request) {
	f, err := reservationFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rs, err := h.Admin.ListReservations(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rs})
}

type statusRequest struct {
	Status domain.ReservationStatus `json:"status"`
}

func (h *Handlers) adminSetReservationStatus(w http.ResponseWriter, r *http.Request) {
	var in statusRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := h.Admin.SetReservationStatus(r.Context(), chi.URLParam(r, "id"), in.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) adminExportReservations(w http.ResponseWriter, r *http.Request) {
	f, err := reservationFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rs, err := h.Admin.ListReservations(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("reservations-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := xlsx.WriteReservations(w, rs); err != nil {
		writeError(w, r, err)
	}
}
