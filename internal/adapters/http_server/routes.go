package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"travelshop/internal/adapters/richtext"
	"travelshop/internal/app"
	"travelshop/internal/domain"
)

type Handlers struct {
	Q     *app.QueryService
	Admin *app.AdminService
	Auth  *app.AuthService
	Resv  *app.ReservationService
	Text  *richtext.Renderer
	Login *IPLimiter
}

func (s *Server) MountHandlers(h *Handlers) {
	if h.Text == nil {
		h.Text = richtext.New()
	}
	if h.Login == nil {
		h.Login = NewIPLimiter(1, 5)
	}

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/packages", h.listPackages)
		r.Get("/packages/{id}", h.getPackage)
		r.Get("/packages/slug/{slug}", h.getPackageBySlug)
		r.Get("/notices", h.listNotices)
		r.Get("/notices/{id}", h.getNotice)

		r.Post("/auth/signup", h.signup)
		r.With(h.Login.Middleware).Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)
			r.Post("/auth/logout", h.logout)
			r.Post("/reservations", h.createReservation)
			r.Get("/me/reservations", h.myReservations)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.authenticate, requireRole(domain.RoleAdmin))

			r.Get("/packages", h.adminListPackages)
			r.Post("/packages", h.adminCreatePackage)
			r.Get("/packages/{id}", h.adminGetPackage)
			r.Put("/packages/{id}", h.adminUpdatePackage)
			r.Delete("/packages/{id}", h.adminDeletePackage)
			r.Post("/packages/{id}/images", h.adminUploadImage)

			r.Get("/notices", h.adminListNotices)
			r.Post("/notices", h.adminCreateNotice)
			r.Put("/notices/{id}", h.adminUpdateNotice)
			r.Delete("/notices/{id}", h.adminDeleteNotice)

			r.Get("/reservations", h.adminListReservations)
			r.Get("/reservations/export", h.adminExportReservations)
			r.Patch("/reservations/{id}", h.adminSetReservationStatus)
		})
	})
}
