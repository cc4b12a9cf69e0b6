package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(h *Handler, mw *Middleware) http.Handler {
	mux := chi.NewRouter()
	mux.Use(mw.Log, mw.Recover)

	mux.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)
		r.Get("/audit", h.AuditLog)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.OpenSession)
			r.Get("/{id}", h.Session)
			r.Get("/{id}/work-status", h.WorkStatus)
			r.Put("/{id}/work-status", h.SetWorkStatus)
			r.Post("/{id}/cashbox-openings", h.IncreaseCashBoxOpening)
			r.Get("/{id}/report", h.SessionReport)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.RegisterOrder)
			r.Post("/drafts", h.SaveDraft)
			r.Delete("/{uid}", h.DeleteOrder)
		})
	})

	return mux
}
