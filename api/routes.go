package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"section-presets/auth"
	"section-presets/preset"
	"section-presets/session"
)

func RegisterRoutes(manager *session.Manager, store preset.Store, issuer *auth.Issuer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(issuer.Middleware)

	h := &handler{manager: manager, store: store}

	// Preset store
	r.Get("/api/presets/{section}", h.listPresets)
	r.Put("/api/presets/{section}/{name}", h.putPreset)
	r.Delete("/api/presets/{section}/{name}", h.deletePreset)

	// Editing sessions
	r.Get("/api/sessions", h.listSessions)
	r.Post("/api/sessions", h.createSession)
	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.getSession)
		r.Delete("/", h.killSession)

		r.Post("/records", h.appendRecord)
		r.Patch("/records/{index}", h.setField)
		r.Delete("/records/{index}", h.removeRecord)
		r.Post("/commit", h.commit)

		r.Post("/select", h.choosePreset)
		r.Post("/presets", h.saveAsPreset)
		r.Delete("/presets/selected", h.deleteSelected)
		r.Post("/reload", h.reload)

		// WebSocket
		r.Get("/ws", h.handleWS)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

type handler struct {
	manager *session.Manager
	store   preset.Store
}
