package http

import (
	"net/http"

	"crmpush/internal/auth"
	"crmpush/internal/config"
	"crmpush/internal/http/handler"
	mw "crmpush/internal/http/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the routes are built on. Clients and JWT are
// only used when cfg.AuthEnabled().
type Deps struct {
	Push    handler.PushService
	Sched   handler.Scheduler
	Clients handler.Authenticator
	JWT     *auth.JWT
	Log     zerolog.Logger
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Logging(d.Log)...)
	r.Use(chimw.Recoverer)

	if corsMW := mw.CORS(cfg); corsMW != nil {
		r.Use(corsMW)
	}

	r.Get("/health", handler.Health)

	protect := func(next http.Handler) http.Handler { return next }
	if cfg.AuthEnabled() {
		protect = auth.RequireAuth(d.JWT)

		ah := &handler.AuthHandler{Clients: d.Clients, JWT: d.JWT}
		r.Post("/auth/token", ah.Token)

		me := &handler.MeHandler{}
		r.With(protect).Get("/me", me.Me)
	}

	ph := &handler.PushHandler{Svc: d.Push, Sched: d.Sched}

	r.Route("/push", func(r chi.Router) {
		r.Use(protect)

		r.Post("/", ph.Create)
		r.Get("/", ph.List)

		r.Get("/{job_id}", ph.Status)
		r.Get("/{job_id}/contacts", ph.Contacts)
	})

	return r
}
