package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/gunslinger-backend/internal/archive"
	"github.com/DoyleJ11/gunslinger-backend/internal/hub"
	"github.com/DoyleJ11/gunslinger-backend/internal/ws"
)

type Options struct {
	Logger *zap.Logger
	// Store backs GET /rooms/{code}/turns; nil leaves the route unregistered.
	Store archive.Store
	WS    ws.Options
}

func SetupRoutes(h *hub.Hub, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.WS.Logger == nil {
		opts.WS.Logger = opts.Logger
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/schema", Schema)
	r.Get("/ws", ws.Handler(h, opts.WS))

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", CreateRoom(h, opts.Logger))
		r.Get("/", ListRooms(h))
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", GetRoom(h))
			r.Get("/metrics", RoomMetrics(h))
			r.Post("/resolve", ResolveRoom(h))
			if opts.Store != nil {
				r.Get("/turns", Turns(opts.Store, opts.Logger))
			}
		})
	})
	return r
}
