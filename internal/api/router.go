package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yegors/flightboard/pkg/logger"
)

// Router wires the HTTP handlers, the websocket endpoint and the static frontend
type Router struct {
	handler   *Handler
	websocket http.HandlerFunc
	staticDir string
	logger    *logger.Logger
}

// NewRouter creates a new router. websocket may be nil.
func NewRouter(handler *Handler, websocket http.HandlerFunc, staticDir string, logger *logger.Logger) *Router {
	return &Router{
		handler:   handler,
		websocket: websocket,
		staticDir: staticDir,
		logger:    logger.Named("router"),
	}
}

// Routes returns the HTTP handler for every endpoint
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(r.requestLogger)
	router.Use(middleware.Recoverer)

	if r.websocket != nil {
		router.Get("/ws", r.websocket)
	}

	router.Route("/api", func(api chi.Router) {
		api.Get("/health", r.handler.GetHealth)
		api.Get("/airports", r.handler.ListAirports)
		api.Get("/boards/{icao}", r.handler.GetBoard)
		api.Post("/search_airport", r.handler.SearchAirport)

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(r.handler.RequireAdmin)
			admin.Get("/stands/{icao}", r.handler.GetAdminStands)
			admin.Post("/stands/{icao}", r.handler.PostAdminStands)
		})
	})

	router.Handle("/*", NewStaticFileHandler(r.staticDir, r.logger))

	return router
}

// requestLogger logs each request at debug level
func (r *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		r.logger.Debug("HTTP request",
			logger.String("method", req.Method),
			logger.String("path", req.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Int("bytes", ww.BytesWritten()),
			logger.String("request_id", middleware.GetReqID(req.Context())),
			logger.Since(start))
	})
}
