package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yegors/flightboard/internal/airports"
	"github.com/yegors/flightboard/internal/board"
	"github.com/yegors/flightboard/internal/stands"
	"github.com/yegors/flightboard/pkg/logger"
)

const maxStandUploadBytes = 4 << 20

// StatsProvider reports component statistics for the health endpoint
type StatsProvider interface {
	GetStats() map[string]any
}

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// Handler contains the HTTP handlers for the API
type Handler struct {
	boards      *board.Service
	directory   *stands.Directory
	referenceDB *airports.Database
	weather     StatsProvider
	clients     ClientCounter
	adminToken  string
	ceilingFt   float64
	logger      *logger.Logger
}

// HandlerConfig holds the optional collaborators and settings of a Handler
type HandlerConfig struct {
	ReferenceDB      *airports.Database // nil disables airport search
	Weather          StatsProvider
	Clients          ClientCounter
	AdminToken       string
	DefaultCeilingFt float64
}

// NewHandler creates a new API handler
func NewHandler(boards *board.Service, directory *stands.Directory, cfg HandlerConfig, logger *logger.Logger) *Handler {
	return &Handler{
		boards:      boards,
		directory:   directory,
		referenceDB: cfg.ReferenceDB,
		weather:     cfg.Weather,
		clients:     cfg.Clients,
		adminToken:  cfg.AdminToken,
		ceilingFt:   cfg.DefaultCeilingFt,
		logger:      logger.Named("api"),
	}
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	lastFetch, ok := h.boards.GetStatus()

	status := "ok"
	if !ok {
		status = "degraded"
	}

	response := map[string]any{
		"status":     status,
		"feed_ok":    ok,
		"last_fetch": lastFetch,
		"airports":   len(h.boards.Registry().List()),
		"stands":     len(h.directory.Airports()),
	}
	if h.clients != nil {
		response["clients"] = h.clients.ClientCount()
	}
	if h.weather != nil {
		response["weather"] = h.weather.GetStats()
	}

	WriteJSON(w, http.StatusOK, response)
}

// ListAirports returns the tracked airports
func (h *Handler) ListAirports(w http.ResponseWriter, r *http.Request) {
	list := h.boards.Registry().List()
	WriteJSON(w, http.StatusOK, map[string]any{
		"airports": list,
		"count":    len(list),
	})
}

// GetBoard returns the latest board of an airport, building it if none exists yet
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	icao := strings.ToUpper(chi.URLParam(r, "icao"))

	if b, ok := h.boards.Board(icao); ok {
		WriteJSON(w, http.StatusOK, b)
		return
	}

	b, err := h.boards.RefreshAirport(r.Context(), icao)
	if err != nil {
		if errors.Is(err, board.ErrUnknownAirport) {
			http.Error(w, "Airport not tracked", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to build board", logger.String("airport", icao), logger.Error(err))
		http.Error(w, "Failed to build board", http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

type searchAirportRequest struct {
	ICAO string `json:"icao"`
}

// SearchAirport starts tracking an airport from the reference database
func (h *Handler) SearchAirport(w http.ResponseWriter, r *http.Request) {
	var req searchAirportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	icao := strings.ToUpper(strings.TrimSpace(req.ICAO))
	if len(icao) != 4 {
		http.Error(w, "ICAO code must be 4 characters", http.StatusBadRequest)
		return
	}

	airport, added, err := h.boards.Registry().AddFromDatabase(h.referenceDB, icao, h.ceilingFt)
	if err != nil {
		if errors.Is(err, airports.ErrNotFound) {
			http.Error(w, "Airport not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Airport search failed", logger.String("airport", icao), logger.Error(err))
		http.Error(w, "Airport search failed", http.StatusInternalServerError)
		return
	}

	if added {
		h.logger.Info("Tracking new airport",
			logger.String("airport", airport.ICAO),
			logger.String("name", airport.Name))
		if _, err := h.boards.RefreshAirport(r.Context(), airport.ICAO); err != nil {
			h.logger.Warn("Initial board build failed", logger.String("airport", airport.ICAO), logger.Error(err))
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"icao":    airport.ICAO,
		"name":    airport.Name,
		"country": airport.Country,
		"added":   added,
	})
}

// GetAdminStands returns the stand list of an airport
func (h *Handler) GetAdminStands(w http.ResponseWriter, r *http.Request) {
	icao := stands.Normalize(chi.URLParam(r, "icao"))
	list := h.directory.Stands(icao)

	WriteJSON(w, http.StatusOK, map[string]any{
		"airport": icao,
		"stands":  list,
		"count":   len(list),
	})
}

// PostAdminStands replaces the stand list of an airport and reloads the directory
func (h *Handler) PostAdminStands(w http.ResponseWriter, r *http.Request) {
	icao := stands.Normalize(chi.URLParam(r, "icao"))

	var list []stands.Stand
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStandUploadBytes)).Decode(&list); err != nil {
		http.Error(w, "Invalid stand list", http.StatusBadRequest)
		return
	}

	start := time.Now()
	if err := h.directory.Replace(r.Context(), icao, list); err != nil {
		if errors.Is(err, stands.ErrInvalidStand) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to replace stands", logger.String("airport", icao), logger.Error(err))
		http.Error(w, "Failed to store stands", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Stands updated via admin API",
		logger.String("airport", icao),
		logger.Int("count", len(list)),
		logger.Since(start))

	WriteJSON(w, http.StatusOK, map[string]any{
		"airport": icao,
		"count":   len(list),
	})
}

// RequireAdmin rejects requests without the configured bearer token
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			h.logger.Warn("Rejected admin request", logger.String("remote_addr", r.RemoteAddr))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
