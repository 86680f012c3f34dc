package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/TomiHiltunen/geohash-golang"
	"github.com/UnknownOlympus/nearby/internal/models"
	"github.com/UnknownOlympus/nearby/internal/repository"
	"github.com/UnknownOlympus/nearby/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultRadiusKm  = 5
	geohashPrecision = 7
	readyTimeout     = 2 * time.Second

	// DegradedHeader marks responses built by the offline fallback.
	DegradedHeader = "X-Search-Degraded"
	// OfflineTitle is the title of the placeholder match served by the offline fallback.
	OfflineTitle = "Sitter (offline)"
)

// Searcher runs proximity searches.
type Searcher interface {
	Search(ctx context.Context, query models.ProximityQuery) ([]models.Match, error)
}

// SitterReader loads single sitters and reports store health.
type SitterReader interface {
	GetSitter(ctx context.Context, sitterID int64) (*models.Sitter, error)
	Ping(ctx context.Context) error
}

// Options configures the HTTP server.
type Options struct {
	Addr            string
	Searcher        Searcher
	Sitters         SitterReader
	Gatherer        prometheus.Gatherer
	OfflineFallback bool // Answer with a synthetic match instead of 503 when the store is down
	Logger          *slog.Logger
}

// Server exposes the sitter search API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	opts       Options
	logger     *slog.Logger
}

type locationJSON struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type sitterJSON struct {
	ID             int64         `json:"id"`
	Title          string        `json:"title"`
	Address        string        `json:"address"`
	City           string        `json:"city"`
	Location       *locationJSON `json:"location"`
	DistanceMeters *int          `json:"distance_meters,omitempty"`
	Geohash        string        `json:"geohash,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer creates an HTTP server with the API, /healthz, /readyz, and /metrics routes.
func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		opts:   opts,
		logger: opts.Logger,
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux.HandleFunc("GET /api/sitters/nearby", s.handleNearby)
	mux.HandleFunc("GET /api/sitters/{id}", s.handleSitter)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	query, err := parseNearby(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	matches, err := s.opts.Searcher.Search(r.Context(), query)
	if err != nil {
		s.writeSearchError(w, r, query, err)
		return
	}

	body := make([]sitterJSON, 0, len(matches))
	for _, match := range matches {
		body = append(body, matchJSON(match))
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) writeSearchError(w http.ResponseWriter, r *http.Request, query models.ProximityQuery, err error) {
	switch service.ReasonOf(err) {
	case service.ReasonInvalidQuery:
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case service.ReasonStoreUnavailable:
		if !s.opts.OfflineFallback {
			writeError(w, http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Search is temporarily unavailable")
			return
		}
		s.logger.WarnContext(r.Context(), "Serving offline fallback", "error", err)
		w.Header().Set(DegradedHeader, "true")
		writeJSON(w, http.StatusOK, []sitterJSON{offlineMatch(query.Center)})
	default:
		s.logger.ErrorContext(r.Context(), "Nearby search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func (s *Server) handleSitter(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid sitter ID")
		return
	}

	sitter, err := s.opts.Sitters.GetSitter(r.Context(), id)
	if errors.Is(err, repository.ErrSitterNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Sitter not found")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Error fetching sitter", "sitter", id, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, sitterToJSON(*sitter))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.opts.Sitters.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func parseNearby(r *http.Request) (models.ProximityQuery, error) {
	values := r.URL.Query()

	lat, err := strconv.ParseFloat(values.Get("lat"), 64)
	if err != nil {
		return models.ProximityQuery{}, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(values.Get("lon"), 64)
	if err != nil {
		return models.ProximityQuery{}, errors.New("lon must be a number")
	}

	radius := float64(defaultRadiusKm)
	if raw := values.Get("km"); raw != "" {
		if radius, err = strconv.ParseFloat(raw, 64); err != nil {
			return models.ProximityQuery{}, errors.New("km must be a number")
		}
	}

	query := models.ProximityQuery{Center: models.Location{Latitude: lat, Longitude: lon}, RadiusKm: radius}
	if err = query.Validate(); err != nil {
		return models.ProximityQuery{}, err
	}

	return query, nil
}

func sitterToJSON(sitter models.Sitter) sitterJSON {
	out := sitterJSON{ID: sitter.ID, Title: sitter.Title, Address: sitter.Address, City: sitter.City}
	if sitter.Location != nil {
		out.Location = &locationJSON{Lat: sitter.Location.Latitude, Lon: sitter.Location.Longitude}
		out.Geohash = geohash.EncodeWithPrecision(sitter.Location.Latitude, sitter.Location.Longitude, geohashPrecision)
	}
	return out
}

func matchJSON(match models.Match) sitterJSON {
	sitter := match.Sitter
	loc := match.Location
	sitter.Location = &loc

	out := sitterToJSON(sitter)
	meters := match.DistanceMeters
	out.DistanceMeters = &meters

	return out
}

// offlineMatch is the placeholder served when the store is unreachable and the
// fallback is enabled: id 0, title OfflineTitle, empty address and city, located on
// the query center at distance 0. Real sitters never have id 0.
func offlineMatch(center models.Location) sitterJSON {
	return matchJSON(models.Match{
		Sitter:   models.Sitter{Title: OfflineTitle},
		Location: center,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
