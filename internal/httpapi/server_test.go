package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UnknownOlympus/nearby/internal/geocoding"
	"github.com/UnknownOlympus/nearby/internal/httpapi"
	"github.com/UnknownOlympus/nearby/internal/metrics"
	"github.com/UnknownOlympus/nearby/internal/models"
	"github.com/UnknownOlympus/nearby/internal/repository"
	"github.com/UnknownOlympus/nearby/internal/service"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchFunc func(ctx context.Context, query models.ProximityQuery) ([]models.Match, error)

func (f searchFunc) Search(ctx context.Context, query models.ProximityQuery) ([]models.Match, error) {
	return f(ctx, query)
}

type downStore struct{ err error }

func (d downStore) GetSitter(context.Context, int64) (*models.Sitter, error) { return nil, d.err }
func (d downStore) Ping(context.Context) error { return d.err }

type item struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Location *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`
	DistanceMeters *int   `json:"distance_meters"`
	Geohash        string `json:"geohash"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func get(t *testing.T, srv *httpapi.Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func seattleStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore(slog.Default(), 0)
	require.NoError(t, store.Put(models.Sitter{
		ID: 1, Title: "A", Address: "1st Ave, Seattle, WA 98101", City: "Seattle",
		Location: &models.Location{Latitude: 47.6089, Longitude: -122.3356},
	}))
	require.NoError(t, store.Put(models.Sitter{
		ID: 2, Title: "Capitol Hill", Address: "425 15th Ave E, Seattle, WA 98112", City: "Seattle",
	}))
	require.NoError(t, store.Put(models.Sitter{
		ID: 3, Title: "Nowhere", Address: "Unknown Street 12345", City: "Nowhere",
	}))

	return store
}

func newServer(t *testing.T, store *repository.MemoryStore, fallback bool) *httpapi.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	engine := service.NewEngine(
		service.EngineConfig{BackfillCap: 5, Workers: 2, GeocodeTimeout: time.Second, BackfillBudget: 5 * time.Second},
		store,
		geocoding.NewFixtureProvider(geocoding.DefaultFixtures, 0, nil, slog.Default()),
		"fixture",
		metrics.NewMetrics(reg),
		slog.Default(),
		clockwork.NewRealClock(),
	)

	return httpapi.NewServer(httpapi.Options{
		Addr:            ":0",
		Searcher:        engine,
		Sitters:         store,
		Gatherer:        reg,
		OfflineFallback: fallback,
		Logger:          slog.Default(),
	})
}

func TestNearby(t *testing.T) {
	store := seattleStore(t)
	srv := newServer(t, store, false)

	rec := get(t, srv, "/api/sitters/nearby?lat=47.6062&lon=-122.3321&km=4")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	items := decode[[]item](t, rec)
	require.Len(t, items, 2)

	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "A", items[0].Title)
	require.NotNil(t, items[0].DistanceMeters)
	assert.InDelta(t, 399, *items[0].DistanceMeters, 2)
	assert.Len(t, items[0].Geohash, 7)

	assert.Equal(t, int64(2), items[1].ID)
	require.NotNil(t, items[1].Location)
	assert.InDelta(t, 47.6223, items[1].Location.Lat, 1e-9)
	assert.InDelta(t, -122.3129, items[1].Location.Lon, 1e-9)

	sitter, err := store.GetSitter(t.Context(), 2)
	require.NoError(t, err)
	assert.NotNil(t, sitter.Location, "backfilled coordinates are persisted")
}

func TestNearby_DefaultRadiusAndEmptyResult(t *testing.T) {
	srv := newServer(t, repository.NewMemoryStore(slog.Default(), 0), false)

	rec := get(t, srv, "/api/sitters/nearby?lat=30.2672&lon=-97.7431")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestNearby_ValidationErrors(t *testing.T) {
	srv := newServer(t, seattleStore(t), false)

	for _, target := range []string{
		"/api/sitters/nearby",
		"/api/sitters/nearby?lat=abc&lon=-122.3",
		"/api/sitters/nearby?lat=47.6&lon=",
		"/api/sitters/nearby?lat=47.6&lon=-122.3&km=far",
		"/api/sitters/nearby?lat=47.6&lon=-122.3&km=0",
		"/api/sitters/nearby?lat=47.6&lon=-122.3&km=-2",
		"/api/sitters/nearby?lat=91&lon=-122.3",
		"/api/sitters/nearby?lat=47.6&lon=181",
	} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, srv, target)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", decode[errorResponse](t, rec).Error.Code)
		})
	}
}

func TestNearby_StoreUnavailable(t *testing.T) {
	unavailable := searchFunc(func(context.Context, models.ProximityQuery) ([]models.Match, error) {
		return nil, &service.SearchError{Reason: service.ReasonStoreUnavailable, Err: service.ErrStoreUnavailable}
	})

	t.Run("without fallback", func(t *testing.T) {
		srv := httpapi.NewServer(httpapi.Options{Searcher: unavailable, Logger: slog.Default()})

		rec := get(t, srv, "/api/sitters/nearby?lat=47.6062&lon=-122.3321")

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "SEARCH_UNAVAILABLE", decode[errorResponse](t, rec).Error.Code)
		assert.Empty(t, rec.Header().Get(httpapi.DegradedHeader))
	})

	t.Run("with offline fallback", func(t *testing.T) {
		srv := httpapi.NewServer(httpapi.Options{Searcher: unavailable, OfflineFallback: true, Logger: slog.Default()})

		rec := get(t, srv, "/api/sitters/nearby?lat=47.6062&lon=-122.3321&km=2")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "true", rec.Header().Get(httpapi.DegradedHeader))
		items := decode[[]item](t, rec)
		require.Len(t, items, 1)
		assert.Zero(t, items[0].ID)
		assert.Equal(t, httpapi.OfflineTitle, items[0].Title)
		assert.Empty(t, items[0].Address)
		require.NotNil(t, items[0].Location)
		assert.InDelta(t, 47.6062, items[0].Location.Lat, 1e-9)
		assert.InDelta(t, -122.3321, items[0].Location.Lon, 1e-9)
		require.NotNil(t, items[0].DistanceMeters)
		assert.Zero(t, *items[0].DistanceMeters)
	})

	t.Run("unexpected error", func(t *testing.T) {
		broken := searchFunc(func(context.Context, models.ProximityQuery) ([]models.Match, error) {
			return nil, errors.New("boom")
		})
		srv := httpapi.NewServer(httpapi.Options{Searcher: broken, OfflineFallback: true, Logger: slog.Default()})

		rec := get(t, srv, "/api/sitters/nearby?lat=47.6062&lon=-122.3321")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "INTERNAL_ERROR", decode[errorResponse](t, rec).Error.Code)
	})
}

func TestGetSitter(t *testing.T) {
	srv := newServer(t, seattleStore(t), false)

	t.Run("located sitter", func(t *testing.T) {
		rec := get(t, srv, "/api/sitters/1")

		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[item](t, rec)
		assert.Equal(t, int64(1), got.ID)
		assert.Equal(t, "Seattle", got.City)
		require.NotNil(t, got.Location)
		assert.Nil(t, got.DistanceMeters)
		assert.Len(t, got.Geohash, 7)
	})

	t.Run("unlocated sitter", func(t *testing.T) {
		rec := get(t, srv, "/api/sitters/3")

		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[item](t, rec)
		assert.Nil(t, got.Location)
		assert.Empty(t, got.Geohash)
	})

	t.Run("not found", func(t *testing.T) {
		rec := get(t, srv, "/api/sitters/99")

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decode[errorResponse](t, rec).Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := get(t, srv, "/api/sitters/abc")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ID", decode[errorResponse](t, rec).Error.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		broken := httpapi.NewServer(httpapi.Options{Sitters: downStore{err: errors.New("conn refused")}, Logger: slog.Default()})

		rec := get(t, broken, "/api/sitters/1")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "INTERNAL_ERROR", decode[errorResponse](t, rec).Error.Code)
	})
}

func TestHealthAndReadiness(t *testing.T) {
	t.Run("healthz", func(t *testing.T) {
		srv := newServer(t, seattleStore(t), false)

		rec := get(t, srv, "/healthz")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	})

	t.Run("ready", func(t *testing.T) {
		srv := newServer(t, seattleStore(t), false)

		rec := get(t, srv, "/readyz")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
	})

	t.Run("not ready", func(t *testing.T) {
		srv := httpapi.NewServer(httpapi.Options{Sitters: downStore{err: errors.New("conn refused")}, Logger: slog.Default()})

		rec := get(t, srv, "/readyz")

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "conn refused")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t, seattleStore(t), false)
	require.Equal(t, http.StatusOK, get(t, srv, "/api/sitters/nearby?lat=47.6062&lon=-122.3321&km=1").Code)

	rec := get(t, srv, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nearby_searches_total")
}

func TestShutdown(t *testing.T) {
	srv := httpapi.NewServer(httpapi.Options{Addr: "127.0.0.1:0", Logger: slog.Default()})

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}
