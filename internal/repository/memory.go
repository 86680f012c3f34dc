package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/UnknownOlympus/nearby/internal/geo"
	"github.com/UnknownOlympus/nearby/internal/models"
	"github.com/golang/geo/s2"
)

const (
	coverMaxLevel = 30
	coverMaxCells = 16
)

type memoryRecord struct {
	sitter   models.Sitter
	attempts int
	lastErr  string
}

type cellEntry struct {
	cell s2.CellID
	id   int64
}

// MemoryStore is an in-process spatial store. Located sitters are indexed by their
// s2 leaf cell in a sorted slice, so a radius query only visits the cell ranges that
// cover the search cap.
type MemoryStore struct {
	mu          sync.RWMutex
	records     map[int64]*memoryRecord
	index       []cellEntry
	coverer     *s2.RegionCoverer
	maxAttempts int
	log         *slog.Logger
}

// NewMemoryStore creates an empty store. A non-positive maxAttempts falls back to
// DefaultMaxGeocodeAttempts.
func NewMemoryStore(log *slog.Logger, maxAttempts int) *MemoryStore {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxGeocodeAttempts
	}

	return &MemoryStore{
		records:     make(map[int64]*memoryRecord),
		coverer:     &s2.RegionCoverer{MinLevel: 0, MaxLevel: coverMaxLevel, LevelMod: 1, MaxCells: coverMaxCells},
		maxAttempts: maxAttempts,
		log:         log,
	}
}

// Put inserts or replaces a sitter, including its location when it has one.
func (m *MemoryStore) Put(sitter models.Sitter) error {
	if sitter.Location != nil {
		if err := sitter.Location.Validate(); err != nil {
			return fmt.Errorf("put sitter %d: %w", sitter.ID, err)
		}
		loc := *sitter.Location
		sitter.Location = &loc
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.records[sitter.ID]; ok {
		m.unindex(old.sitter)
	}
	m.records[sitter.ID] = &memoryRecord{sitter: sitter}
	m.reindex(sitter)

	return nil
}

// RadiusQuery returns located sitters whose rounded distance from center is within radiusKm.
func (m *MemoryStore) RadiusQuery(_ context.Context, center models.Location, radiusKm float64) ([]models.Match, error) {
	if err := center.Validate(); err != nil {
		return nil, fmt.Errorf("radius query: %w", err)
	}

	capRegion := s2.CapFromCenterAngle(
		s2.PointFromLatLng(geo.LatLng(center)),
		geo.CapAngle(radiusKm*metersPerKilometer+roundingSlackMeters),
	)
	covering := m.coverer.Covering(capRegion)

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := []models.Match{}
	for _, cell := range covering {
		lo, hi := cell.RangeMin(), cell.RangeMax()
		start := sort.Search(len(m.index), func(i int) bool { return m.index[i].cell >= lo })
		for i := start; i < len(m.index) && m.index[i].cell <= hi; i++ {
			rec := m.records[m.index[i].id]
			loc := *rec.sitter.Location
			meters := geo.RoundMeters(geo.Distance(center, loc))
			if !geo.Within(meters, radiusKm) {
				continue
			}
			matches = append(matches, models.Match{Sitter: copySitter(rec.sitter), Location: loc, DistanceMeters: meters})
		}
	}

	models.SortMatches(matches)

	return matches, nil
}

// UnlocatedCandidates returns up to limit sitters without a location, ordered by id.
func (m *MemoryStore) UnlocatedCandidates(_ context.Context, limit int) ([]models.Sitter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sitters := []models.Sitter{}
	for _, rec := range m.records {
		if rec.sitter.Location != nil || !rec.sitter.HasAddress() || rec.attempts >= m.maxAttempts {
			continue
		}
		sitters = append(sitters, rec.sitter)
	}

	sort.Slice(sitters, func(i, j int) bool { return sitters[i].ID < sitters[j].ID })
	if limit >= 0 && len(sitters) > limit {
		sitters = sitters[:limit]
	}

	return sitters, nil
}

// WriteLocation stores the location of a sitter and moves it into the spatial index.
func (m *MemoryStore) WriteLocation(_ context.Context, sitterID int64, loc models.Location) error {
	if err := loc.Validate(); err != nil {
		return fmt.Errorf("update location of sitter %d: %w", sitterID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[sitterID]
	if !ok {
		return fmt.Errorf("update location of sitter %d: %w", sitterID, ErrSitterNotFound)
	}

	m.unindex(rec.sitter)
	rec.sitter.Location = &loc
	rec.lastErr = ""
	m.reindex(rec.sitter)

	return nil
}

// RecordGeocodeFailure counts a failed lookup against a sitter.
func (m *MemoryStore) RecordGeocodeFailure(_ context.Context, sitterID int64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[sitterID]
	if !ok {
		return fmt.Errorf("record failure of sitter %d: %w", sitterID, ErrSitterNotFound)
	}
	rec.attempts++
	rec.lastErr = reason

	return nil
}

// GetSitter returns a copy of the sitter with the given id.
func (m *MemoryStore) GetSitter(_ context.Context, sitterID int64) (*models.Sitter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[sitterID]
	if !ok {
		return nil, fmt.Errorf("get sitter %d: %w", sitterID, ErrSitterNotFound)
	}
	sitter := copySitter(rec.sitter)

	return &sitter, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

// reindex and unindex must be called with the write lock held.
func (m *MemoryStore) reindex(sitter models.Sitter) {
	if sitter.Location == nil {
		return
	}
	entry := cellEntry{cell: s2.CellIDFromLatLng(geo.LatLng(*sitter.Location)), id: sitter.ID}
	i := sort.Search(len(m.index), func(i int) bool { return !entryLess(m.index[i], entry) })
	m.index = append(m.index, cellEntry{})
	copy(m.index[i+1:], m.index[i:])
	m.index[i] = entry
}

func (m *MemoryStore) unindex(sitter models.Sitter) {
	if sitter.Location == nil {
		return
	}
	entry := cellEntry{cell: s2.CellIDFromLatLng(geo.LatLng(*sitter.Location)), id: sitter.ID}
	i := sort.Search(len(m.index), func(i int) bool { return !entryLess(m.index[i], entry) })
	if i < len(m.index) && m.index[i] == entry {
		m.index = append(m.index[:i], m.index[i+1:]...)
	}
}

func entryLess(a, b cellEntry) bool {
	if a.cell != b.cell {
		return a.cell < b.cell
	}
	return a.id < b.id
}

func copySitter(s models.Sitter) models.Sitter {
	if s.Location != nil {
		loc := *s.Location
		s.Location = &loc
	}
	return s
}
