package store

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/soilguardian/pkg/pagination"
	"github.com/JaimeStill/soilguardian/pkg/query"
)

// Memory is a process-local store for tests and single-node development.
type Memory struct {
	mu              sync.RWMutex
	farms           []Farm
	readings        []SoilReading
	recommendations []Recommendation
	pagination      pagination.Config
	now             func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory(pg pagination.Config) *Memory {
	return &Memory{
		pagination: pg,
		now:        time.Now,
	}
}

// AddFarm stores f, assigning an ID and creation time when unset.
func (m *Memory) AddFarm(f Farm) Farm {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = m.now().UTC()
	}
	m.farms = append(m.farms, f)
	return f
}

// AddSoilReading stores r, assigning an ID and record time when unset.
func (m *Memory) AddSoilReading(r SoilReading) SoilReading {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.RecordedAt.IsZero() {
		r.RecordedAt = m.now().UTC()
	}
	m.readings = append(m.readings, r)
	return r
}

func (m *Memory) RecentSoilReadings(_ context.Context, days int, farmID *uuid.UUID) ([]SoilReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	since := m.now().AddDate(0, 0, -days)
	out := make([]SoilReading, 0)
	for _, r := range m.readings {
		if r.RecordedAt.Before(since) {
			continue
		}
		if farmID != nil && r.FarmID != *farmID {
			continue
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b SoilReading) int {
		return b.RecordedAt.Compare(a.RecordedAt)
	})
	return out, nil
}

func (m *Memory) Farms(_ context.Context, userID *string) ([]Farm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Farm, 0)
	for _, f := range m.farms {
		if userID != nil && f.UserID != *userID {
			continue
		}
		out = append(out, f)
	}

	slices.SortStableFunc(out, func(a, b Farm) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (m *Memory) SaveRecommendation(_ context.Context, rec Recommendation) (Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec = stamp(rec, m.now())
	if rec.FarmID != nil {
		for _, f := range m.farms {
			if f.ID == *rec.FarmID {
				name := f.Name
				rec.FarmName = &name
				break
			}
		}
	}
	m.recommendations = append(m.recommendations, rec)
	return rec, nil
}

func (m *Memory) ListRecommendations(_ context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Recommendation], error) {
	page.Normalize(m.pagination)

	m.mu.RLock()
	matched := make([]Recommendation, 0)
	for _, rec := range m.recommendations {
		if filters.match(rec) && searchMatch(rec, page.Search) {
			matched = append(matched, rec)
		}
	}
	m.mu.RUnlock()

	sortRecommendations(matched, page.Sort)

	start := min(page.Offset(), len(matched))
	end := min(start+page.PageSize, len(matched))

	result := pagination.NewPageResult(matched[start:end], len(matched), page.Page, page.PageSize)
	return &result, nil
}

var recommendationOrder = map[string]func(a, b Recommendation) int{
	"ID":           func(a, b Recommendation) int { return bytes.Compare(a.ID[:], b.ID[:]) },
	"ModelVersion": func(a, b Recommendation) int { return strings.Compare(a.ModelVersion, b.ModelVersion) },
	"TopCrop":      func(a, b Recommendation) int { return strings.Compare(a.TopCrop, b.TopCrop) },
	"FarmName":     func(a, b Recommendation) int { return strings.Compare(deref(a.FarmName), deref(b.FarmName)) },
	"CreatedAt":    func(a, b Recommendation) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

// sortRecommendations orders recs by the sort fields the postgres
// projection accepts, falling back to newest first.
func sortRecommendations(recs []Recommendation, fields []query.SortField) {
	var cmps []func(a, b Recommendation) int
	for _, f := range fields {
		c, ok := recommendationOrder[f.Field]
		if !ok {
			continue
		}
		if f.Descending {
			asc := c
			c = func(a, b Recommendation) int { return asc(b, a) }
		}
		cmps = append(cmps, c)
	}
	if len(cmps) == 0 {
		cmps = append(cmps, func(a, b Recommendation) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}

	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		for _, c := range cmps {
			if n := c(a, b); n != 0 {
				return n
			}
		}
		return 0
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func searchMatch(rec Recommendation, search *string) bool {
	if search == nil || *search == "" {
		return true
	}
	term := strings.ToLower(*search)
	return strings.Contains(strings.ToLower(rec.TopCrop), term) ||
		strings.Contains(strings.ToLower(rec.ModelVersion), term)
}
