package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"ShopScore/internal/domain/models"
	"ShopScore/internal/domain/repository"
)

type seriesKey struct {
	product  string
	metric   models.Metric
	platform string
	date     time.Time
}

// MemorySeriesStore is a process-local SeriesStore used when ClickHouse is
// disabled. Saving an existing date replaces its value.
type MemorySeriesStore struct {
	mu   sync.RWMutex
	data map[seriesKey]float64
}

func NewMemorySeriesStore() *MemorySeriesStore {
	return &MemorySeriesStore{data: make(map[seriesKey]float64)}
}

var _ repository.SeriesStore = (*MemorySeriesStore)(nil)

func (s *MemorySeriesStore) Init(context.Context) error { return nil }

func (s *MemorySeriesStore) SaveObservations(_ context.Context, obs []models.StoredObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range obs {
		if o.Product == "" || o.Date.IsZero() {
			continue
		}
		s.data[seriesKey{o.Product, o.Metric, o.Platform, o.Date.UTC()}] = o.Value
	}
	return nil
}

func (s *MemorySeriesStore) LoadObservations(_ context.Context, q repository.SeriesQuery) ([]models.StoredObservation, error) {
	s.mu.RLock()
	out := make([]models.StoredObservation, 0)
	for k, v := range s.data {
		if k.product != q.Product || k.metric != q.Metric {
			continue
		}
		if q.Platform != "" && k.platform != q.Platform {
			continue
		}
		if !q.From.IsZero() && k.date.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && k.date.After(q.To) {
			continue
		}
		out = append(out, models.StoredObservation{
			Product: k.product, Metric: k.metric, Platform: k.platform, Date: k.date, Value: v,
		})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Platform != out[j].Platform {
			return out[i].Platform < out[j].Platform
		}
		return out[i].Date.Before(out[j].Date)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemorySeriesStore) Health(context.Context) error { return nil }

func (s *MemorySeriesStore) Close() error { return nil }
