package repository

import (
	"context"
	"time"

	"ShopScore/internal/domain/models"
)

// SeriesStore persists prepared price/sales observations per product and platform.
type SeriesStore interface {
	Init(ctx context.Context) error
	SaveObservations(ctx context.Context, obs []models.StoredObservation) error
	LoadObservations(ctx context.Context, q SeriesQuery) ([]models.StoredObservation, error)
	Health(ctx context.Context) error
	Close() error
}

// SeriesQuery filters stored observations. Zero times leave that bound open.
type SeriesQuery struct {
	Product  string
	Metric   models.Metric
	Platform string
	From     time.Time
	To       time.Time
	Limit    int
}

// Publisher emits score events to downstream consumers.
type Publisher interface {
	PublishScore(ctx context.Context, ev models.ScoreEvent) error
	Close() error
}

type Metrics interface {
	RecordScore(platform string, score float64)
	RecordFitFailure(metric, platform string)
	RecordDegraded(kind string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
