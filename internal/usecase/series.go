package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ShopScore/internal/domain/models"
	domrepo "ShopScore/internal/domain/repository"
	"ShopScore/pkg/logger"
)

// SeriesUseCase stores prepared observations and reads them back.
type SeriesUseCase struct {
	store  domrepo.SeriesStore
	logger *logger.Logger
}

func NewSeriesUseCase(store domrepo.SeriesStore, log *logger.Logger) *SeriesUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &SeriesUseCase{store: store, logger: log}
}

type SeriesParams struct {
	Product  string
	Metric   models.Metric
	Platform string
	From     time.Time
	To       time.Time
	Limit    int
}

// Ingest stores every platform's observations for product and metric.
func (uc *SeriesUseCase) Ingest(ctx context.Context, product string, metric models.Metric, series map[string][]models.Observation) (int, error) {
	platforms := make([]string, 0, len(series))
	for p := range series {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	var rows []models.StoredObservation
	for _, p := range platforms {
		for _, o := range series[p] {
			rows = append(rows, models.StoredObservation{
				Product: product, Metric: metric, Platform: p, Date: o.Date, Value: o.Value,
			})
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := uc.store.SaveObservations(ctx, rows); err != nil {
		return 0, fmt.Errorf("ingest %s %s: %w", product, metric, err)
	}
	return len(rows), nil
}

// History returns stored observations grouped by platform in date order.
func (uc *SeriesUseCase) History(ctx context.Context, p SeriesParams) (*models.SeriesHistory, error) {
	if p.Product == "" {
		return nil, fmt.Errorf("product required")
	}
	if p.Metric == "" {
		p.Metric = models.MetricPrice
	}
	rows, err := uc.store.LoadObservations(ctx, domrepo.SeriesQuery{
		Product:  p.Product,
		Metric:   p.Metric,
		Platform: p.Platform,
		From:     p.From,
		To:       p.To,
		Limit:    p.Limit,
	})
	if err != nil {
		return nil, err
	}

	h := &models.SeriesHistory{
		Product: p.Product,
		Metric:  p.Metric,
		Series:  make(map[string][]models.Observation),
		Points:  len(rows),
	}
	for _, r := range rows {
		h.Series[r.Platform] = append(h.Series[r.Platform], models.Observation{Date: r.Date, Value: r.Value})
	}
	for _, obs := range h.Series {
		sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	}
	return h, nil
}

// Health checks the backing store.
func (uc *SeriesUseCase) Health(ctx context.Context) error {
	return uc.store.Health(ctx)
}
