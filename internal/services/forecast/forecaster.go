package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"ShopScore/internal/domain/models"
	"ShopScore/internal/domain/repository"
	domsvc "ShopScore/internal/domain/service"
	"ShopScore/pkg/logger"
	"ShopScore/pkg/table"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// DefaultHorizon is the number of future daily periods when none is given.
const DefaultHorizon = 90

// Option configures a Forecaster.
type Option func(*Forecaster)

// Forecaster fits one model per platform series of a single metric.
type Forecaster struct {
	metric      models.Metric
	policy      Policy
	model       domsvc.SeriesModel
	concurrency int
	fitTimeout  time.Duration
	clamp       bool
	logger      *logger.Logger
	metrics     repository.Metrics
}

// WithModel replaces the local seasonal model.
func WithModel(m domsvc.SeriesModel) Option {
	return func(f *Forecaster) {
		if m != nil {
			f.model = m
		}
	}
}

// WithConcurrency bounds the number of platforms fitted at once.
func WithConcurrency(n int) Option {
	return func(f *Forecaster) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithFitTimeout bounds each platform fit. A timed-out platform is dropped.
func WithFitTimeout(d time.Duration) Option {
	return func(f *Forecaster) { f.fitTimeout = d }
}

// WithClampNonNegative floors point estimates and bounds at zero.
func WithClampNonNegative(on bool) Option {
	return func(f *Forecaster) { f.clamp = on }
}

func WithLogger(l *logger.Logger) Option {
	return func(f *Forecaster) {
		if l != nil {
			f.logger = l
		}
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(f *Forecaster) { f.metrics = m }
}

// New creates a forecaster for metric. Sales series are summed per date and
// clamped; anything else keeps the last value and is left unclamped.
func New(metric models.Metric, opts ...Option) *Forecaster {
	f := &Forecaster{
		metric:      metric,
		policy:      PolicyLast,
		model:       NewSeasonalModel(DefaultIntervalWidth),
		concurrency: 4,
		logger:      logger.Nop(),
	}
	if metric == models.MetricSales {
		f.policy = PolicySum
		f.clamp = true
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewPrice creates the price forecaster.
func NewPrice(opts ...Option) *Forecaster { return New(models.MetricPrice, opts...) }

// NewSales creates the sales forecaster.
func NewSales(opts ...Option) *Forecaster { return New(models.MetricSales, opts...) }

func (f *Forecaster) Metric() models.Metric { return f.metric }

func (f *Forecaster) Policy() Policy { return f.policy }

// Model returns the name of the fitting model.
func (f *Forecaster) Model() string { return f.model.Name() }

// Prepare detects the columns of t and builds its per-platform series.
func (f *Forecaster) Prepare(t *table.Table) (map[string][]models.Observation, ColumnKeys, error) {
	keys, err := DetectColumns(t, f.metric)
	if err != nil {
		return nil, keys, err
	}
	return Prepare(t, keys, f.policy), keys, nil
}

// Forecast fits every platform independently. Failed fits are logged and
// dropped; an error is returned only when no platform could be forecast.
func (f *Forecaster) Forecast(ctx context.Context, series map[string][]models.Observation, horizon int) (map[string]models.Forecast, error) {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if len(series) == 0 {
		return nil, &models.InsufficientDataError{Reason: fmt.Sprintf("no %s series with 2 or more dates", f.metric)}
	}

	platforms := make([]string, 0, len(series))
	for p := range series {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	var (
		mu       sync.Mutex
		out      = make(map[string]models.Forecast, len(series))
		failures error
	)
	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for _, platform := range platforms {
		obs := series[platform]
		g.Go(func() error {
			fc, err := f.fitOne(ctx, platform, obs, horizon)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = multierr.Append(failures, fmt.Errorf("%s: %w", platform, err))
				f.logger.Warn("forecast fit failed, platform dropped",
					logger.String("metric", string(f.metric)),
					logger.String("platform", platform),
					logger.Int("points", len(obs)),
					logger.Error(err))
				if f.metrics != nil {
					f.metrics.RecordFitFailure(string(f.metric), platform)
				}
				return nil
			}
			out[platform] = fc
			return nil
		})
	}
	_ = g.Wait()

	if len(out) == 0 {
		return nil, &models.InsufficientDataError{Points: len(series), Reason: fmt.Sprintf("every %s platform fit failed", f.metric), Cause: failures}
	}
	return out, nil
}

func (f *Forecaster) fitOne(ctx context.Context, platform string, obs []models.Observation, horizon int) (models.Forecast, error) {
	fitCtx := ctx
	if f.fitTimeout > 0 {
		var cancel context.CancelFunc
		fitCtx, cancel = context.WithTimeout(ctx, f.fitTimeout)
		defer cancel()
	}

	start := time.Now()
	fc, err := f.model.Fit(fitCtx, platform, obs, horizon)
	if f.metrics != nil {
		f.metrics.RecordLatency("forecast_fit", time.Since(start).Seconds())
	}
	if err != nil {
		return models.Forecast{}, err
	}
	if err := fitCtx.Err(); err != nil {
		return models.Forecast{}, err
	}
	if want := len(obs) + horizon; len(fc.Points) != want {
		return models.Forecast{}, fmt.Errorf("model %s returned %d points, want %d", f.model.Name(), len(fc.Points), want)
	}
	for _, p := range fc.Points {
		if !finite(p.Yhat) || !finite(p.Lower) || !finite(p.Upper) {
			return models.Forecast{}, fmt.Errorf("model %s returned a non-finite estimate at %s", f.model.Name(), p.Date.Format("2006-01-02"))
		}
	}

	fc.Platform = platform
	fc.Metric = f.metric
	fc.History = len(obs)
	fc.Horizon = horizon
	if fc.Model == "" {
		fc.Model = f.model.Name()
	}
	if f.clamp {
		for i := range fc.Points {
			fc.Points[i].Yhat = math.Max(0, fc.Points[i].Yhat)
			fc.Points[i].Lower = math.Max(0, fc.Points[i].Lower)
			fc.Points[i].Upper = math.Max(0, fc.Points[i].Upper)
		}
	}
	return fc, nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
