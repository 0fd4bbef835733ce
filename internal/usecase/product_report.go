package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ShopScore/internal/domain/models"
	domrepo "ShopScore/internal/domain/repository"
	"ShopScore/internal/services/classifier"
	"ShopScore/internal/services/forecast"
	"ShopScore/internal/services/geo"
	"ShopScore/internal/services/scoring"
	"ShopScore/pkg/cache"
	"ShopScore/pkg/logger"
	"ShopScore/pkg/table"

	"github.com/google/uuid"
)

// ProductReportParams selects what to evaluate. Zero values take the
// use case defaults.
type ProductReportParams struct {
	Product     string   `json:"product"`
	Destination string   `json:"pin"`
	Platform    string   `json:"platform,omitempty"`
	WeightKg    float64  `json:"weight_kg,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty"`
	Horizon     int      `json:"horizon,omitempty"`
	Reliability *float64 `json:"reliability_weight,omitempty"`
	SkipCache   bool     `json:"skip_cache,omitempty"`
}

// ReportOption configures ProductReportUseCase.
type ReportOption func(*ProductReportUseCase)

// WithCache caches finished reports for ttl.
func WithCache(c cache.Service, ttl time.Duration) ReportOption {
	return func(uc *ProductReportUseCase) {
		uc.cache = c
		uc.cacheTTL = ttl
	}
}

// WithPublisher emits a ScoreEvent for every fresh report.
func WithPublisher(p domrepo.Publisher) ReportOption {
	return func(uc *ProductReportUseCase) { uc.publisher = p }
}

// WithSeries stores the prepared series of every fresh report.
func WithSeries(s *SeriesUseCase) ReportOption {
	return func(uc *ProductReportUseCase) { uc.series = s }
}

func WithReportMetrics(m domrepo.Metrics) ReportOption {
	return func(uc *ProductReportUseCase) {
		if m != nil {
			uc.metrics = m
		}
	}
}

func WithReportLogger(l *logger.Logger) ReportOption {
	return func(uc *ProductReportUseCase) {
		if l != nil {
			uc.logger = l
		}
	}
}

// WithDefaults sets the values used for unset params.
func WithDefaults(threshold float64, horizon int, weightKg float64) ReportOption {
	return func(uc *ProductReportUseCase) {
		if threshold >= 0 && threshold <= 1 {
			uc.threshold = threshold
		}
		if horizon > 0 {
			uc.horizon = horizon
		}
		if weightKg > 0 {
			uc.weightKg = weightKg
		}
	}
}

// WithTimeout bounds one evaluation.
func WithTimeout(d time.Duration) ReportOption {
	return func(uc *ProductReportUseCase) {
		if d > 0 {
			uc.timeout = d
		}
	}
}

// ProductReportUseCase evaluates a product across its four signals and
// aggregates them into one score.
type ProductReportUseCase struct {
	catalog  *Catalog
	detector *classifier.Detector
	price    *forecast.Forecaster
	sales    *forecast.Forecaster
	geo      *geo.Estimator
	agg      *scoring.Aggregator

	cache     cache.Service
	cacheTTL  time.Duration
	publisher domrepo.Publisher
	series    *SeriesUseCase
	metrics   domrepo.Metrics
	logger    *logger.Logger

	threshold float64
	horizon   int
	weightKg  float64
	timeout   time.Duration
	now       func() time.Time
}

func NewProductReportUseCase(
	catalog *Catalog,
	detector *classifier.Detector,
	price, sales *forecast.Forecaster,
	est *geo.Estimator,
	agg *scoring.Aggregator,
	opts ...ReportOption,
) *ProductReportUseCase {
	uc := &ProductReportUseCase{
		catalog:   catalog,
		detector:  detector,
		price:     price,
		sales:     sales,
		geo:       est,
		agg:       agg,
		metrics:   nopMetrics{},
		logger:    logger.Nop(),
		threshold: 0.5,
		horizon:   forecast.DefaultHorizon,
		weightKg:  1,
		timeout:   30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Products lists the catalog.
func (uc *ProductReportUseCase) Products() []models.Product {
	return uc.catalog.Products()
}

type seriesResult struct {
	series    map[string][]models.Observation
	forecasts map[string]models.Forecast
}

// Evaluate builds the full report. Leaf failures are reported in the
// report's Errors and their signals score neutral; only an unknown product,
// unreadable product table or invalid weights fail the call.
func (uc *ProductReportUseCase) Evaluate(ctx context.Context, p ProductReportParams) (*models.ProductReport, error) {
	start := uc.now()
	product, err := uc.catalog.Lookup(p.Product)
	if err != nil {
		return nil, err
	}
	p = uc.normalize(p, product)

	weights := uc.agg.Weights()
	if p.Reliability != nil {
		weights = weights.WithReliability(*p.Reliability)
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	key := reportKey(p)
	if uc.cache != nil && !p.SkipCache {
		var cached models.ProductReport
		if err := uc.cache.Get(ctx, key, &cached); err == nil {
			uc.logger.Debug("report cache hit", logger.String("product", p.Product), logger.String("key", key))
			return &cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	reviews, err := uc.catalog.Reviews(product.Name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", product.Name, err)
	}
	priceTable, priceErr := uc.catalog.SeriesTable(product.Name, models.MetricPrice)
	salesTable, salesErr := uc.catalog.SeriesTable(product.Name, models.MetricSales)
	platforms := dataPlatforms(reviews, priceTable)
	requested := matchPlatform(platforms, p.Platform)
	ecoPlatforms := platforms
	if requested != "" && !contains(platforms, requested) {
		ecoPlatforms = append(append([]string(nil), platforms...), requested)
	}

	report := &models.ProductReport{
		Product:     product.Name,
		Destination: p.Destination,
		GeneratedAt: start.UTC(),
		Errors:      map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 4)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.analyzeReviews(reviews, *p.Threshold)
		ch <- item{"reviews", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := forecastTable(ctx, uc.price, priceTable, priceErr, p.Horizon)
		ch <- item{"price_forecast", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := forecastTable(ctx, uc.sales, salesTable, salesErr, p.Horizon)
		ch <- item{"sales_forecast", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		ch <- item{"eco", uc.geo.RateAllPlatforms(p.Destination, ecoPlatforms, p.WeightKg), nil}
	}()

	go func() { wg.Wait(); close(ch) }()

	var priceSeries, salesSeries map[string][]models.Observation
	for it := range ch {
		if it.err != nil {
			if errors.Is(it.err, models.ErrUntrainedModel) {
				report.Degradations = append(report.Degradations, uc.degrade("classifier",
					"reviews", "model not trained, using neutral fake percentage"))
				continue
			}
			report.Errors[it.name] = it.err.Error()
			uc.metrics.RecordError(it.name)
			uc.logger.Warn("report signal failed",
				logger.String("product", product.Name),
				logger.String("signal", it.name),
				logger.Error(it.err))
			continue
		}
		switch it.name {
		case "reviews":
			report.Reviews = it.val.(*models.ReviewAnalysis)
		case "price_forecast":
			r := it.val.(seriesResult)
			report.PriceForecast, priceSeries = r.forecasts, r.series
		case "sales_forecast":
			r := it.val.(seriesResult)
			report.SalesForecast, salesSeries = r.forecasts, r.series
		case "eco":
			v := it.val.(models.EcoReport)
			report.Eco = &v
		}
	}

	rep := requested
	if rep == "" && len(platforms) > 0 {
		rep = platforms[0]
	}
	if rep == "" && report.Eco != nil && len(report.Eco.Platforms) > 0 {
		rep = report.Eco.Platforms[0].Platform
	}
	report.Platform = rep

	in := models.ScoreInput{
		FakePercentage: scoring.NeutralScore,
		PriceForecast:  pickForecast(report.PriceForecast, rep),
		SalesForecast:  pickForecast(report.SalesForecast, rep),
		Platform:       rep,
	}
	if report.Reviews != nil {
		in.FakePercentage = report.Reviews.Overall.Percentage
	}
	if report.Eco != nil {
		report.Degradations = append(report.Degradations, report.Eco.Degradations...)
		if e, ok := report.Eco.Lookup(rep); ok {
			in.EcoColor = e.Rating.Color
		}
	}
	if in.PriceForecast == nil {
		report.Degradations = append(report.Degradations, uc.degrade("forecast", "price forecast "+rep, "no forecast, using neutral stability score"))
	}
	if in.SalesForecast == nil {
		report.Degradations = append(report.Degradations, uc.degrade("forecast", "sales forecast "+rep, "no forecast, using neutral trend score"))
	}
	if _, known := scoring.Reputation(rep); !known {
		report.Degradations = append(report.Degradations, models.EstimationDegradedWarning{
			Subject: "platform " + rep,
			Reason:  fmt.Sprintf("unknown reputation, using default %.0f", scoring.DefaultReputation),
		})
	}

	score, err := uc.agg.ScoreWith(in, weights)
	if err != nil {
		return nil, err
	}
	report.Score = score

	names := platforms
	if len(names) == 0 && report.Eco != nil {
		for _, e := range report.Eco.Platforms {
			names = append(names, e.Platform)
		}
	}
	report.Platforms = platformInfos(names)
	if len(report.Errors) == 0 {
		report.Errors = nil
	}

	uc.ingest(ctx, product.Name, models.MetricPrice, priceSeries)
	uc.ingest(ctx, product.Name, models.MetricSales, salesSeries)
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, report, uc.cacheTTL); err != nil {
			uc.logger.Warn("report cache write failed", logger.String("key", key), logger.Error(err))
		}
	}
	uc.publish(ctx, report)

	took := uc.now().Sub(start)
	uc.metrics.RecordLatency("evaluate", took.Seconds())
	uc.logger.Info("product evaluated",
		logger.String("product", product.Name),
		logger.String("platform", rep),
		logger.Float64("overall", score.Overall),
		logger.String("tier", score.Tier),
		logger.Int("degradations", len(report.Degradations)),
		logger.Duration("took", took))
	return report, nil
}

// Classify analyzes an ad hoc batch of reviews. A nil threshold uses the default.
func (uc *ProductReportUseCase) Classify(reviews []models.Review, threshold *float64) (*models.ReviewAnalysis, error) {
	return uc.detector.Analyze(reviews, uc.thresholdOf(threshold))
}

// thresholdOf returns t when it lies in [0, 1], the default otherwise.
func (uc *ProductReportUseCase) thresholdOf(t *float64) float64 {
	if t == nil || *t < 0 || *t > 1 {
		return uc.threshold
	}
	return *t
}

// Eco rates platforms against a destination.
func (uc *ProductReportUseCase) Eco(destination string, platforms []string, weightKg float64) models.EcoReport {
	if weightKg <= 0 {
		weightKg = uc.weightKg
	}
	return uc.geo.RateAllPlatforms(destination, platforms, weightKg)
}

// Forecast projects one metric of a catalog product.
func (uc *ProductReportUseCase) Forecast(ctx context.Context, product string, metric models.Metric, horizon int) (map[string]models.Forecast, error) {
	p, err := uc.catalog.Lookup(product)
	if err != nil {
		return nil, err
	}
	f := uc.price
	if metric == models.MetricSales {
		f = uc.sales
	}
	if horizon <= 0 {
		horizon = uc.horizon
	}
	t, tErr := uc.catalog.SeriesTable(p.Name, metric)
	r, err := forecastTable(ctx, f, t, tErr, horizon)
	if err != nil {
		return nil, err
	}
	return r.forecasts, nil
}

func (uc *ProductReportUseCase) normalize(p ProductReportParams, product models.Product) ProductReportParams {
	p.Product = product.Name
	p.Destination = strings.TrimSpace(p.Destination)
	p.Platform = strings.TrimSpace(p.Platform)
	th := uc.thresholdOf(p.Threshold)
	p.Threshold = &th
	if p.Horizon <= 0 {
		p.Horizon = uc.horizon
	}
	if p.WeightKg <= 0 {
		p.WeightKg = uc.weightKg
	}
	return p
}

func (uc *ProductReportUseCase) analyzeReviews(t *table.Table, threshold float64) (*models.ReviewAnalysis, error) {
	reviews, err := classifier.ReviewsFromTable(t)
	if err != nil {
		return nil, err
	}
	return uc.detector.Analyze(reviews, threshold)
}

func forecastTable(ctx context.Context, f *forecast.Forecaster, t *table.Table, tErr error, horizon int) (seriesResult, error) {
	if tErr != nil {
		return seriesResult{}, tErr
	}
	series, _, err := f.Prepare(t)
	if err != nil {
		return seriesResult{}, err
	}
	fc, err := f.Forecast(ctx, series, horizon)
	if err != nil {
		return seriesResult{}, err
	}
	return seriesResult{series: series, forecasts: fc}, nil
}

func (uc *ProductReportUseCase) ingest(ctx context.Context, product string, metric models.Metric, series map[string][]models.Observation) {
	if uc.series == nil || len(series) == 0 {
		return
	}
	n, err := uc.series.Ingest(ctx, product, metric, series)
	if err != nil {
		uc.metrics.RecordError("ingest")
		uc.logger.Warn("series ingest failed", logger.String("product", product), logger.Error(err))
		return
	}
	uc.logger.Debug("series ingested", logger.String("product", product), logger.String("metric", string(metric)), logger.Int("rows", n))
}

func (uc *ProductReportUseCase) publish(ctx context.Context, r *models.ProductReport) {
	if uc.publisher == nil {
		return
	}
	ev := models.ScoreEvent{
		ID:          uuid.NewString(),
		Product:     r.Product,
		Platform:    r.Platform,
		Destination: r.Destination,
		Overall:     r.Score.Overall,
		Tier:        r.Score.Tier,
		Breakdown:   r.Score.Breakdown,
		Timestamp:   r.GeneratedAt,
	}
	if err := uc.publisher.PublishScore(ctx, ev); err != nil {
		uc.metrics.RecordError("publish")
		uc.logger.Warn("score event publish failed", logger.String("product", r.Product), logger.Error(err))
	}
}

func (uc *ProductReportUseCase) degrade(kind, subject, reason string) models.EstimationDegradedWarning {
	uc.metrics.RecordDegraded(kind)
	uc.logger.Warn("report signal degraded", logger.String("subject", subject), logger.String("reason", reason))
	return models.EstimationDegradedWarning{Subject: subject, Reason: reason}
}

// dataPlatforms lists the real platforms of a product in first-appearance
// order: the series table's platform column, else the review table's.
func dataPlatforms(reviews, series *table.Table) []string {
	if series != nil {
		if keys, err := forecast.DetectColumns(series, models.MetricPrice); err == nil && keys.Platform != "" {
			return forecast.PlatformOrder(series, keys)
		}
	}
	if reviews != nil {
		if col, ok := reviews.Resolve("platform", "marketplace", "source", "site"); ok {
			return reviews.Distinct(col)
		}
	}
	return nil
}

// matchPlatform returns the data's spelling of name, or name itself.
func matchPlatform(platforms []string, name string) string {
	for _, p := range platforms {
		if strings.EqualFold(p, name) {
			return p
		}
	}
	return name
}

func pickForecast(fc map[string]models.Forecast, platform string) *models.Forecast {
	if f, ok := fc[platform]; ok {
		return &f
	}
	if len(fc) == 1 {
		if f, ok := fc[forecast.SyntheticPlatform]; ok {
			return &f
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func reportKey(p ProductReportParams) string {
	rel, th := "-", "-"
	if p.Threshold != nil {
		th = fmt.Sprintf("%g", *p.Threshold)
	}
	if p.Reliability != nil {
		rel = fmt.Sprintf("%g", *p.Reliability)
	}
	raw := fmt.Sprintf("%s|%s|%s|%g|%s|%d|%s",
		strings.ToLower(p.Product), p.Destination, strings.ToLower(p.Platform), p.WeightKg, th, p.Horizon, rel)
	return cache.GenerateKeyWithParams("report", cache.HashKey(raw))
}

type nopMetrics struct{}

func (nopMetrics) RecordScore(string, float64) {}
func (nopMetrics) RecordFitFailure(string, string) {}
func (nopMetrics) RecordDegraded(string) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLatency(string, float64) {}
