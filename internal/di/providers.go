package di

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"ShopScore/internal/domain/models"
	"ShopScore/internal/domain/repository"
	domsvc "ShopScore/internal/domain/service"
	"ShopScore/internal/handler/api"
	internalrepo "ShopScore/internal/repository"
	"ShopScore/internal/service/ratelimit"
	"ShopScore/internal/services/analytics"
	"ShopScore/internal/services/classifier"
	"ShopScore/internal/services/forecast"
	"ShopScore/internal/services/geo"
	"ShopScore/internal/services/scoring"
	"ShopScore/internal/usecase"
	"ShopScore/pkg/cache"
	pkgch "ShopScore/pkg/clickhouse"
	"ShopScore/pkg/config"
	xhttp "ShopScore/pkg/http"
	pkgkafka "ShopScore/pkg/kafka"
	applogger "ShopScore/pkg/logger"
	"ShopScore/pkg/metrics"
	"ShopScore/pkg/queue"
	"ShopScore/pkg/server"

	"go.uber.org/multierr"
)

// Forecasters groups the price and sales forecasters, which share a type.
type Forecasters struct {
	Price *forecast.Forecaster
	Sales *forecast.Forecaster
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideCatalog creates the product catalog over the data directory.
func ProvideCatalog(cfg *config.Config, l *applogger.Logger) *usecase.Catalog {
	return usecase.NewCatalog(cfg, l)
}

// ProvideDetector creates the review classifier and trains it when training data exists.
func ProvideDetector(cfg *config.Config, cat *usecase.Catalog, l *applogger.Logger) (*classifier.Detector, error) {
	det := classifier.NewDetector(l,
		classifier.WithMaxFeatures(cfg.Classifier.MaxFeatures),
		classifier.WithEpochs(cfg.Classifier.Epochs),
		classifier.WithLearningRate(cfg.Classifier.LearningRate),
		classifier.WithL2(cfg.Classifier.L2),
	).WithSuspicious(cfg.Classifier.SuspiciousThreshold, cfg.Classifier.SuspiciousExamples)
	if err := usecase.TrainDetector(cat, det, l); err != nil {
		return nil, err
	}
	return det, nil
}

// ProvideSeriesModel returns the local seasonal model, fronted by the remote
// forecasting service when one is configured.
func ProvideSeriesModel(cfg *config.Config, l *applogger.Logger) domsvc.SeriesModel {
	local := forecast.NewSeasonalModel(cfg.Forecast.IntervalWidth)
	base := analytics.NewHTTPServiceBase(cfg)
	if !base.Configured() {
		return local
	}
	l.Info("remote forecasting enabled", applogger.String("url", cfg.Analytics.ForecastServiceURL))
	return analytics.NewHTTPSeriesModel(base, cfg.Forecast.IntervalWidth, local, l)
}

// ProvideForecasters creates the price and sales forecasters.
func ProvideForecasters(cfg *config.Config, model domsvc.SeriesModel, m repository.Metrics, l *applogger.Logger) Forecasters {
	opts := []forecast.Option{
		forecast.WithModel(model),
		forecast.WithConcurrency(cfg.Forecast.Concurrency),
		forecast.WithFitTimeout(cfg.Forecast.FitTimeout),
		forecast.WithLogger(l),
		forecast.WithMetrics(m),
	}
	return Forecasters{Price: forecast.NewPrice(opts...), Sales: forecast.NewSales(opts...)}
}

// ProvideEstimator creates the emissions estimator. Configured warehouses
// are registered first; the warehouse table, when present, overrides them.
func ProvideEstimator(cfg *config.Config, cat *usecase.Catalog, m repository.Metrics, l *applogger.Logger) (*geo.Estimator, error) {
	est := geo.New(
		geo.WithWarehouses(cfg.Geo.Warehouses),
		geo.WithDefaultOrigin(cfg.Geo.DefaultOrigin),
		geo.WithDefaultPlatforms(cfg.Geo.DefaultPlatforms),
		geo.WithLogger(l),
		geo.WithMetrics(m),
	)
	t, err := cat.Warehouses()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		l.Debug("no warehouse table, using configured origins")
	case err != nil:
		return nil, fmt.Errorf("warehouse table: %w", err)
	default:
		n, err := est.LoadWarehouses(t)
		if err != nil {
			return nil, fmt.Errorf("warehouse table: %w", err)
		}
		l.Info("warehouses loaded", applogger.Int("count", n))
	}
	return est, nil
}

// ProvideAggregator creates the score aggregator from the configured weights.
func ProvideAggregator(cfg *config.Config, m repository.Metrics, l *applogger.Logger) (*scoring.Aggregator, error) {
	w := cfg.Scoring.Weights
	return scoring.New(
		scoring.WithWeights(models.Weights{
			FakeReviews:         w.FakeReviews,
			PriceStability:      w.PriceStability,
			SalesTrend:          w.SalesTrend,
			EcoFriendliness:     w.EcoFriendliness,
			PlatformReliability: w.PlatformReliability,
		}),
		scoring.WithLookback(cfg.Forecast.Lookback),
		scoring.WithLogger(l),
		scoring.WithMetrics(m),
	)
}

// ProvideRedisCache connects to Redis. It returns nil when Redis is disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideCache returns a memory cache in front of Redis, or memory alone.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	if rc != nil {
		return cache.NewLayeredCache(rc, cache.WithLayeredMemoryTTL(time.Minute))
	}
	return cache.NewMemoryCache(cache.WithMemoryTTL(cfg.Redis.CacheTTL))
}

// ProvideQueue returns the Redis job queue, or an in-process one without Redis.
func ProvideQueue(cfg *config.Config, rc *cache.RedisCache, l *applogger.Logger) queue.Queue {
	qcfg := &queue.QueueConfig{
		Workers:    cfg.Redis.Workers,
		RetryLimit: cfg.Redis.MaxRetries,
		RetryDelay: 5 * time.Second,
		JobTimeout: time.Minute,
	}
	ql := l.With(applogger.String("component", "queue"))
	if rc != nil {
		return queue.NewRedisQueue(ql, qcfg, rc.Client(), queue.WithKeyPrefix("shopscore:queue:"+cfg.Redis.Queue))
	}
	return queue.NewMemoryQueue(ql, qcfg)
}

// ProvideClickHouseClient connects to ClickHouse. It returns nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSeriesStore returns the ClickHouse series store with its schema
// initialized, or an in-memory store without ClickHouse.
func ProvideSeriesStore(ch *pkgch.Client, l *applogger.Logger) (repository.SeriesStore, error) {
	if ch == nil {
		return internalrepo.NewMemorySeriesStore(), nil
	}
	store := internalrepo.NewCHSeriesStore(ch, l)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer. It returns nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	p := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(p.MaxAttempts),
		pkgkafka.WithBatching(p.BatchSize, p.BatchBytes, p.Linger),
		pkgkafka.WithTimeouts(p.WriteTimeout, p.ReadTimeout),
		pkgkafka.WithAsync(p.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideScorePublisher publishes score events to Kafka, or drops them.
func ProvideScorePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaScorePublisher(producer, cfg.Kafka.Topic)
}

// ProvideSeriesUseCase creates the series history use case.
func ProvideSeriesUseCase(store repository.SeriesStore, l *applogger.Logger) *usecase.SeriesUseCase {
	return usecase.NewSeriesUseCase(store, l)
}

// ProvideProductReportUseCase creates the product report use case.
func ProvideProductReportUseCase(
	cfg *config.Config,
	cat *usecase.Catalog,
	det *classifier.Detector,
	fc Forecasters,
	est *geo.Estimator,
	agg *scoring.Aggregator,
	c cache.Service,
	pub repository.Publisher,
	series *usecase.SeriesUseCase,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ProductReportUseCase {
	return usecase.NewProductReportUseCase(cat, det, fc.Price, fc.Sales, est, agg,
		usecase.WithCache(c, cfg.Redis.CacheTTL),
		usecase.WithPublisher(pub),
		usecase.WithSeries(series),
		usecase.WithReportMetrics(m),
		usecase.WithReportLogger(l),
		usecase.WithDefaults(cfg.Classifier.FakeThreshold, cfg.Forecast.Periods, cfg.Geo.DefaultWeightKg),
	)
}

// ProvideScoreSubmitter registers the score job on q and returns its submitter.
func ProvideScoreSubmitter(
	cfg *config.Config,
	q queue.Queue,
	reports *usecase.ProductReportUseCase,
	cat *usecase.Catalog,
	c cache.Service,
	l *applogger.Logger,
) *usecase.ScoreSubmitter {
	q.RegisterJob(usecase.NewScoreJob(reports, c, cfg.Redis.CacheTTL, l))
	return usecase.NewScoreSubmitter(q, cat, c, l)
}

// ProvideRateLimiter creates the per-client API limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
}

// ProvideScoreHandler creates the scoring HTTP handler.
func ProvideScoreHandler(
	l *applogger.Logger,
	reports *usecase.ProductReportUseCase,
	jobs *usecase.ScoreSubmitter,
	series *usecase.SeriesUseCase,
	limiter *ratelimit.Limiter,
) *api.ScoreEchoHandler {
	return api.NewScoreEchoHandler(l, reports, jobs, series, limiter)
}

// ProvideHTTPServer creates the echo server with every handler registered.
func ProvideHTTPServer(cfg *config.Config, h *api.ScoreEchoHandler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp assembles the application lifecycle: the queue starts before
// the HTTP server, and infrastructure clients close after both stop. The
// cache owns the Redis client.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	q queue.Queue,
	limiter *ratelimit.Limiter,
	c cache.Service,
	ch *pkgch.Client,
	store repository.SeriesStore,
	pub repository.Publisher,
) *server.App {
	opts := []server.Option{
		server.WithComponent("queue", q),
		server.WithComponent("http", srv),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout + 5*time.Second),
		server.WithCloser("publisher", pub.Close),
		server.WithCloser("series store", store.Close),
		server.WithCloser("cache", c.Close),
	}
	if ch != nil {
		opts = append(opts, server.WithCloser("clickhouse", ch.Close))
	}
	if limiter.Enabled() {
		opts = append(opts, server.WithTicker("rate limit sweep", time.Minute, func() {
			if n := limiter.Sweep(); n > 0 {
				l.Debug("rate limit buckets swept", applogger.Int("count", n))
			}
		}))
	}
	return server.New(l, opts...)
}

// Reporter is the one-shot evaluation graph used by the CLI.
type Reporter struct {
	Reports   *usecase.ProductReportUseCase
	publisher repository.Publisher
	cache     cache.Service
	ch        *pkgch.Client
}

// ProvideReporter bundles the report use case with the resources it holds.
func ProvideReporter(reports *usecase.ProductReportUseCase, pub repository.Publisher, c cache.Service, ch *pkgch.Client) *Reporter {
	return &Reporter{Reports: reports, publisher: pub, cache: c, ch: ch}
}

// Close flushes the publisher and releases the cache and ClickHouse client.
func (r *Reporter) Close() error {
	err := multierr.Combine(r.publisher.Close(), r.cache.Close())
	if r.ch != nil {
		err = multierr.Append(err, r.ch.Close())
	}
	return err
}
