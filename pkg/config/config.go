package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"ShopScore/pkg/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Product is one entry of the product catalog.
type Product struct {
	Name     string `yaml:"name"`
	File     string `yaml:"file"`
	Category string `yaml:"category"`
}

// Weights mirrors the scoring category weights.
type Weights struct {
	FakeReviews         float64 `yaml:"fake_reviews"`
	PriceStability      float64 `yaml:"price_stability"`
	SalesTrend          float64 `yaml:"sales_trend"`
	EcoFriendliness     float64 `yaml:"eco_friendliness"`
	PlatformReliability float64 `yaml:"platform_reliability"`
}

func (w Weights) sum() float64 {
	return w.FakeReviews + w.PriceStability + w.SalesTrend + w.EcoFriendliness + w.PlatformReliability
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		RateLimit       struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Logger  logger.Config `yaml:"logger"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Data struct {
		Dir               string    `yaml:"dir"`
		TrainingFiles     []string  `yaml:"training_files"`
		CrossPlatformFile string    `yaml:"cross_platform_file"`
		WarehouseFile     string    `yaml:"warehouse_file"`
		Products          []Product `yaml:"products"`
	} `yaml:"data"`
	Classifier struct {
		MaxFeatures         int     `yaml:"max_features"`
		FakeThreshold       float64 `yaml:"fake_threshold"`
		SuspiciousThreshold float64 `yaml:"suspicious_threshold"`
		SuspiciousExamples  int     `yaml:"suspicious_examples"`
		Epochs              int     `yaml:"epochs"`
		LearningRate        float64 `yaml:"learning_rate"`
		L2                  float64 `yaml:"l2"`
	} `yaml:"classifier"`
	Forecast struct {
		Periods       int           `yaml:"periods"`
		IntervalWidth float64       `yaml:"interval_width"`
		Lookback      int           `yaml:"lookback"`
		Concurrency   int           `yaml:"concurrency"`
		FitTimeout    time.Duration `yaml:"fit_timeout"`
	} `yaml:"forecast"`
	Geo struct {
		DefaultOrigin    string            `yaml:"default_origin"`
		DefaultPlatforms []string          `yaml:"default_platforms"`
		DefaultWeightKg  float64           `yaml:"default_weight_kg"`
		Warehouses       map[string]string `yaml:"warehouses"`
	} `yaml:"geo"`
	Scoring struct {
		Weights Weights `yaml:"weights"`
	} `yaml:"scoring"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled    bool          `yaml:"enabled"`
		Addr       string        `yaml:"addr"`
		Password   string        `yaml:"password"`
		DB         int           `yaml:"db"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
		Queue      string        `yaml:"queue"`
		Workers    int           `yaml:"workers"`
		MaxRetries int           `yaml:"max_retries"`
	} `yaml:"redis"`
	Analytics struct {
		ForecastServiceURL string        `yaml:"forecast_service_url"`
		Timeout            time.Duration `yaml:"timeout"`
		Retries            int           `yaml:"retries"`
	} `yaml:"analytics"`
}

// Load reads, defaults and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Parse decodes YAML and fills unset fields with defaults. It does not validate.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

// LoadWithEnv loads .env (when present), the YAML file, then applies
// environment overrides and validates the result.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("SHOPSCORE_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("FORECAST_SERVICE_URL"); v != "" {
		c.Analytics.ForecastServiceURL = v
	}
	if v := getenv("DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := getenv("FAKE_REVIEW_THRESHOLD"); v != "" {
		th, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FAKE_REVIEW_THRESHOLD: %w", err)
		}
		c.Classifier.FakeThreshold = th
	}
	if v := getenv("FORECAST_PERIODS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FORECAST_PERIODS: %w", err)
		}
		c.Forecast.Periods = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	if len(c.Data.TrainingFiles) == 0 {
		c.Data.TrainingFiles = []string{"model training.csv", "model_training.csv", "model training data.csv"}
	}
	if c.Data.CrossPlatformFile == "" {
		c.Data.CrossPlatformFile = "cross_platform_products.csv"
	}
	if c.Classifier.MaxFeatures == 0 {
		c.Classifier.MaxFeatures = 100
	}
	if c.Classifier.FakeThreshold == 0 {
		c.Classifier.FakeThreshold = 0.5
	}
	if c.Classifier.SuspiciousThreshold == 0 {
		c.Classifier.SuspiciousThreshold = 0.7
	}
	if c.Classifier.SuspiciousExamples == 0 {
		c.Classifier.SuspiciousExamples = 3
	}
	if c.Forecast.Periods == 0 {
		c.Forecast.Periods = 90
	}
	if c.Forecast.IntervalWidth == 0 {
		c.Forecast.IntervalWidth = 0.95
	}
	if c.Forecast.Lookback == 0 {
		c.Forecast.Lookback = 30
	}
	if c.Forecast.Concurrency == 0 {
		c.Forecast.Concurrency = 4
	}
	if c.Geo.DefaultOrigin == "" {
		c.Geo.DefaultOrigin = "110001"
	}
	if len(c.Geo.DefaultPlatforms) == 0 {
		c.Geo.DefaultPlatforms = []string{"Amazon", "Flipkart", "eBay", "Myntra", "Ajio"}
	}
	if c.Geo.DefaultWeightKg == 0 {
		c.Geo.DefaultWeightKg = 1.0
	}
	if c.Scoring.Weights == (Weights{}) {
		c.Scoring.Weights = Weights{
			FakeReviews:         0.25,
			PriceStability:      0.20,
			SalesTrend:          0.20,
			EcoFriendliness:     0.20,
			PlatformReliability: 0.15,
		}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "shopscore.scores"
	}
	if c.Redis.Queue == "" {
		c.Redis.Queue = "scores"
	}
	if c.Redis.Workers == 0 {
		c.Redis.Workers = 2
	}
	if c.Redis.CacheTTL == 0 {
		c.Redis.CacheTTL = 10 * time.Minute
	}
	if c.Analytics.Timeout == 0 {
		c.Analytics.Timeout = 5 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	for name, th := range map[string]float64{
		"classifier.fake_threshold":       c.Classifier.FakeThreshold,
		"classifier.suspicious_threshold": c.Classifier.SuspiciousThreshold,
	} {
		if th < 0 || th > 1 {
			return fmt.Errorf("%s must be in [0,1], got %g", name, th)
		}
	}
	if c.Forecast.Periods <= 0 {
		return fmt.Errorf("forecast.periods must be positive")
	}
	if c.Forecast.Lookback <= 0 {
		return fmt.Errorf("forecast.lookback must be positive")
	}
	if w := c.Forecast.IntervalWidth; w <= 0 || w >= 1 {
		return fmt.Errorf("forecast.interval_width must be in (0,1), got %g", w)
	}
	w := c.Scoring.Weights
	for _, v := range []float64{w.FakeReviews, w.PriceStability, w.SalesTrend, w.EcoFriendliness, w.PlatformReliability} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("scoring.weights must be non-negative")
		}
	}
	if s := w.sum(); math.Abs(s-1) > 1e-6 {
		return fmt.Errorf("scoring.weights must sum to 1, got %g", s)
	}
	if c.Geo.DefaultWeightKg <= 0 {
		return fmt.Errorf("geo.default_weight_kg must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	seen := make(map[string]struct{}, len(c.Data.Products))
	for _, p := range c.Data.Products {
		if p.Name == "" || p.File == "" {
			return fmt.Errorf("data.products entries need name and file")
		}
		key := strings.ToLower(p.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("data.products: duplicate product %q", p.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}
