package geo

import (
	"sort"
	"strings"
	"sync"

	"ShopScore/internal/domain/models"
	"ShopScore/internal/domain/repository"
	"ShopScore/pkg/logger"
	"ShopScore/pkg/table"
)

const DefaultOrigin = "110001"

// DefaultPlatforms are rated when no platform is given and no warehouse is registered.
var DefaultPlatforms = []string{"Amazon", "Flipkart", "eBay", "Myntra", "Ajio"}

// positionalPlatforms names warehouse rows of a table without a platform column.
var positionalPlatforms = []string{"Amazon", "Flipkart", "eBay"}

var (
	warehousePinColumns      = []string{"pin", "pincode", "pin_code", "warehouse_pin", "warehouse_zip_code", "warehouse_zipcode"}
	warehousePlatformColumns = []string{"platform", "marketplace", "seller"}
)

// Option configures an Estimator.
type Option func(*Estimator)

// Estimator rates shipments from platform warehouses to a destination.
type Estimator struct {
	mu            sync.RWMutex
	warehouses    map[string]warehouse
	order         []string
	defaultOrigin string
	platforms     []string
	logger        *logger.Logger
	metrics       repository.Metrics
}

type warehouse struct {
	platform string
	pin      string
}

// WithWarehouses registers platform origins, in platform name order.
func WithWarehouses(origins map[string]string) Option {
	return func(e *Estimator) {
		names := make([]string, 0, len(origins))
		for name := range origins {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			e.register(name, origins[name])
		}
	}
}

func WithDefaultOrigin(pin string) Option {
	return func(e *Estimator) {
		if strings.TrimSpace(pin) != "" {
			e.defaultOrigin = strings.TrimSpace(pin)
		}
	}
}

func WithDefaultPlatforms(platforms []string) Option {
	return func(e *Estimator) {
		if len(platforms) > 0 {
			e.platforms = append([]string(nil), platforms...)
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(e *Estimator) { e.metrics = m }
}

func New(opts ...Option) *Estimator {
	e := &Estimator{
		warehouses:    make(map[string]warehouse),
		defaultOrigin: DefaultOrigin,
		platforms:     DefaultPlatforms,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Estimator) register(platform, pin string) {
	platform, pin = strings.TrimSpace(platform), strings.TrimSpace(pin)
	if platform == "" || pin == "" {
		return
	}
	key := strings.ToLower(platform)
	if _, ok := e.warehouses[key]; !ok {
		e.order = append(e.order, platform)
	}
	e.warehouses[key] = warehouse{platform: platform, pin: pin}
}

// LoadWarehouses registers origins from a table. Without a platform column
// rows are assigned to Amazon, Flipkart and eBay in order. It returns the
// number of origins registered.
func (e *Estimator) LoadWarehouses(t *table.Table) (int, error) {
	pinCol, ok := t.Resolve(warehousePinColumns...)
	if !ok {
		return 0, &models.SchemaError{Table: t.Name, Wanted: warehousePinColumns, Columns: t.Columns}
	}
	platformCol, hasPlatform := t.Resolve(warehousePlatformColumns...)

	e.mu.Lock()
	defer e.mu.Unlock()
	var n int
	for i := 0; i < t.Len(); i++ {
		var platform string
		switch {
		case hasPlatform:
			platform = t.Value(i, platformCol)
		case i < len(positionalPlatforms):
			platform = positionalPlatforms[i]
		default:
			continue
		}
		pin := t.Value(i, pinCol)
		if platform == "" || pin == "" {
			continue
		}
		e.register(platform, pin)
		n++
	}
	e.logger.Info("warehouses loaded", logger.String("table", t.Name), logger.Int("count", n))
	return n, nil
}

// Origin returns the warehouse pin of platform, or the default origin.
func (e *Estimator) Origin(platform string) (pin string, registered bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if w, ok := e.warehouses[strings.ToLower(strings.TrimSpace(platform))]; ok {
		return w.pin, true
	}
	return e.defaultOrigin, false
}

// Platforms returns the registered warehouse platforms, or the defaults when none are registered.
func (e *Estimator) Platforms() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.order) > 0 {
		return append([]string(nil), e.order...)
	}
	return append([]string(nil), e.platforms...)
}

// Estimate computes the emissions of one shipment. An empty mode is chosen from distance.
func (e *Estimator) Estimate(origin, destination string, weightKg float64, mode models.TransportMode) models.EmissionEstimate {
	km := Distance(origin, destination)
	if mode == "" {
		mode = ModeForDistance(km)
	}
	kg := Emissions(km, mode, weightKg)
	return models.EmissionEstimate{
		Origin:      strings.TrimSpace(origin),
		Destination: strings.TrimSpace(destination),
		DistanceKm:  km,
		Mode:        mode,
		WeightKg:    weightKg,
		EmissionsKg: kg,
		Rating:      Rate(kg),
	}
}

// Rate buckets an emissions mass.
func (e *Estimator) Rate(kg float64) models.EcoRating { return Rate(kg) }

// RateAllPlatforms rates every platform against destination, in the given
// order. Unregistered platforms ship from the default origin; heuristic
// coordinates and default origins are reported as degradations.
func (e *Estimator) RateAllPlatforms(destination string, platforms []string, weightKg float64) models.EcoReport {
	if len(platforms) == 0 {
		platforms = e.Platforms()
	}
	report := models.EcoReport{
		Destination: strings.TrimSpace(destination),
		Platforms:   make([]models.PlatformEmission, 0, len(platforms)),
	}
	if _, exact := Resolve(destination); !exact {
		report.Degradations = append(report.Degradations, e.degrade("destination "+report.Destination, "unknown code, using hashed coordinates"))
	}

	bestKg := 0.0
	for _, platform := range platforms {
		origin, registered := e.Origin(platform)
		if !registered {
			report.Degradations = append(report.Degradations, e.degrade("platform "+platform, "no registered warehouse, using default origin "+origin))
		} else if _, exact := Resolve(origin); !exact {
			report.Degradations = append(report.Degradations, e.degrade("origin "+origin, "unknown code, using hashed coordinates"))
		}
		est := e.Estimate(origin, destination, weightKg, "")
		report.Platforms = append(report.Platforms, models.PlatformEmission{Platform: platform, EmissionEstimate: est})

		if report.Best == "" || est.EmissionsKg < bestKg || (est.EmissionsKg == bestKg && platform < report.Best) {
			report.Best, bestKg = platform, est.EmissionsKg
		}
	}
	return report
}

func (e *Estimator) degrade(subject, reason string) models.EstimationDegradedWarning {
	e.logger.Warn("emission estimate degraded", logger.String("subject", subject), logger.String("reason", reason))
	if e.metrics != nil {
		e.metrics.RecordDegraded("geo")
	}
	return models.EstimationDegradedWarning{Subject: subject, Reason: reason}
}
