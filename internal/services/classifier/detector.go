package classifier

import (
	"sync"
	"sync/atomic"
	"time"

	"ShopScore/internal/domain/models"
	"ShopScore/pkg/logger"
	"ShopScore/pkg/table"
)

const (
	DefaultSuspiciousThreshold = 0.7
	DefaultSuspiciousLimit     = 3
)

// Detector holds the current model. Training swaps the model atomically so
// predictions running concurrently keep the model they started with.
type Detector struct {
	model  atomic.Pointer[Model]
	mu     sync.Mutex
	opts   []TrainOption
	logger *logger.Logger

	suspiciousThreshold float64
	suspiciousLimit     int
}

// NewDetector creates an untrained detector.
func NewDetector(log *logger.Logger, opts ...TrainOption) *Detector {
	if log == nil {
		log = logger.Nop()
	}
	return &Detector{
		opts:                opts,
		logger:              log,
		suspiciousThreshold: DefaultSuspiciousThreshold,
		suspiciousLimit:     DefaultSuspiciousLimit,
	}
}

// WithSuspicious sets how Analyze picks example reviews. Call before use.
func (d *Detector) WithSuspicious(threshold float64, limit int) *Detector {
	if threshold > 0 && threshold <= 1 {
		d.suspiciousThreshold = threshold
	}
	if limit >= 0 {
		d.suspiciousLimit = limit
	}
	return d
}

// Train fits a new model and installs it.
func (d *Detector) Train(examples []models.LabeledReview) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	m, err := Train(examples, d.opts...)
	if err != nil {
		d.logger.Error("classifier training failed", logger.Error(err))
		return err
	}
	d.model.Store(m)
	d.logger.Info("classifier trained",
		logger.Int("examples", m.TrainedOn()),
		logger.Int("features", m.Features()),
		logger.Duration("took", time.Since(start)))
	return nil
}

// TrainTable trains from a labeled table.
func (d *Detector) TrainTable(t *table.Table) error {
	examples, err := LabeledFromTable(t)
	if err != nil {
		return err
	}
	return d.Train(examples)
}

// Model returns the installed model.
func (d *Detector) Model() (*Model, error) {
	m := d.model.Load()
	if m == nil {
		return nil, models.ErrUntrainedModel
	}
	return m, nil
}

// Trained reports whether a model is installed.
func (d *Detector) Trained() bool { return d.model.Load() != nil }

// Predict scores texts with the installed model.
func (d *Detector) Predict(texts []string) ([]float64, error) {
	return d.model.Load().Predict(texts)
}

// FakePercentage thresholds texts with the installed model.
func (d *Detector) FakePercentage(texts []string, threshold float64) (models.FakeReport, error) {
	return d.model.Load().FakePercentage(texts, threshold)
}

// Analyze runs the full review analysis used by product reports.
func (d *Detector) Analyze(reviews []models.Review, threshold float64) (*models.ReviewAnalysis, error) {
	m, err := d.Model()
	if err != nil {
		return nil, err
	}
	texts := Texts(reviews)
	probs, err := m.Predict(texts)
	if err != nil {
		return nil, err
	}
	return &models.ReviewAnalysis{
		Overall:    Summarize(probs, threshold),
		Platforms:  BreakdownByPlatform(reviews, probs, threshold),
		Suspicious: Suspicious(texts, probs, d.suspiciousThreshold, d.suspiciousLimit),
	}, nil
}
