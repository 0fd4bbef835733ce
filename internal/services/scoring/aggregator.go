// Package scoring turns leaf signals into weighted 0-100 product scores.
package scoring

import (
	"ShopScore/internal/domain/models"
	"ShopScore/internal/domain/repository"
	"ShopScore/pkg/logger"
)

// DefaultLookback is the number of trailing forecast points summarized.
const DefaultLookback = 30

// DefaultWeights returns 0.25/0.20/0.20/0.20/0.15.
func DefaultWeights() models.Weights {
	return models.Weights{
		FakeReviews:         0.25,
		PriceStability:      0.20,
		SalesTrend:          0.20,
		EcoFriendliness:     0.20,
		PlatformReliability: 0.15,
	}
}

type tier struct {
	min            float64
	name           string
	recommendation string
}

var tiers = []tier{
	{90, "Excellent", "Highly recommended! This is a top choice."},
	{80, "Very Good", "Great choice with strong performance."},
	{70, "Good", "Solid option worth considering."},
	{60, "Fair", "Acceptable but has some concerns."},
	{50, "Below Average", "Consider alternatives."},
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// Aggregator scores already-reduced signals for one platform.
type Aggregator struct {
	weights  models.Weights
	lookback int
	logger   *logger.Logger
	metrics  repository.Metrics
}

// WithWeights sets the default weights. They are validated on New.
func WithWeights(w models.Weights) Option {
	return func(a *Aggregator) { a.weights = w }
}

func WithLookback(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.lookback = n
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// New builds an aggregator. Invalid weights are rejected.
func New(opts ...Option) (*Aggregator, error) {
	a := &Aggregator{
		weights:  DefaultWeights(),
		lookback: DefaultLookback,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.weights.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Aggregator) Weights() models.Weights { return a.weights }

func (a *Aggregator) Lookback() int { return a.lookback }

// Breakdown computes the five independent sub-scores.
func (a *Aggregator) Breakdown(in models.ScoreInput) models.ScoreBreakdown {
	return models.ScoreBreakdown{
		models.CategoryFakeReviews:         FakeReviewScore(in.FakePercentage),
		models.CategoryPriceStability:      PriceStabilityScore(in.PriceForecast.Values(), a.lookback),
		models.CategorySalesTrend:          SalesTrendScore(in.SalesForecast.Values(), a.lookback),
		models.CategoryEcoFriendliness:     EcoScore(in.EcoColor),
		models.CategoryPlatformReliability: PlatformReliabilityScore(in.Platform),
	}
}

// Score applies the aggregator's weights.
func (a *Aggregator) Score(in models.ScoreInput) (models.ScoreResult, error) {
	return a.ScoreWith(in, a.weights)
}

// ScoreWith applies w, which must validate. Missing signals never fail.
func (a *Aggregator) ScoreWith(in models.ScoreInput, w models.Weights) (models.ScoreResult, error) {
	if err := w.Validate(); err != nil {
		return models.ScoreResult{}, err
	}
	breakdown := a.Breakdown(in)
	overall := WeightedSum(breakdown, w)
	name, rec := Interpret(overall)

	if _, known := Reputation(in.Platform); !known {
		a.logger.Warn("platform reputation unknown, using default",
			logger.String("platform", in.Platform),
			logger.Float64("score", DefaultReputation))
		if a.metrics != nil {
			a.metrics.RecordDegraded("reputation")
		}
	}
	if a.metrics != nil {
		a.metrics.RecordScore(in.Platform, overall)
	}
	a.logger.Debug("score computed",
		logger.String("platform", in.Platform),
		logger.Float64("overall", overall),
		logger.String("tier", name))

	return models.ScoreResult{
		Platform:       in.Platform,
		Overall:        overall,
		Breakdown:      breakdown,
		Weights:        w,
		Tier:           name,
		Recommendation: rec,
	}, nil
}

// WeightedSum returns the sum of weight times sub-score over all categories.
func WeightedSum(b models.ScoreBreakdown, w models.Weights) float64 {
	var total float64
	for _, c := range models.Categories {
		total += w.Of(c) * b[c]
	}
	return total
}

// Interpret buckets an overall score into a tier and recommendation.
func Interpret(overall float64) (string, string) {
	for _, t := range tiers {
		if overall >= t.min {
			return t.name, t.recommendation
		}
	}
	return "Poor", "Not recommended. Look for other options."
}

// Interpret buckets overall; see the package-level Interpret.
func (a *Aggregator) Interpret(overall float64) (string, string) { return Interpret(overall) }
