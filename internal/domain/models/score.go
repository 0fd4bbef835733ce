package models

import (
	"fmt"
	"math"
	"time"
)

// Category is one of the five fixed scoring categories.
type Category string

const (
	CategoryFakeReviews         Category = "fake_reviews"
	CategoryPriceStability      Category = "price_stability"
	CategorySalesTrend          Category = "sales_trend"
	CategoryEcoFriendliness     Category = "eco_friendliness"
	CategoryPlatformReliability Category = "platform_reliability"
)

// Categories lists the scoring categories in report order.
var Categories = []Category{
	CategoryFakeReviews,
	CategoryPriceStability,
	CategorySalesTrend,
	CategoryEcoFriendliness,
	CategoryPlatformReliability,
}

// Weights holds one weight per category.
type Weights struct {
	FakeReviews         float64 `json:"fake_reviews" yaml:"fake_reviews"`
	PriceStability      float64 `json:"price_stability" yaml:"price_stability"`
	SalesTrend          float64 `json:"sales_trend" yaml:"sales_trend"`
	EcoFriendliness     float64 `json:"eco_friendliness" yaml:"eco_friendliness"`
	PlatformReliability float64 `json:"platform_reliability" yaml:"platform_reliability"`
}

// Of returns the weight of c.
func (w Weights) Of(c Category) float64 {
	switch c {
	case CategoryFakeReviews:
		return w.FakeReviews
	case CategoryPriceStability:
		return w.PriceStability
	case CategorySalesTrend:
		return w.SalesTrend
	case CategoryEcoFriendliness:
		return w.EcoFriendliness
	case CategoryPlatformReliability:
		return w.PlatformReliability
	default:
		return 0
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.FakeReviews + w.PriceStability + w.SalesTrend + w.EcoFriendliness + w.PlatformReliability
}

// WeightSumTolerance is how far a weight sum may drift from 1.
const WeightSumTolerance = 1e-6

// Validate rejects negative or non-finite weights and sums other than 1.
// Weights are never renormalized.
func (w Weights) Validate() error {
	for _, c := range Categories {
		v := w.Of(c)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidWeights, c)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s is negative (%g)", ErrInvalidWeights, c, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > WeightSumTolerance {
		return fmt.Errorf("%w: weights sum to %g, want 1", ErrInvalidWeights, sum)
	}
	return nil
}

// WithReliability returns a copy with only the platform reliability weight replaced.
func (w Weights) WithReliability(v float64) Weights {
	w.PlatformReliability = v
	return w
}

// ScoreBreakdown maps each category to its 0-100 sub-score.
type ScoreBreakdown map[Category]float64

// ScoreInput carries the already-reduced leaf outputs for one platform.
// Nil forecasts and an empty eco color mean the signal is missing.
type ScoreInput struct {
	FakePercentage float64   `json:"fake_percentage"`
	PriceForecast  *Forecast `json:"-"`
	SalesForecast  *Forecast `json:"-"`
	EcoColor       EcoColor  `json:"eco_color"`
	Platform       string    `json:"platform"`
}

// ScoreResult is the aggregated, interpreted score.
type ScoreResult struct {
	Platform       string         `json:"platform"`
	Overall        float64        `json:"overall"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	Weights        Weights        `json:"weights"`
	Tier           string         `json:"tier"`
	Recommendation string         `json:"recommendation"`
}

// PlatformInfo describes a platform as shown in reports.
type PlatformInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ProductReport is the full per-product output handed to presentation.
type ProductReport struct {
	Product       string                      `json:"product"`
	Destination   string                      `json:"destination"`
	Platform      string                      `json:"platform"`
	Platforms     []PlatformInfo              `json:"platforms"`
	Reviews       *ReviewAnalysis             `json:"reviews,omitempty"`
	PriceForecast map[string]Forecast         `json:"price_forecast,omitempty"`
	SalesForecast map[string]Forecast         `json:"sales_forecast,omitempty"`
	Eco           *EcoReport                  `json:"eco,omitempty"`
	Score         ScoreResult                 `json:"score"`
	Degradations  []EstimationDegradedWarning `json:"degradations,omitempty"`
	Errors        map[string]string           `json:"errors,omitempty"`
	GeneratedAt   time.Time                   `json:"generated_at"`
}

// ScoreEvent is published after each product evaluation.
type ScoreEvent struct {
	ID          string         `json:"id"`
	Product     string         `json:"product"`
	Platform    string         `json:"platform"`
	Destination string         `json:"destination"`
	Overall     float64        `json:"overall"`
	Tier        string         `json:"tier"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
	Timestamp   time.Time      `json:"timestamp"`
}
