package scoring

import (
	"errors"
	"math"
	"testing"

	"ShopScore/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedSumExample(t *testing.T) {
	b := models.ScoreBreakdown{
		models.CategoryFakeReviews:         80,
		models.CategoryPriceStability:      90,
		models.CategorySalesTrend:          70,
		models.CategoryEcoFriendliness:     95,
		models.CategoryPlatformReliability: 85,
	}
	// 20 + 18 + 14 + 19 + 12.75
	assert.InDelta(t, 83.75, WeightedSum(b, DefaultWeights()), 1e-9)
}

func flat(n int, v float64) *models.Forecast {
	fc := &models.Forecast{History: n}
	for i := 0; i < n; i++ {
		fc.Points = append(fc.Points, models.ForecastPoint{Yhat: v})
	}
	return fc
}

func TestScoreEndToEnd(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	res, err := a.Score(models.ScoreInput{
		FakePercentage: 20,
		PriceForecast:  flat(40, 199),
		EcoColor:       models.ColorGreen,
		Platform:       "Amazon",
	})
	require.NoError(t, err)
	assert.Equal(t, 80.0, res.Breakdown[models.CategoryFakeReviews])
	assert.Equal(t, 100.0, res.Breakdown[models.CategoryPriceStability])
	assert.Equal(t, NeutralScore, res.Breakdown[models.CategorySalesTrend])
	assert.Equal(t, 95.0, res.Breakdown[models.CategoryEcoFriendliness])
	assert.Equal(t, 95.0, res.Breakdown[models.CategoryPlatformReliability])
	assert.InDelta(t, 83.25, res.Overall, 1e-9)
	assert.Equal(t, "Very Good", res.Tier)
	assert.Equal(t, "Great choice with strong performance.", res.Recommendation)
	assert.Equal(t, DefaultWeights(), res.Weights)
}

func TestScoreMissingSignalsAreNeutral(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	res, err := a.Score(models.ScoreInput{Platform: "SomeShop"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Breakdown[models.CategoryFakeReviews])
	assert.Equal(t, NeutralScore, res.Breakdown[models.CategoryPriceStability])
	assert.Equal(t, NeutralScore, res.Breakdown[models.CategorySalesTrend])
	assert.Equal(t, NeutralScore, res.Breakdown[models.CategoryEcoFriendliness])
	assert.Equal(t, DefaultReputation, res.Breakdown[models.CategoryPlatformReliability])
}

func TestPriceStability(t *testing.T) {
	assert.Equal(t, NeutralScore, PriceStabilityScore(nil, 30))
	assert.Equal(t, NeutralScore, PriceStabilityScore([]float64{5}, 30))
	assert.Equal(t, NeutralScore, PriceStabilityScore([]float64{-1, 1}, 30))
	assert.Equal(t, 100.0, PriceStabilityScore([]float64{3, 3, 3}, 30))

	// sample std of {90, 110} is 14.142, mean 100
	assert.InDelta(t, 100-200*math.Sqrt(200)/100, PriceStabilityScore([]float64{90, 110}, 30), 1e-9)
	assert.Equal(t, 0.0, PriceStabilityScore([]float64{1, 100}, 30))

	last := 101.0
	for _, spread := range []float64{0, 1, 5, 10, 20, 40, 80} {
		s := PriceStabilityScore([]float64{100 - spread, 100, 100 + spread}, 30)
		assert.LessOrEqual(t, s, last)
		assert.GreaterOrEqual(t, s, 0.0)
		last = s
	}
}

func TestLookbackUsesTrailingPoints(t *testing.T) {
	values := []float64{1, 50, 7, 300}
	for i := 0; i < 30; i++ {
		values = append(values, 20)
	}
	assert.Equal(t, 100.0, PriceStabilityScore(values, 30))
	assert.Less(t, PriceStabilityScore(values, 34), 100.0)
}

func TestSalesTrend(t *testing.T) {
	assert.Equal(t, NeutralScore, SalesTrendScore(nil, 30))
	assert.Equal(t, NeutralScore, SalesTrendScore([]float64{0, 0, 0}, 30))
	assert.Equal(t, NeutralScore, SalesTrendScore([]float64{10, 10, 10}, 30))

	// slope 1 over mean 10 is 10% of mean
	assert.InDelta(t, 80, SalesTrendScore([]float64{9, 10, 11}, 30), 1e-9)
	assert.InDelta(t, 20, SalesTrendScore([]float64{11, 10, 9}, 30), 1e-9)
	assert.Equal(t, 100.0, SalesTrendScore([]float64{1, 100}, 30))
	assert.Equal(t, 0.0, SalesTrendScore([]float64{100, 1}, 30))

	last := -1.0
	for _, slope := range []float64{-3, -1, -0.5, 0, 0.5, 1, 3} {
		s := SalesTrendScore([]float64{100, 100 + slope, 100 + 2*slope}, 30)
		assert.GreaterOrEqual(t, s, last)
		last = s
	}
}

func TestFakeReviewScoreClamped(t *testing.T) {
	assert.Equal(t, 100.0, FakeReviewScore(0))
	assert.Equal(t, 100.0, FakeReviewScore(-5))
	assert.Equal(t, 0.0, FakeReviewScore(140))
	assert.Equal(t, 66.5, FakeReviewScore(33.5))
}

func TestEcoScore(t *testing.T) {
	assert.Equal(t, 95.0, EcoScore(models.ColorGreen))
	assert.Equal(t, 95.0, EcoScore("GREEN"))
	assert.Equal(t, 60.0, EcoScore(models.ColorYellow))
	assert.Equal(t, 35.0, EcoScore(models.ColorOrange))
	assert.Equal(t, 10.0, EcoScore(models.ColorRed))
	assert.Equal(t, NeutralScore, EcoScore(""))
	assert.Equal(t, NeutralScore, EcoScore("purple"))
}

func TestPlatformReliability(t *testing.T) {
	cases := map[string]float64{
		"Amazon":          95,
		" amazon.in ":     95,
		"FLIPKART":        90,
		"flip":            90,
		"eBay":            85,
		"Myntra":          88,
		"Snapdeal":        75,
		"AJIO":            80,
		"Meesho":          70,
		"JioMart":         82,
		"Corner Store":    DefaultReputation,
		"":                DefaultReputation,
		"amazon-flipkart": 95,
	}
	for name, want := range cases {
		assert.Equal(t, want, PlatformReliabilityScore(name), name)
	}
}

func TestInterpretBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		tier  string
	}{
		{100, "Excellent"},
		{90, "Excellent"},
		{89.999, "Very Good"},
		{80, "Very Good"},
		{70, "Good"},
		{60, "Fair"},
		{50, "Below Average"},
		{49.999, "Poor"},
		{0, "Poor"},
	}
	for _, c := range cases {
		tier, rec := Interpret(c.score)
		assert.Equal(t, c.tier, tier, "%v", c.score)
		assert.NotEmpty(t, rec)
	}
	_, rec := Interpret(10)
	assert.Equal(t, "Not recommended. Look for other options.", rec)
}

func TestWeightsValidation(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())

	bad := []models.Weights{
		{FakeReviews: -0.1, PriceStability: 0.3, SalesTrend: 0.3, EcoFriendliness: 0.3, PlatformReliability: 0.2},
		{FakeReviews: 0.5, PriceStability: 0.5, SalesTrend: 0.5},
		{FakeReviews: math.NaN(), PriceStability: 1},
		DefaultWeights().WithReliability(0.3),
		{},
	}
	for _, w := range bad {
		assert.ErrorIs(t, w.Validate(), models.ErrInvalidWeights, "%+v", w)
	}

	swapped := models.Weights{FakeReviews: 0.1, PriceStability: 0.2, SalesTrend: 0.3, EcoFriendliness: 0.25, PlatformReliability: 0.15}
	assert.NoError(t, swapped.Validate())

	override := DefaultWeights().WithReliability(0.15)
	assert.Equal(t, DefaultWeights(), override)

	_, err := New(WithWeights(models.Weights{FakeReviews: 2}))
	assert.True(t, errors.Is(err, models.ErrInvalidWeights))

	a, err := New()
	require.NoError(t, err)
	_, err = a.ScoreWith(models.ScoreInput{}, DefaultWeights().WithReliability(0.5))
	assert.ErrorIs(t, err, models.ErrInvalidWeights)
}

func TestCustomWeightsAndLookback(t *testing.T) {
	w := models.Weights{FakeReviews: 1}
	a, err := New(WithWeights(w), WithLookback(5))
	require.NoError(t, err)
	assert.Equal(t, 5, a.Lookback())
	res, err := a.Score(models.ScoreInput{FakePercentage: 12.5, Platform: "eBay"})
	require.NoError(t, err)
	assert.Equal(t, 87.5, res.Overall)
	assert.Equal(t, "Very Good", res.Tier)
}
