package scoring

import (
	"strings"

	"ShopScore/internal/domain/models"
	"ShopScore/internal/services/features"
)

// NeutralScore substitutes for a missing or unusable signal.
const NeutralScore = 50.0

// DefaultReputation scores platforms absent from the reputation table.
const DefaultReputation = 70.0

var ecoScores = map[models.EcoColor]float64{
	models.ColorGreen:  95,
	models.ColorYellow: 60,
	models.ColorOrange: 35,
	models.ColorRed:    10,
}

type reputation struct {
	key   string
	score float64
}

// Matched in order, so a name containing several keys takes the first.
var reputations = []reputation{
	{"amazon", 95},
	{"flipkart", 90},
	{"ebay", 85},
	{"myntra", 88},
	{"snapdeal", 75},
	{"ajio", 80},
	{"meesho", 70},
	{"jiomart", 82},
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// FakeReviewScore is 100 minus the fake percentage.
func FakeReviewScore(pct float64) float64 {
	return clamp(100 - pct)
}

// PriceStabilityScore maps the coefficient of variation of the last
// lookback values to 100 - 200*CV.
func PriceStabilityScore(values []float64, lookback int) float64 {
	cv, ok := features.CoefficientOfVariation(features.Tail(values, lookback))
	if !ok {
		return NeutralScore
	}
	return clamp(100 - 200*cv)
}

// SalesTrendScore maps the least-squares slope of the last lookback values,
// as a percentage of their mean, to 50 + 3*slope.
func SalesTrendScore(values []float64, lookback int) float64 {
	pct, ok := features.NormalizedSlope(features.Tail(values, lookback))
	if !ok {
		return NeutralScore
	}
	return clamp(NeutralScore + 3*pct)
}

// EcoScore scores an eco color; unknown or empty colors are neutral.
func EcoScore(color models.EcoColor) float64 {
	if s, ok := ecoScores[models.EcoColor(strings.ToLower(string(color)))]; ok {
		return s
	}
	return NeutralScore
}

// PlatformReliabilityScore looks a platform up by case-insensitive
// substring match in either direction.
func PlatformReliabilityScore(name string) float64 {
	s, _ := Reputation(name)
	return s
}

// Reputation reports the reliability score of name and whether it was known.
func Reputation(name string) (float64, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return DefaultReputation, false
	}
	for _, r := range reputations {
		if strings.Contains(n, r.key) || strings.Contains(r.key, n) {
			return r.score, true
		}
	}
	return DefaultReputation, false
}
