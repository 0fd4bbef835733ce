package geo

import (
	"fmt"
	"math"

	"ShopScore/internal/domain/models"
)

// RailThresholdKm is the distance above which shipments travel by rail.
const RailThresholdKm = 2000.0

// Grams of CO2 per kg of payload per km.
var emissionFactors = map[models.TransportMode]float64{
	models.ModeAir:  0.255,
	models.ModeRail: 0.041,
	models.ModeRoad: 0.084,
	models.ModeShip: 0.010,
}

// EmissionFactor returns g CO2 per kg-km for mode, using road for unknown modes.
func EmissionFactor(mode models.TransportMode) float64 {
	if f, ok := emissionFactors[mode]; ok {
		return f
	}
	return emissionFactors[models.ModeRoad]
}

// ModeForDistance picks rail above RailThresholdKm and road otherwise.
func ModeForDistance(km float64) models.TransportMode {
	if km > RailThresholdKm {
		return models.ModeRail
	}
	return models.ModeRoad
}

// Emissions returns kg of CO2 for a shipment.
func Emissions(km float64, mode models.TransportMode, weightKg float64) float64 {
	return km * EmissionFactor(mode) * weightKg / 1000
}

type band struct {
	below  float64
	tier   models.EcoTier
	color  models.EcoColor
	suffix string
}

// Upper bounds are exclusive.
var bands = []band{
	{0.5, models.TierExcellent, models.ColorGreen, "Very Eco-Friendly"},
	{1.0, models.TierGood, models.ColorGreen, "Eco-Friendly"},
	{1.5, models.TierModerate, models.ColorYellow, "Moderate Impact"},
	{2.5, models.TierHigh, models.ColorOrange, "High Impact"},
	{math.Inf(1), models.TierVeryHigh, models.ColorRed, "Very High Impact"},
}

// Rate buckets an emissions mass into an eco tier.
func Rate(kg float64) models.EcoRating {
	b := bands[len(bands)-1]
	for _, candidate := range bands {
		if kg < candidate.below {
			b = candidate
			break
		}
	}
	return models.EcoRating{
		Tier:        b.tier,
		Color:       b.color,
		Description: fmt.Sprintf("%.3f kg CO2 - %s", kg, b.suffix),
	}
}
