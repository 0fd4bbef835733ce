package models

// TransportMode is a shipment transport mode.
type TransportMode string

const (
	ModeAir  TransportMode = "air"
	ModeRail TransportMode = "rail"
	ModeRoad TransportMode = "road"
	ModeShip TransportMode = "ship"
)

// GeoPoint is a location code resolved to approximate coordinates.
type GeoPoint struct {
	Code      string  `json:"code"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Exact     bool    `json:"exact"`
}

// EcoTier is an emissions bucket.
type EcoTier string

const (
	TierExcellent EcoTier = "Excellent"
	TierGood      EcoTier = "Good"
	TierModerate  EcoTier = "Moderate"
	TierHigh      EcoTier = "High"
	TierVeryHigh  EcoTier = "Very High"
)

// EcoColor is the color tag of an eco tier.
type EcoColor string

const (
	ColorGreen  EcoColor = "green"
	ColorYellow EcoColor = "yellow"
	ColorOrange EcoColor = "orange"
	ColorRed    EcoColor = "red"
)

// EcoRating is the discrete rating of an emissions mass.
type EcoRating struct {
	Tier        EcoTier  `json:"rating"`
	Color       EcoColor `json:"color"`
	Description string   `json:"description"`
}

// EmissionEstimate is the CO2 estimate of one shipment.
type EmissionEstimate struct {
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	DistanceKm  float64       `json:"distance_km"`
	Mode        TransportMode `json:"mode"`
	WeightKg    float64       `json:"weight_kg"`
	EmissionsKg float64       `json:"emissions_kg"`
	Rating      EcoRating     `json:"rating"`
}

// PlatformEmission is the estimate for a platform's warehouse origin.
type PlatformEmission struct {
	Platform string `json:"platform"`
	EmissionEstimate
}

// EcoReport is a batch rating across platforms, ordered as requested.
type EcoReport struct {
	Destination  string                      `json:"destination"`
	Platforms    []PlatformEmission          `json:"platforms"`
	Best         string                      `json:"best,omitempty"`
	Degradations []EstimationDegradedWarning `json:"degradations,omitempty"`
}

// Lookup returns the entry for platform.
func (r *EcoReport) Lookup(platform string) (PlatformEmission, bool) {
	if r == nil {
		return PlatformEmission{}, false
	}
	for _, p := range r.Platforms {
		if p.Platform == platform {
			return p, true
		}
	}
	return PlatformEmission{}, false
}
