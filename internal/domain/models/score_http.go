package models

// Requests for the scoring HTTP endpoints.

type ScoreRequest struct {
	Product     string   `query:"product" json:"product" validate:"required"`
	Destination string   `query:"pin" json:"pin" validate:"required,min=5,max=12"`
	Platform    string   `query:"platform" json:"platform"`
	WeightKg    float64  `query:"weight_kg" json:"weight_kg" default:"1" validate:"gt=0,lte=1000"`
	Threshold   *float64 `query:"threshold" json:"threshold" default:"0.5" validate:"omitempty,gte=0,lte=1"`
	Horizon     int      `query:"horizon" json:"horizon" default:"90" validate:"gte=1,lte=730"`
	Reliability *float64 `query:"reliability_weight" json:"reliability_weight,omitempty" validate:"omitempty,gte=0,lte=1"`
}

type ClassifyRequest struct {
	Reviews   []Review `json:"reviews" validate:"required,min=1,max=10000,dive"`
	Threshold *float64 `json:"threshold" default:"0.5" validate:"omitempty,gte=0,lte=1"`
}

type EcoRequest struct {
	Destination string   `json:"pin" validate:"required,min=5,max=12"`
	Platforms   []string `json:"platforms" validate:"max=50"`
	WeightKg    float64  `json:"weight_kg" default:"1" validate:"gt=0,lte=1000"`
}

type ForecastRequest struct {
	Product string `json:"product" validate:"required"`
	Metric  string `json:"metric" default:"price" validate:"oneof=price sales"`
	Horizon int    `json:"horizon" default:"90" validate:"gte=1,lte=730"`
}

type SeriesRequest struct {
	Product  string `query:"product" validate:"required"`
	Metric   string `query:"metric" default:"price" validate:"oneof=price sales"`
	Platform string `query:"platform"`
	From     string `query:"from"`
	To       string `query:"to"`
	Limit    int    `query:"limit" default:"10000" validate:"gte=1,lte=50000"`
}

// AsyncScoreAccepted is returned when a score job is queued.
type AsyncScoreAccepted struct {
	JobID string `json:"job_id"`
}
