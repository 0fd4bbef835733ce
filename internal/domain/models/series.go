package models

import "time"

// Metric names a time-series value type.
type Metric string

const (
	MetricPrice Metric = "price"
	MetricSales Metric = "sales"
)

// Observation is one (date, value) pair of a platform series.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ForecastPoint is a point estimate with a symmetric uncertainty interval.
type ForecastPoint struct {
	Date  time.Time `json:"ds"`
	Yhat  float64   `json:"yhat"`
	Lower float64   `json:"yhat_lower"`
	Upper float64   `json:"yhat_upper"`
}

// Forecast covers the fitted history range followed by the future horizon.
type Forecast struct {
	Platform string          `json:"platform"`
	Metric   Metric          `json:"metric"`
	Model    string          `json:"model"`
	History  int             `json:"history"`
	Horizon  int             `json:"horizon"`
	Points   []ForecastPoint `json:"points"`
}

// Values returns the point estimates in date order.
func (f *Forecast) Values() []float64 {
	if f == nil {
		return nil
	}
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = p.Yhat
	}
	return out
}

// Future returns only the points after the last observed date.
func (f *Forecast) Future() []ForecastPoint {
	if f == nil || f.History >= len(f.Points) {
		return nil
	}
	return f.Points[f.History:]
}

// StoredObservation is an observation persisted in the series store.
type StoredObservation struct {
	Product  string    `json:"product"`
	Metric   Metric    `json:"metric"`
	Platform string    `json:"platform"`
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
}

// SeriesHistory is stored observations grouped by platform.
type SeriesHistory struct {
	Product string                   `json:"product"`
	Metric  Metric                   `json:"metric"`
	Series  map[string][]Observation `json:"series"`
	Points  int                      `json:"points"`
}
