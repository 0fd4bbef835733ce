package analytics

import (
	"context"
	"fmt"
	"time"

	"ShopScore/internal/domain/models"
	domsvc "ShopScore/internal/domain/service"
	"ShopScore/pkg/logger"
)

type seriesPoint struct {
	Date  string  `json:"ds"`
	Value float64 `json:"y"`
}

type forecastRequest struct {
	Platform      string        `json:"platform"`
	Horizon       int           `json:"horizon"`
	IntervalWidth float64       `json:"interval_width"`
	Points        []seriesPoint `json:"points"`
}

type forecastPoint struct {
	Date  string  `json:"ds"`
	Yhat  float64 `json:"yhat"`
	Lower float64 `json:"yhat_lower"`
	Upper float64 `json:"yhat_upper"`
}

type forecastResponse struct {
	Model  string          `json:"model"`
	Points []forecastPoint `json:"points"`
}

// HTTPSeriesModel fits series on a remote forecasting service. When a
// fallback is set, remote failures are logged and the fallback fits instead.
type HTTPSeriesModel struct {
	base     *HTTPServiceBase
	width    float64
	fallback domsvc.SeriesModel
	logger   *logger.Logger
}

func NewHTTPSeriesModel(base *HTTPServiceBase, width float64, fallback domsvc.SeriesModel, log *logger.Logger) *HTTPSeriesModel {
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPSeriesModel{base: base, width: width, fallback: fallback, logger: log}
}

func (m *HTTPSeriesModel) Name() string { return "remote" }

func (m *HTTPSeriesModel) Fit(ctx context.Context, platform string, obs []models.Observation, horizon int) (models.Forecast, error) {
	fc, err := m.fitRemote(ctx, platform, obs, horizon)
	if err == nil || m.fallback == nil || ctx.Err() != nil {
		return fc, err
	}
	m.logger.Warn("remote forecast failed, using local model",
		logger.String("platform", platform),
		logger.String("fallback", m.fallback.Name()),
		logger.Error(err))
	return m.fallback.Fit(ctx, platform, obs, horizon)
}

func (m *HTTPSeriesModel) fitRemote(ctx context.Context, platform string, obs []models.Observation, horizon int) (models.Forecast, error) {
	req := forecastRequest{
		Platform:      platform,
		Horizon:       horizon,
		IntervalWidth: m.width,
		Points:        make([]seriesPoint, len(obs)),
	}
	for i, o := range obs {
		req.Points[i] = seriesPoint{Date: o.Date.Format(time.DateOnly), Value: o.Value}
	}

	var resp forecastResponse
	if err := m.base.PostJSONWithRetry(ctx, "/forecast", req, &resp); err != nil {
		return models.Forecast{}, err
	}
	if want := len(obs) + horizon; len(resp.Points) != want {
		return models.Forecast{}, fmt.Errorf("remote forecast returned %d points, want %d", len(resp.Points), want)
	}

	fc := models.Forecast{
		Platform: platform,
		Model:    resp.Model,
		History:  len(obs),
		Horizon:  horizon,
		Points:   make([]models.ForecastPoint, len(resp.Points)),
	}
	if fc.Model == "" {
		fc.Model = m.Name()
	}
	for i, p := range resp.Points {
		d, err := time.Parse(time.DateOnly, p.Date)
		if err != nil {
			return models.Forecast{}, fmt.Errorf("remote forecast point %d: %w", i, err)
		}
		fc.Points[i] = models.ForecastPoint{Date: d, Yhat: p.Yhat, Lower: p.Lower, Upper: p.Upper}
	}
	return fc, nil
}
