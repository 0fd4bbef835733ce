package service

import (
	"context"

	"ShopScore/internal/domain/models"
)

// SeriesModel fits one platform series and projects horizon daily steps past its last date.
type SeriesModel interface {
	Name() string
	Fit(ctx context.Context, platform string, obs []models.Observation, horizon int) (models.Forecast, error)
}
