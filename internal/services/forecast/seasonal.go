package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"ShopScore/internal/domain/models"
	domsvc "ShopScore/internal/domain/service"
	"ShopScore/pkg/util"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultIntervalWidth is the two-sided coverage of forecast bounds.
	DefaultIntervalWidth = 0.95
	weeklyMinSpanDays    = 14
)

// SeasonalModel fits a least-squares linear trend over the day index with
// day-of-week offsets once the history spans two weeks. Bounds widen with
// distance from the fitted range.
type SeasonalModel struct {
	width float64
	z     float64
}

// NewSeasonalModel builds a model whose bounds cover width of the residual
// distribution. Widths outside (0, 1) fall back to 0.95.
func NewSeasonalModel(width float64) *SeasonalModel {
	if width <= 0 || width >= 1 {
		width = DefaultIntervalWidth
	}
	return &SeasonalModel{width: width, z: distuv.UnitNormal.Quantile(0.5 + width/2)}
}

func (m *SeasonalModel) Name() string { return "seasonal-linear" }

// Z returns the normal quantile used for the bounds.
func (m *SeasonalModel) Z() float64 { return m.z }

func (m *SeasonalModel) Fit(ctx context.Context, platform string, obs []models.Observation, horizon int) (models.Forecast, error) {
	if err := ctx.Err(); err != nil {
		return models.Forecast{}, err
	}
	n := len(obs)
	if n < 2 {
		return models.Forecast{}, &models.InsufficientDataError{Platform: platform, Points: n, Reason: "need at least 2 distinct dates"}
	}
	if horizon < 0 {
		horizon = 0
	}

	origin := obs[0].Date
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, o := range obs {
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			return models.Forecast{}, fmt.Errorf("%s: non-finite value at %s", platform, o.Date.Format("2006-01-02"))
		}
		xs[i] = float64(util.DaysBetween(origin, o.Date))
		ys[i] = o.Value
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	var weekly [7]float64
	if xs[n-1]-xs[0] >= weeklyMinSpanDays {
		var sums [7]float64
		var counts [7]int
		for i, o := range obs {
			wd := o.Date.Weekday()
			sums[wd] += ys[i] - (alpha + beta*xs[i])
			counts[wd]++
		}
		for wd := range weekly {
			if counts[wd] > 0 {
				weekly[wd] = sums[wd] / float64(counts[wd])
			}
		}
	}
	predict := func(x float64, day time.Time) float64 {
		return alpha + beta*x + weekly[day.Weekday()]
	}

	var ss float64
	for i, o := range obs {
		r := ys[i] - predict(xs[i], o.Date)
		ss += r * r
	}
	dof := n - 2
	if dof < 1 {
		dof = 1
	}
	sigma := math.Sqrt(ss / float64(dof))

	points := make([]models.ForecastPoint, 0, n+horizon)
	for i, o := range obs {
		yhat := predict(xs[i], o.Date)
		band := m.z * sigma
		points = append(points, models.ForecastPoint{Date: o.Date, Yhat: yhat, Lower: yhat - band, Upper: yhat + band})
	}
	last := obs[n-1].Date
	for h := 1; h <= horizon; h++ {
		day := util.AddDays(last, h)
		yhat := predict(xs[n-1]+float64(h), day)
		band := m.z * sigma * math.Sqrt(1+float64(h)/float64(n))
		points = append(points, models.ForecastPoint{Date: day, Yhat: yhat, Lower: yhat - band, Upper: yhat + band})
	}

	return models.Forecast{
		Platform: platform,
		Model:    m.Name(),
		History:  n,
		Horizon:  horizon,
		Points:   points,
	}, nil
}

var _ domsvc.SeriesModel = (*SeasonalModel)(nil)
