package forecast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ShopScore/internal/domain/models"
	"ShopScore/pkg/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seriesTable() *table.Table {
	return table.FromRecords("series", []string{"Date", "Platform", "Price", "Units_Sold"}, [][]string{
		{"2024-01-01", "Amazon", "100", "5"},
		{"2024-01-01", "Amazon", "110", "3"},
		{"2024-01-02", "Amazon", "105", "4"},
		{"2024-01-03", "Amazon", "₹1,200", "2"},
		{"2024-01-01", "eBay", "90", "1"},
		{"2024-01-01", "eBay", "95", "1"},
		{"not a date", "eBay", "99", "1"},
		{"2024-01-02", "eBay", "", ""},
		{"2024-01-01", "Flipkart", "80", "7"},
		{"2024-01-02", "Flipkart", "81", "8"},
	})
}

func TestPrepareDeduplicationPolicies(t *testing.T) {
	tbl := seriesTable()

	price, keys, err := NewPrice().Prepare(tbl)
	require.NoError(t, err)
	assert.Equal(t, ColumnKeys{Date: "Date", Value: "Price", Platform: "Platform"}, keys)
	require.Contains(t, price, "Amazon")
	assert.Equal(t, []models.Observation{
		{Date: day("2024-01-01"), Value: 110},
		{Date: day("2024-01-02"), Value: 105},
		{Date: day("2024-01-03"), Value: 1200},
	}, price["Amazon"])
	assert.NotContains(t, price, "eBay", "one distinct date")
	assert.Len(t, price["Flipkart"], 2)

	sales, _, err := NewSales().Prepare(tbl)
	require.NoError(t, err)
	assert.Equal(t, 8.0, sales["Amazon"][0].Value)
	assert.NotContains(t, sales, "eBay")
}

func TestPrepareSyntheticPlatform(t *testing.T) {
	tbl := table.FromRecords("single", []string{"timestamp", "current_price"}, [][]string{
		{"2024-02-02", "10"},
		{"2024-02-01", "9"},
	})
	keys, err := DetectColumns(tbl, models.MetricPrice)
	require.NoError(t, err)
	assert.Empty(t, keys.Platform)
	series := Prepare(tbl, keys, PolicyLast)
	require.Contains(t, series, SyntheticPlatform)
	assert.True(t, series[SyntheticPlatform][0].Date.Before(series[SyntheticPlatform][1].Date))
	assert.Equal(t, []string{SyntheticPlatform}, PlatformOrder(tbl, keys))
}

func TestDetectColumnsSchemaError(t *testing.T) {
	tbl := table.FromRecords("bad", []string{"date", "price"}, nil)
	_, err := DetectColumns(tbl, models.MetricSales)
	var schema *models.SchemaError
	require.True(t, errors.As(err, &schema))
	assert.Equal(t, salesColumns, schema.Wanted)

	_, err = DetectColumns(table.FromRecords("bad", []string{"price"}, nil), models.MetricPrice)
	require.True(t, errors.As(err, &schema))
	assert.Equal(t, dateColumns, schema.Wanted)
}

func TestForecastTwoDatesCoversHorizon(t *testing.T) {
	series := map[string][]models.Observation{
		"Amazon": {{Date: day("2024-01-01"), Value: 10}, {Date: day("2024-01-02"), Value: 12}},
	}
	out, err := NewPrice().Forecast(context.Background(), series, 5)
	require.NoError(t, err)
	fc := out["Amazon"]
	require.Len(t, fc.Points, 7)
	assert.Equal(t, 2, fc.History)
	assert.Equal(t, 5, fc.Horizon)
	assert.Equal(t, models.MetricPrice, fc.Metric)
	future := fc.Future()
	require.Len(t, future, 5)
	assert.Equal(t, day("2024-01-03"), future[0].Date)
	assert.Equal(t, day("2024-01-07"), future[4].Date)
	assert.InDelta(t, 14.0, future[0].Yhat, 1e-9)
}

func TestForecastDefaultHorizon(t *testing.T) {
	series := map[string][]models.Observation{
		"Amazon": {{Date: day("2024-01-01"), Value: 10}, {Date: day("2024-01-05"), Value: 12}},
	}
	out, err := NewPrice().Forecast(context.Background(), series, 0)
	require.NoError(t, err)
	fc := out["Amazon"]
	assert.Len(t, fc.Future(), DefaultHorizon)
}

func TestSalesClampedPriceNot(t *testing.T) {
	falling := map[string][]models.Observation{
		"Amazon": {
			{Date: day("2024-01-01"), Value: 30},
			{Date: day("2024-01-02"), Value: 20},
			{Date: day("2024-01-03"), Value: 10},
		},
	}
	sales, err := NewSales().Forecast(context.Background(), falling, 10)
	require.NoError(t, err)
	for _, p := range sales["Amazon"].Points {
		assert.GreaterOrEqual(t, p.Yhat, 0.0)
		assert.GreaterOrEqual(t, p.Lower, 0.0)
		assert.GreaterOrEqual(t, p.Upper, 0.0)
	}

	price, err := NewPrice().Forecast(context.Background(), falling, 10)
	require.NoError(t, err)
	last := price["Amazon"].Points[len(price["Amazon"].Points)-1]
	assert.Less(t, last.Yhat, 0.0)
}

func TestSeasonalModelBounds(t *testing.T) {
	m := NewSeasonalModel(0.95)
	assert.InDelta(t, 1.959964, m.Z(), 1e-6)

	obs := make([]models.Observation, 0, 30)
	start := day("2024-03-01")
	for i := 0; i < 30; i++ {
		v := 100 + float64(i)
		if i%2 == 0 {
			v += 3
		}
		obs = append(obs, models.Observation{Date: start.AddDate(0, 0, i), Value: v})
	}
	fc, err := m.Fit(context.Background(), "Amazon", obs, 10)
	require.NoError(t, err)
	require.Len(t, fc.Points, 40)
	first := fc.Future()[0]
	lastFuture := fc.Future()[9]
	assert.Less(t, first.Lower, first.Yhat)
	assert.Greater(t, first.Upper, first.Yhat)
	assert.InDelta(t, first.Yhat-first.Lower, first.Upper-first.Yhat, 1e-9)
	assert.Greater(t, lastFuture.Upper-lastFuture.Lower, first.Upper-first.Lower)
}

func TestSeasonalModelRejectsShortSeries(t *testing.T) {
	_, err := NewSeasonalModel(0.95).Fit(context.Background(), "Amazon", []models.Observation{{Date: day("2024-01-01"), Value: 1}}, 3)
	var insufficient *models.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "Amazon", insufficient.Platform)
}

type flakyModel struct {
	fail  map[string]bool
	block bool
}

func (m *flakyModel) Name() string { return "flaky" }

func (m *flakyModel) Fit(ctx context.Context, platform string, obs []models.Observation, horizon int) (models.Forecast, error) {
	if m.block {
		<-ctx.Done()
		return models.Forecast{}, ctx.Err()
	}
	if m.fail[platform] {
		return models.Forecast{}, errors.New("degenerate")
	}
	fc, err := NewSeasonalModel(0.95).Fit(ctx, platform, obs, horizon)
	fc.Model = m.Name()
	return fc, err
}

type fitMetrics struct {
	mu       sync.Mutex
	failures []string
}

func (m *fitMetrics) RecordScore(string, float64) {}
func (m *fitMetrics) RecordFitFailure(metric, platform string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, metric+"/"+platform)
}
func (m *fitMetrics) RecordDegraded(string) {}
func (m *fitMetrics) RecordError(string) {}
func (m *fitMetrics) RecordLatency(string, float64) {}

func twoPlatforms() map[string][]models.Observation {
	obs := []models.Observation{{Date: day("2024-01-01"), Value: 1}, {Date: day("2024-01-02"), Value: 2}}
	return map[string][]models.Observation{"Amazon": obs, "eBay": obs}
}

func TestForecastIsolatesFailures(t *testing.T) {
	metrics := &fitMetrics{}
	f := NewSales(WithModel(&flakyModel{fail: map[string]bool{"eBay": true}}), WithMetrics(metrics))
	out, err := f.Forecast(context.Background(), twoPlatforms(), 3)
	require.NoError(t, err)
	assert.Contains(t, out, "Amazon")
	assert.NotContains(t, out, "eBay")
	assert.Equal(t, []string{"sales/eBay"}, metrics.failures)
	assert.Equal(t, "flaky", out["Amazon"].Model)
}

func TestForecastAllFailed(t *testing.T) {
	f := NewPrice(WithModel(&flakyModel{fail: map[string]bool{"Amazon": true, "eBay": true}}))
	out, err := f.Forecast(context.Background(), twoPlatforms(), 3)
	assert.Nil(t, out)
	var insufficient *models.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Contains(t, err.Error(), "eBay")

	_, err = f.Forecast(context.Background(), nil, 3)
	require.True(t, errors.As(err, &insufficient))
}

func TestForecastFitTimeoutDropsPlatform(t *testing.T) {
	f := NewPrice(WithModel(&flakyModel{block: true}), WithFitTimeout(20*time.Millisecond), WithConcurrency(1))
	_, err := f.Forecast(context.Background(), twoPlatforms(), 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExpandMonthly(t *testing.T) {
	tbl := table.FromRecords("cross", []string{"product_name", "platform", "price_month_1", "price_month_2", "price_month_3", "sales_month_1", "sales_month_2", "sales_month_3"}, [][]string{
		{"Cricket Bat", "Amazon", "1000", "1100", "", "5", "6", "7"},
		{"cricket bat ", "eBay", "900", "950", "990", "", "", ""},
		{"Other", "Amazon", "1", "2", "3", "1", "1", "1"},
	})
	now := time.Date(2024, 6, 15, 13, 0, 0, 0, time.UTC)
	long, err := ExpandMonthly(tbl, "Cricket Bat", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "platform", "price", "sales"}, long.Columns)
	assert.Equal(t, 6, long.Len())
	assert.Equal(t, []string{"2024-04-15", "Amazon", "1000", "5"}, long.Rows[0])
	assert.Equal(t, []string{"2024-06-15", "Amazon", "", "7"}, long.Rows[2])

	price, _, err := NewPrice().Prepare(long)
	require.NoError(t, err)
	assert.Len(t, price["Amazon"], 2)
	assert.Len(t, price["eBay"], 3)

	_, err = ExpandMonthly(table.FromRecords("x", []string{"product_name", "platform"}, nil), "a", now)
	var schema *models.SchemaError
	assert.True(t, errors.As(err, &schema))
}
