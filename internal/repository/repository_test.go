package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ShopScore/internal/domain/models"
	"ShopScore/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func obs(platform string, d int, v float64) models.StoredObservation {
	return models.StoredObservation{Product: "Apple iPhone", Metric: models.MetricPrice, Platform: platform, Date: day(d), Value: v}
}

func TestMemorySeriesStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySeriesStore()
	require.NoError(t, s.SaveObservations(ctx, []models.StoredObservation{
		obs("eBay", 2, 100), obs("Amazon", 2, 90), obs("Amazon", 1, 95),
		obs("Amazon", 1, 97),
		{Product: "", Date: day(1)},
	}))

	got, err := s.LoadObservations(ctx, repository.SeriesQuery{Product: "Apple iPhone", Metric: models.MetricPrice})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Amazon", got[0].Platform)
	assert.Equal(t, 97.0, got[0].Value)
	assert.Equal(t, day(2), got[1].Date)
	assert.Equal(t, "eBay", got[2].Platform)

	got, _ = s.LoadObservations(ctx, repository.SeriesQuery{Product: "Apple iPhone", Metric: models.MetricPrice, Platform: "Amazon", From: day(2)})
	require.Len(t, got, 1)
	assert.Equal(t, 90.0, got[0].Value)

	got, _ = s.LoadObservations(ctx, repository.SeriesQuery{Product: "Apple iPhone", Metric: models.MetricPrice, Limit: 1})
	assert.Len(t, got, 1)

	got, _ = s.LoadObservations(ctx, repository.SeriesQuery{Product: "Apple iPhone", Metric: models.MetricSales})
	assert.Empty(t, got)
}

func TestBuildSelect(t *testing.T) {
	q, args := buildSelect("product_series", repository.SeriesQuery{
		Product: "P", Metric: models.MetricSales, Platform: "Amazon", From: day(1), Limit: 10,
	})
	assert.Equal(t, "SELECT product, metric, platform, date, value FROM product_series FINAL "+
		"WHERE product = ? AND metric = ? AND platform = ? AND date >= ? ORDER BY platform, date LIMIT ?", q)
	assert.Equal(t, []interface{}{"P", "sales", "Amazon", day(1), 10}, args)
}

func TestBuildInsertSkipsIncompleteRows(t *testing.T) {
	q, args := buildInsert("t", []models.StoredObservation{obs("A", 1, 1), {Product: "P"}})
	assert.Equal(t, "INSERT INTO t (product, metric, platform, date, value) VALUES (?, ?, ?, ?, ?)", q)
	assert.Len(t, args, 5)
}

type fakeProducer struct {
	topic  string
	key    []byte
	value  interface{}
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return nil
}

func (f *fakeProducer) Close() error { f.closed = true; return nil }

func TestKafkaScorePublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaScorePublisher(fp, "shopscore.scores")
	ev := models.ScoreEvent{ID: "id-1", Product: "Cricket Bat", Overall: 71.5, Tier: "Good"}
	require.NoError(t, p.PublishScore(context.Background(), ev))

	assert.Equal(t, "shopscore.scores", fp.topic)
	assert.Equal(t, "Cricket Bat", string(fp.key))
	b, err := json.Marshal(fp.value)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"overall":71.5`)

	require.NoError(t, p.Close())
	assert.True(t, fp.closed)
}
