package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"ShopScore/internal/domain/repository"
)

var _ repository.Metrics = (*Recorder)(nil)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordScore("Amazon", 82.5)
	r.RecordScore("Amazon", 71)
	r.RecordFitFailure("sales", "eBay")
	r.RecordDegraded("geo")
	r.RecordDegraded("geo")
	r.RecordError("reviews")
	r.RecordLatency("evaluate", 0.2)

	assert.Equal(t, 71.0, testutil.ToFloat64(r.lastScore.WithLabelValues("Amazon")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fitFailures.WithLabelValues("sales", "eBay")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.degraded.WithLabelValues("geo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("reviews")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.scores))

	// a second recorder on its own registry must not collide
	New(prometheus.NewRegistry())
}
