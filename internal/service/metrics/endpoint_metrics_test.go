package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	Register()
	Register()

	Observe("score", time.Now(), 200)
	Observe("score", time.Now(), 422)
	Observe("score", time.Now(), 503)

	assert.Equal(t, 1.0, testutil.ToFloat64(EndpointErrors.WithLabelValues("score", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(EndpointErrors.WithLabelValues("score", "5xx")))
	assert.Equal(t, "429", statusClass(429))
}
