package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	models "ShopScore/internal/domain/models"
	"ShopScore/internal/service/ratelimit"
	"ShopScore/internal/services/classifier"
	"ShopScore/internal/services/forecast"
	"ShopScore/internal/services/geo"
	"ShopScore/internal/services/scoring"
	"ShopScore/internal/usecase"
	"ShopScore/pkg/cache"
	"ShopScore/pkg/config"
	xhttp "ShopScore/pkg/http"
	"ShopScore/pkg/queue"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type options struct {
	train   bool
	limiter *ratelimit.Limiter
	async   bool
}

func newServer(t *testing.T, o options) *echo.Echo {
	t.Helper()
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("platform,review,date,price,sales\n")
	for i := 0; i < 14; i++ {
		d := time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		fmt.Fprintf(&b, "Amazon,Works fine,%s,%d,%d\n", d, 500+i%2, 5+i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shoe.csv"), []byte(b.String()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train.csv"),
		[]byte("text,label\nGood shoe,OR\nBUY NOW!!!,CG\nComfortable,OR\nLIMITED OFFER!!!,CG\n"), 0o644))

	cfg := &config.Config{}
	cfg.Data.Dir = dir
	cfg.Data.TrainingFiles = []string{"train.csv"}
	cfg.Data.Products = []config.Product{{Name: "Nike Revolution", File: "shoe.csv", Category: "Footwear"}}

	cat := usecase.NewCatalog(cfg, nil)
	det := classifier.NewDetector(nil)
	if o.train {
		require.NoError(t, usecase.TrainDetector(cat, det, nil))
	}
	agg, err := scoring.New()
	require.NoError(t, err)
	reports := usecase.NewProductReportUseCase(cat, det, forecast.NewPrice(), forecast.NewSales(), geo.New(), agg,
		usecase.WithDefaults(0.5, 14, 1))

	var jobs *usecase.ScoreSubmitter
	if o.async {
		results := cache.NewMemoryCache()
		t.Cleanup(func() { _ = results.Close() })
		q := queue.NewMemoryQueue(nil, &queue.QueueConfig{Workers: 1})
		q.RegisterJob(usecase.NewScoreJob(reports, results, time.Minute, nil))
		require.NoError(t, q.Start())
		t.Cleanup(func() { _ = q.Stop(context.Background()) })
		jobs = usecase.NewScoreSubmitter(q, cat, results, nil)
	}

	e := echo.New()
	NewScoreEchoHandler(nil, reports, jobs, nil, o.limiter).RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestScoreEndpoint(t *testing.T) {
	e := newServer(t, options{train: true})

	rec, env := do(t, e, http.MethodPost, "/api/score", `{"product":"nike revolution","pin":"560001","platform":"Amazon"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusOK, env.Status)

	var report models.ProductReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, "Nike Revolution", report.Product)
	assert.Equal(t, "Amazon", report.Platform)
	assert.Len(t, report.Score.Breakdown, 5)
	assert.Equal(t, "private, max-age=60", rec.Header().Get(echo.HeaderCacheControl))

	rec, _ = do(t, e, http.MethodGet, "/api/score?product=Nike%20Revolution&pin=110001", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScoreEndpointErrors(t *testing.T) {
	e := newServer(t, options{train: true})

	cases := map[string]struct {
		body   string
		status int
		code   string
	}{
		"unknown product": {`{"product":"Toaster","pin":"110001"}`, http.StatusNotFound, "ERR_NOT_FOUND"},
		"missing pin":     {`{"product":"Nike Revolution"}`, http.StatusBadRequest, ""},
		"bad weights":     {`{"product":"Nike Revolution","pin":"110001","reliability_weight":0.9}`, http.StatusBadRequest, "ERR_INVALID_WEIGHTS"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec, env := do(t, e, http.MethodPost, "/api/score", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.status, env.Status)
			if tc.code != "" {
				var errs []xhttp.AppError
				require.NoError(t, json.Unmarshal(env.Data, &errs))
				require.Len(t, errs, 1)
				assert.Equal(t, tc.code, errs[0].Code)
			}
		})
	}
}

func TestClassifyUntrainedConflicts(t *testing.T) {
	e := newServer(t, options{})

	rec, _ := do(t, e, http.MethodPost, "/api/reviews/classify", `{"reviews":[{"text":"nice"}]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestClassifyEndpoint(t *testing.T) {
	e := newServer(t, options{train: true})

	rec, env := do(t, e, http.MethodPost, "/api/reviews/classify", `{"reviews":[{"text":"nice"},{"text":"BUY NOW!!!"}],"threshold":0.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var a models.ReviewAnalysis
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, 2, a.Overall.TotalCount)

	rec, env = do(t, e, http.MethodPost, "/api/reviews/classify", `{"reviews":[{"text":"nice"},{"text":"BUY NOW!!!"}],"threshold":0}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, 0.0, a.Overall.Threshold)
	assert.Equal(t, 2, a.Overall.FakeCount)

	rec, env = do(t, e, http.MethodPost, "/api/reviews/classify", `{"reviews":[{"text":"nice"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, 0.5, a.Overall.Threshold)
}

func TestEcoAndForecastEndpoints(t *testing.T) {
	e := newServer(t, options{train: true})

	rec, env := do(t, e, http.MethodPost, "/api/eco", `{"pin":"110001","platforms":["Amazon","Flipkart"],"weight_kg":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var eco models.EcoReport
	require.NoError(t, json.Unmarshal(env.Data, &eco))
	assert.Len(t, eco.Platforms, 2)

	rec, env = do(t, e, http.MethodPost, "/api/forecast", `{"product":"Nike Revolution","metric":"sales","horizon":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fc map[string]models.Forecast
	require.NoError(t, json.Unmarshal(env.Data, &fc))
	assert.Equal(t, 7, fc["Amazon"].Horizon)

	rec, _ = do(t, e, http.MethodPost, "/api/forecast", `{"product":"Nike Revolution","metric":"volume"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductsAndDisabledEndpoints(t *testing.T) {
	e := newServer(t, options{})

	rec, env := do(t, e, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list xhttp.ListDataResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.Total)

	rec, _ = do(t, e, http.MethodGet, "/api/series?product=Nike%20Revolution", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec, _ = do(t, e, http.MethodPost, "/api/score/async", `{"product":"Nike Revolution","pin":"110001"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	e := newServer(t, options{train: true, limiter: ratelimit.New(0.001, 1)})

	rec, _ := do(t, e, http.MethodPost, "/api/eco", `{"pin":"110001"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, e, http.MethodPost, "/api/eco", `{"pin":"110001"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAsyncScore(t *testing.T) {
	e := newServer(t, options{train: true, async: true})

	rec, env := do(t, e, http.MethodPost, "/api/score/async", `{"product":"Nike Revolution","pin":"110001"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var accepted models.AsyncScoreAccepted
	require.NoError(t, json.Unmarshal(env.Data, &accepted))
	require.NotEmpty(t, accepted.JobID)

	require.Eventually(t, func() bool {
		rec, _ := do(t, e, http.MethodGet, "/api/score/jobs/"+accepted.JobID, "")
		return rec.Code == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	rec, _ = do(t, e, http.MethodPost, "/api/score/async", `{"product":"Toaster","pin":"110001"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToAppError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&models.SchemaError{Table: "t"}, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", models.ErrInvalidWeights), http.StatusBadRequest},
		{models.ErrProductNotFound, http.StatusNotFound},
		{models.ErrUntrainedModel, http.StatusConflict},
		{&models.InsufficientDataError{Platform: "Amazon"}, http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, toAppError(tc.err).Status, tc.err.Error())
	}
}
