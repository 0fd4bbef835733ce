package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	models "ShopScore/internal/domain/models"
	"ShopScore/internal/service/metrics"
	"ShopScore/internal/service/ratelimit"
	"ShopScore/internal/usecase"
	xhttp "ShopScore/pkg/http"
	xlogger "ShopScore/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScoreEchoHandler serves product reports and the individual signals.
type ScoreEchoHandler struct {
	logger  *xlogger.Logger
	reports *usecase.ProductReportUseCase
	jobs    *usecase.ScoreSubmitter
	series  *usecase.SeriesUseCase
	limiter *ratelimit.Limiter
}

// NewScoreEchoHandler wires the handler. jobs and series may be nil, which
// disables the asynchronous and history endpoints.
func NewScoreEchoHandler(
	logger *xlogger.Logger,
	reports *usecase.ProductReportUseCase,
	jobs *usecase.ScoreSubmitter,
	series *usecase.SeriesUseCase,
	limiter *ratelimit.Limiter,
) *ScoreEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	metrics.Register()
	return &ScoreEchoHandler{logger: logger, reports: reports, jobs: jobs, series: series, limiter: limiter}
}

func (h *ScoreEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/products", h.Products)
	g.GET("/score", h.limited("score", h.Score))
	g.POST("/score", h.limited("score", h.Score))
	g.POST("/score/async", h.limited("score_async", h.ScoreAsync))
	g.GET("/score/jobs/:id", h.ScoreJob)
	g.POST("/reviews/classify", h.limited("classify", h.Classify))
	g.POST("/eco", h.limited("eco", h.Eco))
	g.POST("/forecast", h.limited("forecast", h.Forecast))
	g.GET("/series", h.Series)
}

// limited rejects callers over their token bucket and records endpoint metrics.
func (h *ScoreEchoHandler) limited(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if !h.limiter.Allow(c.RealIP()) {
			metrics.RateLimited.WithLabelValues(endpoint).Inc()
			metrics.Observe(endpoint, start, http.StatusTooManyRequests)
			return xhttp.TooManyRequestsResponse(c)
		}
		err := next(c)
		metrics.Observe(endpoint, start, c.Response().Status)
		return err
	}
}

func (h *ScoreEchoHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if h.series != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.series.Health(ctx); err != nil {
			h.logger.Warn("series store unhealthy", xlogger.Error(err))
			status["status"] = "degraded"
			status["series_store"] = err.Error()
		}
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *ScoreEchoHandler) Products(c echo.Context) error {
	products := h.reports.Products()
	return xhttp.ListResponse(c, products, int64(len(products)))
}

func (h *ScoreEchoHandler) Score(c echo.Context) error {
	req := &models.ScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.reports.Evaluate(c.Request().Context(), reportParams(req))
	if err != nil {
		return h.fail(c, "score", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *ScoreEchoHandler) ScoreAsync(c echo.Context) error {
	if h.jobs == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("asynchronous scoring is disabled"))
	}
	req := &models.ScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	id, err := h.jobs.Submit(c.Request().Context(), reportParams(req))
	if err != nil {
		return h.fail(c, "score_async", err)
	}
	return xhttp.AcceptedResponse(c, models.AsyncScoreAccepted{JobID: id})
}

func (h *ScoreEchoHandler) ScoreJob(c echo.Context) error {
	if h.jobs == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("asynchronous scoring is disabled"))
	}
	id := c.Param("id")
	res, err := h.jobs.Result(c.Request().Context(), id)
	if errors.Is(err, usecase.ErrJobPending) {
		return xhttp.AcceptedResponse(c, usecase.ScoreJobResult{JobID: id, Status: "pending"})
	}
	if err != nil {
		return h.fail(c, "score_job", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScoreEchoHandler) Classify(c echo.Context) error {
	req := &models.ClassifyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.reports.Classify(req.Reviews, req.Threshold)
	if err != nil {
		return h.fail(c, "classify", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScoreEchoHandler) Eco(c echo.Context) error {
	req := &models.EcoRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.reports.Eco(req.Destination, req.Platforms, req.WeightKg))
}

func (h *ScoreEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.reports.Forecast(c.Request().Context(), req.Product, models.Metric(req.Metric), req.Horizon)
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScoreEchoHandler) Series(c echo.Context) error {
	if h.series == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("series store is disabled"))
	}
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.series.History(c.Request().Context(), usecase.SeriesParams{
		Product:  req.Product,
		Metric:   models.Metric(req.Metric),
		Platform: req.Platform,
		From:     xhttp.ParseTimeDefault(req.From, time.Time{}),
		To:       xhttp.ParseTimeDefault(req.To, time.Time{}),
		Limit:    req.Limit,
	})
	if err != nil {
		return h.fail(c, "series", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScoreEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Debug(endpoint+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain errors onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var schema *models.SchemaError
	var insufficient *models.InsufficientDataError
	switch {
	case errors.As(err, &schema):
		return xhttp.NewAppError("ERR_SCHEMA", schema.Table, err.Error(), http.StatusBadRequest).
			WithParam("wanted", schema.Wanted).WithError(err)
	case errors.Is(err, models.ErrInvalidWeights):
		return xhttp.NewAppError("ERR_INVALID_WEIGHTS", "weights", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, models.ErrProductNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrUntrainedModel):
		return xhttp.ConflictError(err.Error()).WithError(err)
	case errors.As(err, &insufficient):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.UnavailableError("evaluation timed out").WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}

func reportParams(req *models.ScoreRequest) usecase.ProductReportParams {
	return usecase.ProductReportParams{
		Product:     req.Product,
		Destination: req.Destination,
		Platform:    req.Platform,
		WeightKg:    req.WeightKg,
		Threshold:   req.Threshold,
		Horizon:     req.Horizon,
		Reliability: req.Reliability,
	}
}
