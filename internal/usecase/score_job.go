package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ShopScore/internal/domain/models"
	"ShopScore/pkg/cache"
	"ShopScore/pkg/logger"
	"ShopScore/pkg/queue"

	"github.com/google/uuid"
)

// ScoreJobType is the queue message type of asynchronous evaluations.
const ScoreJobType = "score.evaluate"

// ErrJobPending is returned for jobs that have not finished yet.
var ErrJobPending = errors.New("score job pending")

// ScoreJobPayload is the queued evaluation request.
type ScoreJobPayload struct {
	JobID  string              `json:"job_id"`
	Params ProductReportParams `json:"params"`
}

// ScoreJobResult is what a finished job leaves behind.
type ScoreJobResult struct {
	JobID    string                `json:"job_id"`
	Status   string                `json:"status"`
	Report   *models.ProductReport `json:"report,omitempty"`
	Error    string                `json:"error,omitempty"`
	Finished time.Time             `json:"finished_at"`
}

// ScoreJob runs queued evaluations.
type ScoreJob struct {
	reports   *ProductReportUseCase
	results   cache.Service
	resultTTL time.Duration
	logger    *logger.Logger
}

// NewScoreJob creates the job. results may be nil, in which case finished
// reports are only cached and published by the report use case.
func NewScoreJob(reports *ProductReportUseCase, results cache.Service, ttl time.Duration, log *logger.Logger) *ScoreJob {
	if log == nil {
		log = logger.Nop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ScoreJob{reports: reports, results: results, resultTTL: ttl, logger: log}
}

func (j *ScoreJob) Name() string { return "product-score" }

func (j *ScoreJob) Type() string { return ScoreJobType }

// Handle evaluates one product. Errors that a retry cannot fix are recorded
// on the job result and swallowed so the message is not retried.
func (j *ScoreJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ScoreJobPayload](payload)
	if err != nil {
		j.logger.Error("invalid score job payload", logger.Error(err))
		return nil
	}
	report, err := j.reports.Evaluate(ctx, p.Params)
	if err != nil {
		if permanent(err) {
			j.logger.Warn("score job rejected",
				logger.String("job_id", p.JobID),
				logger.String("product", p.Params.Product),
				logger.Error(err))
			j.store(ctx, ScoreJobResult{JobID: p.JobID, Status: "failed", Error: err.Error()})
			return nil
		}
		return fmt.Errorf("evaluate %s: %w", p.Params.Product, err)
	}
	j.store(ctx, ScoreJobResult{JobID: p.JobID, Status: "done", Report: report})
	j.logger.Info("score job done",
		logger.String("job_id", p.JobID),
		logger.String("product", report.Product),
		logger.Float64("overall", report.Score.Overall))
	return nil
}

// DeadLetter records a failed result for a job that ran out of retries so
// pollers stop waiting on it.
func (j *ScoreJob) DeadLetter(ctx context.Context, payload interface{}, err error) {
	p, perr := queue.ParsePayload[ScoreJobPayload](payload)
	if perr != nil {
		return
	}
	j.logger.Warn("score job gave up",
		logger.String("job_id", p.JobID),
		logger.String("product", p.Params.Product),
		logger.Error(err))
	j.store(ctx, ScoreJobResult{JobID: p.JobID, Status: "failed", Error: err.Error()})
}

func (j *ScoreJob) store(ctx context.Context, r ScoreJobResult) {
	if j.results == nil || r.JobID == "" {
		return
	}
	r.Finished = time.Now().UTC()
	if err := j.results.Set(ctx, jobKey(r.JobID), r, j.resultTTL); err != nil {
		j.logger.Warn("score job result write failed", logger.String("job_id", r.JobID), logger.Error(err))
	}
}

func permanent(err error) bool {
	var schema *models.SchemaError
	return errors.Is(err, models.ErrProductNotFound) ||
		errors.Is(err, models.ErrInvalidWeights) ||
		errors.As(err, &schema)
}

func jobKey(id string) string { return cache.GenerateKey("score_job", id) }

// ScoreSubmitter queues evaluations and looks up their results.
type ScoreSubmitter struct {
	queue   queue.Queue
	catalog *Catalog
	results cache.Service
	logger  *logger.Logger
}

func NewScoreSubmitter(q queue.Queue, catalog *Catalog, results cache.Service, log *logger.Logger) *ScoreSubmitter {
	if log == nil {
		log = logger.Nop()
	}
	return &ScoreSubmitter{queue: q, catalog: catalog, results: results, logger: log}
}

// Submit validates the product and queues its evaluation, returning the job id.
func (s *ScoreSubmitter) Submit(ctx context.Context, p ProductReportParams) (string, error) {
	if _, err := s.catalog.Lookup(p.Product); err != nil {
		return "", err
	}
	id := uuid.NewString()
	msgID, err := s.queue.Enqueue(ctx, ScoreJobType, ScoreJobPayload{JobID: id, Params: p})
	if err != nil {
		return "", fmt.Errorf("enqueue score job: %w", err)
	}
	s.logger.Debug("score job queued",
		logger.String("job_id", id),
		logger.String("message_id", msgID),
		logger.String("product", p.Product))
	return id, nil
}

// Result returns a finished job, or ErrJobPending.
func (s *ScoreSubmitter) Result(ctx context.Context, id string) (*ScoreJobResult, error) {
	if s.results == nil {
		return nil, ErrJobPending
	}
	var r ScoreJobResult
	if err := s.results.Get(ctx, jobKey(id), &r); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrJobPending
		}
		return nil, err
	}
	return &r, nil
}
