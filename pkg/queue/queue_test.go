package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Product string `json:"product"`
}

type recordingJob struct {
	fails int32
	calls atomic.Int32
	seen  chan string
}

func (j *recordingJob) Name() string { return "recording" }
func (j *recordingJob) Type() string { return "test.record" }

func (j *recordingJob) Handle(_ context.Context, raw interface{}) error {
	n := j.calls.Add(1)
	p, err := ParsePayload[payload](raw)
	if err != nil {
		return err
	}
	if n <= j.fails {
		return errors.New("transient")
	}
	j.seen <- p.Product
	return nil
}

func TestMemoryQueueRunsJobs(t *testing.T) {
	q := NewMemoryQueue(nil, &QueueConfig{Workers: 2})
	job := &recordingJob{seen: make(chan string, 1)}
	q.RegisterJob(job)
	require.NoError(t, q.Start())
	defer q.Stop(context.Background())

	id, err := q.Enqueue(context.Background(), job.Type(), payload{"Apple iPhone"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case got := <-job.seen:
		assert.Equal(t, "Apple iPhone", got)
	case <-time.After(2 * time.Second):
		t.Fatal("job not processed")
	}
}

func TestMemoryQueueRetriesThenDeadLetters(t *testing.T) {
	q := NewMemoryQueue(nil, &QueueConfig{RetryLimit: 1, RetryDelay: 10 * time.Millisecond})
	job := &recordingJob{fails: 5, seen: make(chan string, 1)}
	q.RegisterJob(job)
	require.NoError(t, q.Start())
	defer q.Stop(context.Background())

	_, err := q.Enqueue(context.Background(), job.Type(), payload{"P"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(q.DeadLetters()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), job.calls.Load())
	dead := q.DeadLetters()[0]
	assert.Equal(t, 1, dead.Attempts)
	assert.Equal(t, "transient", dead.LastError)
}

type deadJob struct {
	recordingJob
	dead chan string
}

func (j *deadJob) DeadLetter(_ context.Context, raw interface{}, err error) {
	p, perr := ParsePayload[payload](raw)
	if perr != nil {
		return
	}
	j.dead <- p.Product + ": " + err.Error()
}

func TestMemoryQueueNotifiesDeadLetterer(t *testing.T) {
	q := NewMemoryQueue(nil, &QueueConfig{RetryLimit: 1, RetryDelay: 5 * time.Millisecond})
	job := &deadJob{recordingJob: recordingJob{fails: 5, seen: make(chan string, 1)}, dead: make(chan string, 1)}
	q.RegisterJob(job)
	require.NoError(t, q.Start())
	defer q.Stop(context.Background())

	_, err := q.Enqueue(context.Background(), job.Type(), payload{"P"})
	require.NoError(t, err)
	select {
	case got := <-job.dead:
		assert.Equal(t, "P: transient", got)
	case <-time.After(2 * time.Second):
		t.Fatal("dead letter not reported")
	}
	assert.Equal(t, int32(2), job.calls.Load())
}

func TestMemoryQueueRetrySucceeds(t *testing.T) {
	q := NewMemoryQueue(nil, &QueueConfig{RetryLimit: 3, RetryDelay: 5 * time.Millisecond})
	job := &recordingJob{fails: 1, seen: make(chan string, 1)}
	q.RegisterJob(job)
	require.NoError(t, q.Start())
	defer q.Stop(context.Background())

	_, err := q.Enqueue(context.Background(), job.Type(), payload{"P"})
	require.NoError(t, err)
	select {
	case <-job.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("retry never succeeded")
	}
	assert.Empty(t, q.DeadLetters())
}

func TestMemoryQueueRejects(t *testing.T) {
	q := NewMemoryQueue(nil, nil)
	_, err := q.Enqueue(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, q.Start())
	defer q.Stop(context.Background())
	_, err = q.Enqueue(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Error(t, q.Start())
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload[payload](json.RawMessage(`{"product":"A"}`))
	require.NoError(t, err)
	assert.Equal(t, "A", p.Product)

	p, err = ParsePayload[payload](map[string]interface{}{"product": "B"})
	require.NoError(t, err)
	assert.Equal(t, "B", p.Product)

	p, err = ParsePayload[payload](payload{"C"})
	require.NoError(t, err)
	assert.Equal(t, "C", p.Product)

	_, err = ParsePayload[payload](42)
	assert.Error(t, err)
}

func TestRedisQueueKeys(t *testing.T) {
	q := NewRedisQueue(nil, nil, nil, WithKeyPrefix("x:q"))
	assert.Equal(t, "x:q:messages", q.queueKey())
	assert.Equal(t, "x:q:retry", q.retryKey())
	assert.Equal(t, "x:q:dlq", q.deadLetterKey())
	_, err := q.Enqueue(context.Background(), "t", nil)
	assert.ErrorIs(t, err, ErrNotRunning)
}
