package queue

import "context"

// Job defines a queue job handler.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Type returns the type of message that the job handles.
	Type() string

	// Handle processes one message. The payload is the JSON the producer
	// enqueued, as json.RawMessage; decode it with ParsePayload.
	Handle(ctx context.Context, payload interface{}) error
}

// DeadLetterer is implemented by jobs that need to know when a message
// exhausts its retries. err is the last handler error.
type DeadLetterer interface {
	DeadLetter(ctx context.Context, payload interface{}, err error)
}
