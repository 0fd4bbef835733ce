package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeComponent struct {
	name     string
	rec      *recorder
	startErr error
	stopErr  error
}

func (f *fakeComponent) Start() error {
	f.rec.add("start " + f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(context.Context) error {
	f.rec.add("stop " + f.name)
	return f.stopErr
}

func TestRunStopsInReverseOrder(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int32

	app := New(nil,
		WithComponent("queue", &fakeComponent{name: "queue", rec: rec}),
		WithComponent("http", &fakeComponent{name: "http", rec: rec}),
		WithCloser("store", func() error { rec.add("close store"); return nil }),
		WithTicker("sweep", 5*time.Millisecond, func() { ticks.Add(1) }),
	)

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	require.Eventually(t, func() bool { return ticks.Load() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, []string{"start queue", "start http", "stop http", "stop queue", "close store"}, rec.list())
}

func TestRunStartFailureStopsStarted(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	app := New(nil,
		WithComponent("queue", &fakeComponent{name: "queue", rec: rec}),
		WithComponent("http", &fakeComponent{name: "http", rec: rec, startErr: boom}),
		WithComponent("never", &fakeComponent{name: "never", rec: rec}),
	)

	err := app.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"start queue", "start http", "stop queue"}, rec.list())
}

func TestShutdownCombinesErrors(t *testing.T) {
	rec := &recorder{}
	stopErr := errors.New("stop failed")
	closeErr := errors.New("close failed")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	app := New(nil,
		WithComponent("http", &fakeComponent{name: "http", rec: rec, stopErr: stopErr}),
		WithCloser("kafka", func() error { return closeErr }),
	)
	err := app.Run(ctx)
	assert.ErrorIs(t, err, stopErr)
	assert.ErrorIs(t, err, closeErr)
}
