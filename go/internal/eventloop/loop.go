package eventloop

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrStopped is returned by Call when the loop is no longer running.
var ErrStopped = errors.New("event loop stopped")

// Scheduler runs tasks one at a time, in the order they were posted.
// All view state (staging, previews, form, bid display, countdown) is only
// touched from inside a scheduled task.
type Scheduler interface {
	Post(task func())
}

// Loop is a channel backed Scheduler. Run drains the queue on a single goroutine.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// NewLoop creates a loop with the given queue capacity
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Post enqueues a task. It blocks when the queue is full and drops the task
// once the loop has stopped.
func (l *Loop) Post(task func()) {
	select {
	case l.tasks <- task:
	case <-l.done:
		log.Debug().Msg("event loop stopped, dropping task")
	}
}

// Run executes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-l.tasks:
			l.run(task)
		}
	}
}

func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("event loop task panicked")
		}
	}()
	task()
}

// Call posts fn and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case l.tasks <- func() {
		defer close(finished)
		fn()
	}:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inline runs every task immediately on the caller's goroutine. It is only
// suitable when the caller already is the UI goroutine.
type Inline struct{}

// Post runs task synchronously.
func (Inline) Post(task func()) { task() }
