// Package jobs runs named background tasks in-process.
//
// Tasks are fire-and-forget: Execute returns as soon as the task is started,
// nothing is persisted, failed tasks are not retried and panics are recovered
// and logged. Wait lets shutdown drain in-flight tasks.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

var (
	ErrUnknownTask    = errors.New("unknown task")
	ErrExecutorClosed = errors.New("executor closed")
)

// TaskFunc is the body of a background task. arg is the task's only input.
type TaskFunc func(ctx context.Context, arg string) error

type Executor struct {
	log zerolog.Logger

	mu     sync.Mutex
	tasks  map[string]TaskFunc
	closed bool
	wg     conc.WaitGroup
}

func NewExecutor(log zerolog.Logger) *Executor {
	return &Executor{
		log:   log.With().Str("component", "jobs").Logger(),
		tasks: map[string]TaskFunc{},
	}
}

// Register binds fn to name, replacing any previous binding.
func (e *Executor) Register(name string, fn TaskFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks[name] = fn
}

// Execute starts the task registered as name in its own goroutine.
func (e *Executor) Execute(name, arg string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrExecutorClosed
	}
	fn, ok := e.tasks[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	e.wg.Go(func() { e.run(name, arg, fn) })
	return nil
}

func (e *Executor) run(name, arg string, fn TaskFunc) {
	log := e.log.With().Str("task", name).Str("arg", arg).Logger()
	ctx := log.WithContext(context.Background())
	start := time.Now()

	var err error
	var pc panics.Catcher
	pc.Try(func() { err = fn(ctx, arg) })

	if r := pc.Recovered(); r != nil {
		log.Error().Str("panic", fmt.Sprint(r.Value)).Bytes("stack", r.Stack).Msg("task panicked")
		return
	}
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("task failed")
		return
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("task finished")
}

// Wait stops accepting tasks and blocks until the running ones return or ctx
// is done.
func (e *Executor) Wait(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
