// Package eventloop coordinates pipeline runs with the cancel hotkey. One
// run executes at a time; the hotkey cancels whatever run is in flight.
package eventloop

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"qt-visual-agent/hotkey"
	"qt-visual-agent/pipeline"
	"qt-visual-agent/worker"
)

// Loop is the single-threaded coordinator for pipeline runs and the global
// cancel hotkey.
type Loop struct {
	pool     *worker.Pool
	log      *zap.Logger
	results  chan result
	cancelCh chan struct{}
}

type result struct {
	res *pipeline.RunResult
	err error
}

// New creates a new event loop. The pool is sized 1: runs own the pointer
// and keyboard exclusively.
func New(log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		pool:     worker.New(1, log),
		log:      log,
		results:  make(chan result, 1),
		cancelCh: make(chan struct{}, 4),
	}
}

// StartCancelHotkey registers a global hotkey that cancels the running
// pipeline.
func (l *Loop) StartCancelHotkey(combo string) error {
	if combo == "" {
		return nil
	}
	c, ok := hotkey.ParseCombo(combo)
	if !ok {
		return errors.New("invalid cancel hotkey: " + combo)
	}
	hotkey.Listen(c, l.log, func() {
		select {
		case l.cancelCh <- struct{}{}:
		default:
		}
	})
	return nil
}

// Execute runs one pipeline to completion, honoring both ctx and the cancel
// hotkey. It blocks until the run finishes.
func (l *Loop) Execute(ctx context.Context, p *pipeline.Pipeline, entry string) (*pipeline.RunResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Drain stale presses so an old cancel does not kill a fresh run.
	for {
		select {
		case <-l.cancelCh:
			continue
		default:
		}
		break
	}

	submitted := l.pool.Submit(runCtx, p, entry, func(res *pipeline.RunResult, err error) {
		l.results <- result{res: res, err: err}
	})
	if !submitted {
		return nil, errors.New("a pipeline run is already in flight")
	}

	for {
		select {
		case <-l.cancelCh:
			l.log.Info("cancel hotkey pressed, stopping run")
			cancel()
		case r := <-l.results:
			return r.res, r.err
		}
	}
}

// Close shuts down the worker pool after draining current work.
func (l *Loop) Close() {
	l.pool.Close()
}
