package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"qt-visual-agent/pipeline"
)

// ResultCallback is invoked on run completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop
// safely.
type ResultCallback func(res *pipeline.RunResult, err error)

// Pool is a fixed-size pipeline worker pool with a 1-slot input queue
// (strict back-pressure). Size 1 keeps input injection exclusive.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
	log  *zap.Logger
}

type job struct {
	ctx   context.Context
	p     *pipeline.Pipeline
	entry string
	cb    ResultCallback
}

// New creates a worker pool. Size defaults to 1 when size<=0: pipelines
// drive a shared pointer and keyboard, so runs must not overlap. Queue is
// 1 slot.
func New(size int, log *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pool{jobs: make(chan job, 1), log: log}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.log.Debug("worker: starting run", zap.String("entry", j.entry))
				res, err := j.p.Run(j.ctx, j.entry)
				p.log.Debug("worker: run finished", zap.String("entry", j.entry), zap.Error(err))
				j.cb(res, err)
			}
		}()
	}
}

// Submit enqueues a run if the single-slot queue is free. Returns false if
// dropped.
func (p *Pool) Submit(ctx context.Context, pl *pipeline.Pipeline, entry string, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, p: pl, entry: entry, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
