package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"qt-visual-agent/action"
	"qt-visual-agent/recognize"
	"qt-visual-agent/screenshot"
	"qt-visual-agent/vision"
)

// Status is a run's terminal state.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// FailReason names why a run stopped short of a leaf node.
type FailReason string

const (
	ReasonNone               FailReason = ""
	ReasonRecognitionTimeout FailReason = "recognition_timeout"
	ReasonMissingTarget      FailReason = "missing_target"
	ReasonInputDispatch      FailReason = "input_dispatch"
	ReasonStepLimit          FailReason = "step_limit_exceeded"
)

// TraceEntry records the processing of one node, in execution order.
type TraceEntry struct {
	Node          string             `json:"node"`
	Result        vision.MatchResult `json:"result"`
	ActionApplied bool               `json:"action_applied"`
	ElapsedMS     float64            `json:"elapsed_ms"`
}

// RunResult is the full report of one pipeline run. Failures live here as
// values; Run itself only errors on an unknown entry node.
type RunResult struct {
	RunID      string       `json:"run_id"`
	Entry      string       `json:"entry"`
	Success    bool         `json:"success"`
	Status     Status       `json:"status"`
	Reason     FailReason   `json:"reason,omitempty"`
	FailedNode string       `json:"failed_node,omitempty"`
	Error      string       `json:"error,omitempty"`
	Trace      []TraceEntry `json:"trace"`
	ElapsedMS  float64      `json:"elapsed_ms"`
}

type recStatus int

const (
	recHit recStatus = iota
	recTimeout
	recCancelled
)

// Run walks the node graph from entry until a node without successors
// completes, a node fails, the step bound trips, or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, entry string) (*RunResult, error) {
	if _, ok := p.cfg.Nodes[entry]; !ok {
		return nil, &ConfigError{Node: entry, Field: "entry", Msg: "unknown entry node"}
	}

	res := &RunResult{
		RunID:  uuid.NewString(),
		Entry:  entry,
		Status: StatusFailed,
	}
	start := time.Now()
	defer func() {
		res.ElapsedMS = msSince(start)
		res.Success = res.Status == StatusSucceeded
		p.log.Info("run finished",
			zap.String("run_id", res.RunID),
			zap.String("status", string(res.Status)),
			zap.String("reason", string(res.Reason)),
			zap.Int("steps", len(res.Trace)),
			zap.Float64("elapsed_ms", res.ElapsedMS))
	}()

	cur := entry
	for steps := 0; ; steps++ {
		if steps >= p.maxSteps {
			res.Reason = ReasonStepLimit
			res.FailedNode = cur
			return res, nil
		}

		node := p.cfg.Nodes[cur]
		nodeStart := time.Now()
		p.log.Debug("node start", zap.String("run_id", res.RunID), zap.String("node", cur))

		if !node.Enabled {
			res.Trace = append(res.Trace, TraceEntry{Node: cur, ElapsedMS: msSince(nodeStart)})
			if len(node.Next) == 0 {
				res.Status = StatusSucceeded
				return res, nil
			}
			cur = node.Next[0]
			continue
		}

		if !sleepCtx(ctx, node.PreDelay) {
			res.Trace = append(res.Trace, TraceEntry{Node: cur, ElapsedMS: msSince(nodeStart)})
			res.Status = StatusCancelled
			return res, nil
		}

		m, frame, status := p.waitRecognize(ctx, node)
		switch status {
		case recCancelled:
			res.Trace = append(res.Trace, TraceEntry{Node: cur, Result: m, ElapsedMS: msSince(nodeStart)})
			res.Status = StatusCancelled
			return res, nil
		case recTimeout:
			res.Trace = append(res.Trace, TraceEntry{Node: cur, Result: m, ElapsedMS: msSince(nodeStart)})
			res.Reason = ReasonRecognitionTimeout
			res.FailedNode = cur
			p.saveFailureFrame(res.RunID, cur, frame)
			return res, nil
		}

		if !sleepCtx(ctx, node.PostDelay) {
			res.Trace = append(res.Trace, TraceEntry{Node: cur, Result: m, ElapsedMS: msSince(nodeStart)})
			res.Status = StatusCancelled
			return res, nil
		}

		outcome := action.Execute(p.driver, node.Action, matchedPoint(m))
		res.Trace = append(res.Trace, TraceEntry{
			Node:          cur,
			Result:        m,
			ActionApplied: outcome.Applied,
			ElapsedMS:     msSince(nodeStart),
		})
		if outcome.Err != nil {
			res.FailedNode = cur
			if errors.Is(outcome.Err, action.ErrMissingTarget) {
				res.Reason = ReasonMissingTarget
			} else {
				res.Reason = ReasonInputDispatch
				res.Error = outcome.Err.Error()
			}
			return res, nil
		}

		if len(node.Next) == 0 {
			res.Status = StatusSucceeded
			return res, nil
		}
		cur = node.Next[0]
	}
}

// waitRecognize polls node.Recognition until it hits or the node's timeout
// budget is spent. The budget is re-checked after every attempt, so even a
// zero timeout gets exactly one attempt.
func (p *Pipeline) waitRecognize(ctx context.Context, node *Node) (vision.MatchResult, image.Image, recStatus) {
	start := time.Now()
	var last vision.MatchResult
	var lastFrame image.Image
	for {
		if ctx.Err() != nil {
			return last, lastFrame, recCancelled
		}
		frame, err := p.frames()
		if err != nil {
			// Capture hiccups are retried within the budget.
			p.log.Warn("frame capture failed", zap.String("node", node.Name), zap.Error(err))
		} else {
			lastFrame = frame
			last = recognize.Recognize(frame, node.Recognition, p.res)
			if last.Success {
				return last, lastFrame, recHit
			}
		}
		if time.Since(start) >= node.Timeout {
			return last, lastFrame, recTimeout
		}
		if !sleepCtx(ctx, p.interval) {
			return last, lastFrame, recCancelled
		}
	}
}

func matchedPoint(m vision.MatchResult) *image.Point {
	if !m.Success {
		return nil
	}
	c := m.Box.Center()
	return &c
}

// saveFailureFrame keeps the last frame of a timed-out node for inspection.
func (p *Pipeline) saveFailureFrame(runID, node string, frame image.Image) {
	if p.debugDir == "" || frame == nil {
		return
	}
	path := filepath.Join(p.debugDir, fmt.Sprintf("fail_%s_%s.png", runID, node))
	if err := screenshot.SavePNG(frame, path); err != nil {
		p.log.Warn("failed to save failure frame", zap.String("path", path), zap.Error(err))
		return
	}
	p.log.Info("saved failure frame", zap.String("path", path))
}

// sleepCtx sleeps for d or until ctx is done. It reports whether the full
// sleep completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
