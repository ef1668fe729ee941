package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"qt-visual-agent/config"
	"qt-visual-agent/input"
	"qt-visual-agent/logutil"
	"qt-visual-agent/pipeline"
	"qt-visual-agent/screenshot"
	"qt-visual-agent/vision"
)

// parseInts splits "1,2,3" into integers.
func parseInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("not an integer list: %q", s)
		}
		out = append(out, n)
	}
	return out, nil
}

// parseRoi reads an optional "x,y,w,h" flag value.
func parseRoi(s string) (vision.Rect, error) {
	if strings.TrimSpace(s) == "" {
		return vision.Rect{}, nil
	}
	v, err := parseInts(s)
	if err != nil {
		return vision.Rect{}, err
	}
	return vision.RectFromSlice(v)
}

// parseBounds reads a "h,s,v" (or "r,g,b") channel triple.
func parseBounds(s string) ([3]int, error) {
	v, err := parseInts(s)
	if err != nil {
		return [3]int{}, err
	}
	if len(v) != 3 {
		return [3]int{}, fmt.Errorf("need 3 channel values, got %d", len(v))
	}
	return [3]int{v[0], v[1], v[2]}, nil
}

// checkRoiOnScreen rejects a search region that cannot overlap the display.
func checkRoiOnScreen(roi vision.Rect) error {
	if roi.IsZero() {
		return nil
	}
	bounds, err := screenshot.GetDisplayBounds()
	if err != nil {
		return err
	}
	if !roi.Bounds().Overlaps(bounds) {
		return fmt.Errorf("roi %v is outside the display %v", roi.Slice(), bounds)
	}
	return nil
}

// buildOptions assembles pipeline options from the environment config and
// live screen capture.
func buildOptions(cfg *config.Config, log *zap.Logger) pipeline.Options {
	return pipeline.Options{
		Frames:       screenshot.Source(),
		Driver:       input.New(),
		ResourceDir:  cfg.ResourceDir,
		PollInterval: cfg.PollInterval,
		MaxSteps:     cfg.MaxSteps,
		Logger:       log,
		DebugDir:     cfg.DebugDir,
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	log := logutil.Setup(cfg.EnableFileLogging)
	return cfg, log, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
