package eventloop

import (
	"context"
	"image"
	"testing"
	"time"

	"qt-visual-agent/pipeline"
)

func loadPipeline(t *testing.T, doc string) *pipeline.Pipeline {
	t.Helper()
	frames := func() (image.Image, error) {
		return image.NewRGBA(image.Rect(0, 0, 16, 16)), nil
	}
	p, err := pipeline.Load([]byte(doc), pipeline.Options{
		Frames:       frames,
		PollInterval: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return p
}

func TestExecuteRunsToCompletion(t *testing.T) {
	l := New(nil)
	defer l.Close()

	p := loadPipeline(t, `{"hit": {"target": [2, 2]}}`)
	res, err := l.Execute(context.Background(), p, "hit")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.Success {
		t.Errorf("expected success, got %+v", res)
	}
}

func TestExecuteHonorsContextCancel(t *testing.T) {
	l := New(nil)
	defer l.Close()

	// Recognition that never hits on a black frame keeps the run polling.
	p := loadPipeline(t, `{"stuck": {
		"recognition": "ColorMatch",
		"lower": [250, 250, 250], "upper": [255, 255, 255], "color_space": "RGB",
		"timeout": 60000
	}}`)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	res, err := l.Execute(ctx, p, "stuck")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Status != pipeline.StatusCancelled {
		t.Errorf("expected cancelled run, got %+v", res)
	}
}
