package recognize

import (
	"testing"

	"qt-visual-agent/vision"
)

func TestDirectHitPointTarget(t *testing.T) {
	m := Recognize(flatFrame(10, 10), DirectHit{Target: vision.Rect{X: 500, Y: 300}}, nil)
	if !m.Success {
		t.Fatal("DirectHit must always succeed")
	}
	if m.Box != (vision.Rect{X: 500, Y: 300, Width: 1, Height: 1}) {
		t.Errorf("box: got %+v, want 1x1 at (500,300)", m.Box)
	}
	if m.Score != 1.0 {
		t.Errorf("score: got %v, want 1.0", m.Score)
	}
	if len(m.Filtered) != 1 || len(m.All) != 1 {
		t.Errorf("expected exactly one candidate: %+v", m)
	}
}

func TestDirectHitRectTarget(t *testing.T) {
	target := vision.Rect{X: 100, Y: 200, Width: 40, Height: 20}
	m := Recognize(flatFrame(10, 10), DirectHit{Target: target}, nil)
	if !m.Success || m.Box != target {
		t.Errorf("rect target should be preserved: %+v", m)
	}
}
