// Package vision holds the value types shared by every recognizer and the
// pipeline executor: rectangles, match candidates and match results.
package vision

import (
	"fmt"
	"image"
)

// FrameSource supplies the current full-screen frame on demand. The engine
// never assumes a particular capture backend; tests supply synthetic frames.
type FrameSource func() (image.Image, error)

// Rect is an integer rectangle in frame coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RectFromSlice builds a Rect from an ordered [x, y, w, h] sequence.
// Fewer than 4 fields or negative dimensions are a configuration error.
func RectFromSlice(v []int) (Rect, error) {
	if len(v) < 4 {
		return Rect{}, fmt.Errorf("rect needs 4 fields [x y w h], got %d", len(v))
	}
	if v[2] < 0 || v[3] < 0 {
		return Rect{}, fmt.Errorf("rect dimensions must be non-negative, got w=%d h=%d", v[2], v[3])
	}
	return Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// Slice returns the rect as [x, y, w, h].
func (r Rect) Slice() []int {
	return []int{r.X, r.Y, r.Width, r.Height}
}

// IsZero reports whether the rect is the zero value. A zero rect stands for
// "absent" (e.g. no ROI configured: search the full frame).
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Empty reports whether the rect covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center returns the center point of the rect.
func (r Rect) Center() image.Point {
	return image.Pt(r.X+r.Width/2, r.Y+r.Height/2)
}

// Bounds converts to the stdlib rectangle representation.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// FromBounds converts back from the stdlib representation.
func FromBounds(b image.Rectangle) Rect {
	return Rect{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}
}

// Candidate is one scored match location.
type Candidate struct {
	Box   Rect    `json:"box"`
	Score float64 `json:"score"`
}

// MatchResult is the outcome of one recognition attempt. Construction never
// fails; a miss is reported as Success=false, not as an error. When Success
// is true, Box and Score are the head of Filtered.
type MatchResult struct {
	Success  bool        `json:"success"`
	Box      Rect        `json:"box"`
	Score    float64     `json:"score"`
	CostMS   float64     `json:"cost_ms"`
	All      []Candidate `json:"all_candidates,omitempty"`
	Filtered []Candidate `json:"filtered_candidates,omitempty"`
}

// Best returns the top filtered candidate, if any.
func (m MatchResult) Best() (Candidate, bool) {
	if len(m.Filtered) == 0 {
		return Candidate{}, false
	}
	return m.Filtered[0], true
}
