// Package recognize implements the visual recognizers: DirectHit,
// TemplateMatch and ColorMatch. A recognizer takes a frame and a search
// region and produces zero or more scored candidates; it never mutates the
// frame and is deterministic for identical pixel input.
package recognize

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"qt-visual-agent/vision"
)

// Spec is a closed set of recognition strategies. Unknown strategies are
// rejected at configuration load time, not at dispatch time.
type Spec interface {
	Kind() string
}

// DirectHit performs no visual check and always succeeds. Used for
// flow-control nodes and fixed-coordinate taps.
type DirectHit struct {
	// Target is the hit location. A zero-size target is treated as a
	// 1x1 rectangle at (X, Y).
	Target vision.Rect
}

func (DirectHit) Kind() string { return "DirectHit" }

// TemplateMatch searches the frame for small reference images.
type TemplateMatch struct {
	Templates  []string
	Thresholds []float64 // parallel to Templates
	Roi        vision.Rect
	MultiScale bool
}

func (TemplateMatch) Kind() string { return "TemplateMatch" }

// ColorSpace selects the channel interpretation for ColorMatch bounds.
type ColorSpace string

const (
	SpaceHSV ColorSpace = "HSV" // OpenCV scaling: H in [0,180), S and V in [0,255]
	SpaceRGB ColorSpace = "RGB"
	SpaceBGR ColorSpace = "BGR"
)

// ColorMatch finds pixels inside an inclusive per-channel range.
type ColorMatch struct {
	Lower         [3]int
	Upper         [3]int
	Space         ColorSpace
	Roi           vision.Rect
	MinCount      int
	ConnectedOnly bool
}

func (ColorMatch) Kind() string { return "ColorMatch" }

// Resources resolves and caches template images for the lifetime of one
// pipeline. Loading is the only memoization: match results are never cached
// because every call sees a fresh frame.
type Resources struct {
	dir string

	mu    sync.Mutex
	cache map[string]image.Image
}

func NewResources(dir string) *Resources {
	return &Resources{dir: dir, cache: make(map[string]image.Image)}
}

// Dir returns the base directory used for relative template paths.
func (r *Resources) Dir() string { return r.dir }

// Template loads a template image, joining relative paths onto the resource
// directory. Repeated loads of the same path hit the cache.
func (r *Resources) Template(path string) (image.Image, error) {
	full := path
	if !filepath.IsAbs(full) && r.dir != "" {
		full = filepath.Join(r.dir, path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if img, ok := r.cache[full]; ok {
		return img, nil
	}
	if _, err := os.Stat(full); err != nil {
		return nil, fmt.Errorf("template %q: %w", path, err)
	}
	img, err := imaging.Open(full)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", path, err)
	}
	r.cache[full] = img
	return img, nil
}

// Recognize dispatches to the strategy selected by spec. A miss is reported
// in the MatchResult, never as a panic or error.
func Recognize(frame image.Image, spec Spec, res *Resources) vision.MatchResult {
	switch s := spec.(type) {
	case DirectHit:
		return s.analyze()
	case *DirectHit:
		return s.analyze()
	case TemplateMatch:
		return s.analyze(frame, res)
	case *TemplateMatch:
		return s.analyze(frame, res)
	case ColorMatch:
		return s.analyze(frame)
	case *ColorMatch:
		return s.analyze(frame)
	default:
		// Unreachable for configs that went through pipeline validation.
		return vision.MatchResult{}
	}
}

// clampRoi restricts roi to the frame bounds. A zero roi means full frame.
// The returned rectangle may be empty; callers treat that as a clean miss.
func clampRoi(roi vision.Rect, frame image.Rectangle) image.Rectangle {
	if roi.IsZero() {
		return frame
	}
	return roi.Bounds().Intersect(frame)
}

// grayFloats converts a sub-rectangle of img to a row-major luma buffer.
func grayFloats(img image.Image, r image.Rectangle) ([]float64, int, int) {
	w, h := r.Dx(), r.Dy()
	out := make([]float64, w*h)
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			out[i] = 0.299*float64(cr>>8) + 0.587*float64(cg>>8) + 0.114*float64(cb>>8)
			i++
		}
	}
	return out, w, h
}
