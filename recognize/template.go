package recognize

import (
	"image"
	"math"
	"sort"
	"time"

	"github.com/disintegration/imaging"

	"qt-visual-agent/vision"
)

const (
	// defaultThreshold applies when a template has no explicit threshold.
	defaultThreshold = 0.7
	// scoreFloor is the minimum similarity for a location to enter the
	// all-candidates list at all.
	scoreFloor = 0.2
	// maxCandidates caps the list after non-maximum suppression.
	maxCandidates = 16
)

// multiScaleFactors is the scale sweep applied when MultiScale is set.
var multiScaleFactors = []float64{1.0, 0.9, 1.1, 0.8, 1.25}

// scored pairs a candidate with the threshold of the template it came from.
type scored struct {
	cand      vision.Candidate
	threshold float64
}

func (s TemplateMatch) analyze(frame image.Image, res *Resources) vision.MatchResult {
	start := time.Now()
	result := vision.MatchResult{}

	roi := clampRoi(s.Roi, frame.Bounds())
	if roi.Empty() {
		result.CostMS = msSince(start)
		return result
	}

	fgray, fw, fh := grayFloats(frame, roi)

	var all []scored
	for i, path := range s.Templates {
		threshold := defaultThreshold
		if i < len(s.Thresholds) {
			threshold = s.Thresholds[i]
		} else if len(s.Thresholds) == 1 {
			threshold = s.Thresholds[0]
		}

		tmpl, err := res.Template(path)
		if err != nil {
			// Missing template file is a recognition miss, not a crash:
			// the run can still proceed through other nodes.
			continue
		}

		scales := []float64{1.0}
		if s.MultiScale {
			scales = multiScaleFactors
		}
		tb := tmpl.Bounds()
		for _, scale := range scales {
			t := tmpl
			if scale != 1.0 {
				tw := int(math.Round(float64(tb.Dx()) * scale))
				th := int(math.Round(float64(tb.Dy()) * scale))
				if tw < 1 || th < 1 {
					continue
				}
				t = imaging.Resize(tmpl, tw, th, imaging.Lanczos)
			}
			tgray, tw, th := grayFloats(t, t.Bounds())
			for _, c := range matchGray(fgray, fw, fh, tgray, tw, th) {
				c.Box.X += roi.Min.X
				c.Box.Y += roi.Min.Y
				all = append(all, scored{cand: c, threshold: threshold})
			}
		}
	}

	all = suppress(all)
	sortScored(all)

	for _, sc := range all {
		result.All = append(result.All, sc.cand)
		if sc.cand.Score >= sc.threshold {
			result.Filtered = append(result.Filtered, sc.cand)
		}
	}
	if len(result.Filtered) > 0 {
		result.Success = true
		result.Box = result.Filtered[0].Box
		result.Score = result.Filtered[0].Score
	}
	result.CostMS = msSince(start)
	return result
}

// matchGray slides the template over the frame buffer and scores every
// position with zero-mean normalized cross-correlation. Window statistics
// come from integral images; the correlation itself is a direct dot product
// against the mean-subtracted template.
func matchGray(frame []float64, fw, fh int, tmpl []float64, tw, th int) []vision.Candidate {
	if tw > fw || th > fh || tw == 0 || th == 0 {
		return nil
	}

	n := float64(tw * th)
	var tsum float64
	for _, v := range tmpl {
		tsum += v
	}
	tmean := tsum / n
	zt := make([]float64, len(tmpl))
	var tvar float64
	for i, v := range tmpl {
		zt[i] = v - tmean
		tvar += zt[i] * zt[i]
	}
	if tvar < 1e-9 {
		// Flat template: correlation is undefined.
		return nil
	}
	tnorm := math.Sqrt(tvar)

	sum, sumSq := integrals(frame, fw, fh)

	var out []vision.Candidate
	for y := 0; y+th <= fh; y++ {
		for x := 0; x+tw <= fw; x++ {
			ws := windowSum(sum, fw, x, y, tw, th)
			wq := windowSum(sumSq, fw, x, y, tw, th)
			wvar := wq - ws*ws/n
			if wvar < 1e-9 {
				continue
			}
			var dot float64
			for ty := 0; ty < th; ty++ {
				fo := (y+ty)*fw + x
				to := ty * tw
				for tx := 0; tx < tw; tx++ {
					dot += frame[fo+tx] * zt[to+tx]
				}
			}
			score := dot / (math.Sqrt(wvar) * tnorm)
			if score >= scoreFloor {
				out = append(out, vision.Candidate{
					Box:   vision.Rect{X: x, Y: y, Width: tw, Height: th},
					Score: score,
				})
			}
		}
	}
	return out
}

// integrals builds summed-area tables for values and squared values, with a
// one-row/column zero border.
func integrals(buf []float64, w, h int) (sum, sumSq []float64) {
	stride := w + 1
	sum = make([]float64, stride*(h+1))
	sumSq = make([]float64, stride*(h+1))
	for y := 0; y < h; y++ {
		var rs, rq float64
		for x := 0; x < w; x++ {
			v := buf[y*w+x]
			rs += v
			rq += v * v
			sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + rs
			sumSq[(y+1)*stride+x+1] = sumSq[y*stride+x+1] + rq
		}
	}
	return sum, sumSq
}

func windowSum(sat []float64, w, x, y, ww, wh int) float64 {
	stride := w + 1
	return sat[(y+wh)*stride+x+ww] - sat[y*stride+x+ww] - sat[(y+wh)*stride+x] + sat[y*stride+x]
}

// suppress keeps only local maxima: candidates are taken best-first and any
// later candidate whose center falls inside an accepted box is dropped.
func suppress(cands []scored) []scored {
	sortScored(cands)
	var kept []scored
	for _, c := range cands {
		center := c.cand.Box.Center()
		clash := false
		for _, k := range kept {
			if center.In(k.cand.Box.Bounds()) {
				clash = true
				break
			}
		}
		if !clash {
			kept = append(kept, c)
			if len(kept) >= maxCandidates {
				break
			}
		}
	}
	return kept
}

// sortScored orders by descending score; scores within rounding noise of
// each other are broken by smaller y then smaller x, so the top-left-most
// match wins.
func sortScored(cands []scored) {
	const eps = 1e-9
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i].cand, cands[j].cand
		if math.Abs(a.Score-b.Score) > eps {
			return a.Score > b.Score
		}
		if a.Box.Y != b.Box.Y {
			return a.Box.Y < b.Box.Y
		}
		return a.Box.X < b.Box.X
	})
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
