package recognize

import "qt-visual-agent/vision"

func (s DirectHit) analyze() vision.MatchResult {
	box := s.Target
	if box.Width <= 0 || box.Height <= 0 {
		box = vision.Rect{X: s.Target.X, Y: s.Target.Y, Width: 1, Height: 1}
	}
	c := vision.Candidate{Box: box, Score: 1.0}
	return vision.MatchResult{
		Success:  true,
		Box:      box,
		Score:    1.0,
		All:      []vision.Candidate{c},
		Filtered: []vision.Candidate{c},
	}
}
