// Package pipeline loads validated node graphs and executes them against a
// frame source and an input driver.
package pipeline

import (
	"encoding/json"
	"fmt"
	"image"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"qt-visual-agent/action"
	"qt-visual-agent/recognize"
	"qt-visual-agent/vision"
)

// Defaults applied to node fields the document leaves out.
const (
	defaultTimeout       = 20 * time.Second
	defaultSwipeDuration = 200 * time.Millisecond
	defaultPressDuration = time.Second
)

// ConfigError reports a malformed configuration document. It is raised at
// load time only; a validated pipeline never fails on its config mid-run.
type ConfigError struct {
	Node  string
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("config: node %q: %s: %s", e.Node, e.Field, e.Msg)
}

// Node is one validated, immutable pipeline step.
type Node struct {
	Name        string
	Recognition recognize.Spec
	Action      action.Spec
	Next        []string
	PreDelay    time.Duration
	PostDelay   time.Duration
	Timeout     time.Duration
	Enabled     bool
}

// Config is a parsed configuration document: a node map plus the
// document-level metadata.
type Config struct {
	Comment      string
	Description  string
	ResourceBase string
	Nodes        map[string]*Node
}

// rawNode mirrors the configuration document field set for one node.
// Pointer fields distinguish "absent" from an explicit zero.
type rawNode struct {
	Recognition string          `json:"recognition"`
	Template    stringList      `json:"template"`
	Threshold   floatList       `json:"threshold"`
	Roi         []int           `json:"roi"`
	MultiScale  bool            `json:"multi_scale"`
	Lower       []int           `json:"lower"`
	Upper       []int           `json:"upper"`
	ColorSpace  string          `json:"color_space"`
	Count       *int            `json:"count"`
	Connected   bool            `json:"connected"`
	Action      string          `json:"action"`
	Target      json.RawMessage `json:"target"`
	Offset      []int           `json:"target_offset"`
	Begin       json.RawMessage `json:"begin"`
	End         []int           `json:"end"`
	Duration    *int            `json:"duration"`
	InputText   string          `json:"input_text"`
	Next        stringList      `json:"next"`
	PreDelay    *int            `json:"pre_delay"`
	PostDelay   *int            `json:"post_delay"`
	Timeout     *int            `json:"timeout"`
	Enabled     *bool           `json:"enabled"`
}

// stringList accepts both "a" and ["a", "b"].
type stringList []string

func (s *stringList) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var one string
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*s = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// floatList accepts both 0.8 and [0.8, 0.9].
type floatList []float64

func (f *floatList) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] != '[' {
		var one float64
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*f = []float64{one}
		return nil
	}
	var many []float64
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*f = many
	return nil
}

// Parse validates a JSON configuration document into the typed node model.
// Every problem is reported before any node executes.
func Parse(doc []byte) (*Config, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, &ConfigError{Field: "document", Msg: err.Error()}
	}

	cfg := &Config{Nodes: make(map[string]*Node)}
	for key, val := range raw {
		if strings.HasPrefix(key, "$") {
			if err := parseMeta(cfg, key, val); err != nil {
				return nil, err
			}
			continue
		}
		node, err := parseNode(key, val)
		if err != nil {
			return nil, err
		}
		cfg.Nodes[key] = node
	}

	for name, n := range cfg.Nodes {
		for _, next := range n.Next {
			if _, ok := cfg.Nodes[next]; !ok {
				return nil, &ConfigError{Node: name, Field: "next", Msg: fmt.Sprintf("unknown successor %q", next)}
			}
		}
	}
	return cfg, nil
}

// ParseYAML accepts the same document shape in YAML.
func ParseYAML(doc []byte) (*Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(doc, &m); err != nil {
		return nil, &ConfigError{Field: "document", Msg: err.Error()}
	}
	j, err := json.Marshal(m)
	if err != nil {
		return nil, &ConfigError{Field: "document", Msg: err.Error()}
	}
	return Parse(j)
}

func parseMeta(cfg *Config, key string, val json.RawMessage) error {
	var s string
	if err := json.Unmarshal(val, &s); err != nil {
		return &ConfigError{Field: key, Msg: "metadata value must be a string"}
	}
	switch key {
	case "$comment":
		cfg.Comment = s
	case "$description":
		cfg.Description = s
	case "$resource_base":
		cfg.ResourceBase = s
	default:
		return &ConfigError{Field: key, Msg: "unknown metadata key"}
	}
	return nil
}

func parseNode(name string, val json.RawMessage) (*Node, error) {
	var rn rawNode
	if err := json.Unmarshal(val, &rn); err != nil {
		return nil, &ConfigError{Node: name, Field: "node", Msg: err.Error()}
	}

	node := &Node{
		Name:    name,
		Next:    rn.Next,
		Timeout: defaultTimeout,
		Enabled: true,
	}
	if rn.PreDelay != nil {
		node.PreDelay = time.Duration(*rn.PreDelay) * time.Millisecond
	}
	if rn.PostDelay != nil {
		node.PostDelay = time.Duration(*rn.PostDelay) * time.Millisecond
	}
	if rn.Timeout != nil {
		node.Timeout = time.Duration(*rn.Timeout) * time.Millisecond
	}
	if rn.Enabled != nil {
		node.Enabled = *rn.Enabled
	}
	if node.PreDelay < 0 || node.PostDelay < 0 || node.Timeout < 0 {
		return nil, &ConfigError{Node: name, Field: "delays", Msg: "delays and timeout must be non-negative"}
	}

	rec, err := parseRecognition(name, &rn)
	if err != nil {
		return nil, err
	}
	node.Recognition = rec

	act, err := parseAction(name, &rn)
	if err != nil {
		return nil, err
	}
	node.Action = act

	return node, nil
}

func parseRecognition(name string, rn *rawNode) (recognize.Spec, error) {
	kind := rn.Recognition
	if kind == "" {
		kind = "DirectHit"
	}

	roi := vision.Rect{}
	if rn.Roi != nil {
		r, err := vision.RectFromSlice(rn.Roi)
		if err != nil {
			return nil, &ConfigError{Node: name, Field: "roi", Msg: err.Error()}
		}
		roi = r
	}

	switch kind {
	case "DirectHit":
		target, err := parseHitTarget(name, rn.Target)
		if err != nil {
			return nil, err
		}
		return recognize.DirectHit{Target: target}, nil

	case "TemplateMatch":
		if len(rn.Template) == 0 {
			return nil, &ConfigError{Node: name, Field: "template", Msg: "at least one template path required"}
		}
		thresholds := rn.Threshold
		switch {
		case len(thresholds) == 0:
			// recognizer default applies
		case len(thresholds) == 1, len(thresholds) == len(rn.Template):
		default:
			return nil, &ConfigError{Node: name, Field: "threshold",
				Msg: fmt.Sprintf("got %d thresholds for %d templates", len(thresholds), len(rn.Template))}
		}
		for _, t := range thresholds {
			if t < 0 || t > 1 {
				return nil, &ConfigError{Node: name, Field: "threshold", Msg: "must be within [0, 1]"}
			}
		}
		return recognize.TemplateMatch{
			Templates:  rn.Template,
			Thresholds: thresholds,
			Roi:        roi,
			MultiScale: rn.MultiScale,
		}, nil

	case "ColorMatch":
		if len(rn.Lower) != 3 || len(rn.Upper) != 3 {
			return nil, &ConfigError{Node: name, Field: "lower/upper", Msg: "need 3 channel values each"}
		}
		space := recognize.SpaceHSV
		if rn.ColorSpace != "" {
			switch recognize.ColorSpace(strings.ToUpper(rn.ColorSpace)) {
			case recognize.SpaceHSV, recognize.SpaceRGB, recognize.SpaceBGR:
				space = recognize.ColorSpace(strings.ToUpper(rn.ColorSpace))
			default:
				return nil, &ConfigError{Node: name, Field: "color_space", Msg: "must be HSV, RGB or BGR"}
			}
		}
		count := 1
		if rn.Count != nil {
			if *rn.Count < 0 {
				return nil, &ConfigError{Node: name, Field: "count", Msg: "must be non-negative"}
			}
			count = *rn.Count
		}
		spec := recognize.ColorMatch{
			Space:         space,
			Roi:           roi,
			MinCount:      count,
			ConnectedOnly: rn.Connected,
		}
		copy(spec.Lower[:], rn.Lower)
		copy(spec.Upper[:], rn.Upper)
		return spec, nil

	default:
		return nil, &ConfigError{Node: name, Field: "recognition", Msg: fmt.Sprintf("unknown recognition %q", kind)}
	}
}

func parseAction(name string, rn *rawNode) (action.Spec, error) {
	kind := rn.Action
	if kind == "" {
		kind = "DoNothing"
	}

	duration := func(def time.Duration) time.Duration {
		if rn.Duration == nil {
			return def
		}
		return time.Duration(*rn.Duration) * time.Millisecond
	}

	switch kind {
	case "DoNothing":
		return action.DoNothing{}, nil

	case "Click":
		target, err := parseActionTarget(name, "target", rn.Target)
		if err != nil {
			return nil, err
		}
		offset := image.Point{}
		if len(rn.Offset) >= 2 {
			offset = image.Pt(rn.Offset[0], rn.Offset[1])
		}
		return action.Click{Target: target, Offset: offset}, nil

	case "Swipe":
		begin, err := parseActionTarget(name, "begin", rn.Begin)
		if err != nil {
			return nil, err
		}
		if len(rn.End) < 2 {
			return nil, &ConfigError{Node: name, Field: "end", Msg: "swipe needs an end point [x, y]"}
		}
		d := duration(defaultSwipeDuration)
		if d < 0 {
			return nil, &ConfigError{Node: name, Field: "duration", Msg: "must be non-negative"}
		}
		return action.Swipe{Begin: begin, End: image.Pt(rn.End[0], rn.End[1]), Duration: d}, nil

	case "InputText":
		if rn.InputText == "" {
			return nil, &ConfigError{Node: name, Field: "input_text", Msg: "text required"}
		}
		return action.InputText{Text: rn.InputText}, nil

	case "Wait":
		if rn.Duration == nil {
			return nil, &ConfigError{Node: name, Field: "duration", Msg: "wait needs a duration"}
		}
		d := duration(0)
		if d < 0 {
			return nil, &ConfigError{Node: name, Field: "duration", Msg: "must be non-negative"}
		}
		return action.Wait{Duration: d}, nil

	case "LongPress":
		target, err := parseActionTarget(name, "target", rn.Target)
		if err != nil {
			return nil, err
		}
		d := duration(defaultPressDuration)
		if d < 0 {
			return nil, &ConfigError{Node: name, Field: "duration", Msg: "must be non-negative"}
		}
		return action.LongPress{Target: target, Duration: d}, nil

	default:
		return nil, &ConfigError{Node: name, Field: "action", Msg: fmt.Sprintf("unknown action %q", kind)}
	}
}

// parseHitTarget reads the node-level target as a fixed rect/point for
// DirectHit recognition. Absent (or boolean) targets hit the origin.
func parseHitTarget(name string, raw json.RawMessage) (vision.Rect, error) {
	if raw == nil {
		return vision.Rect{}, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return vision.Rect{}, nil
	}
	var v []int
	if err := json.Unmarshal(raw, &v); err != nil {
		return vision.Rect{}, &ConfigError{Node: name, Field: "target", Msg: "must be true, [x, y] or [x, y, w, h]"}
	}
	switch len(v) {
	case 2:
		return vision.Rect{X: v[0], Y: v[1]}, nil
	case 4:
		r, err := vision.RectFromSlice(v)
		if err != nil {
			return vision.Rect{}, &ConfigError{Node: name, Field: "target", Msg: err.Error()}
		}
		return r, nil
	default:
		return vision.Rect{}, &ConfigError{Node: name, Field: "target", Msg: "must be [x, y] or [x, y, w, h]"}
	}
}

// parseActionTarget reads a positional action target: true (the matched
// box center), [x, y], or [x, y, w, h] whose center is used. Absent means
// true.
func parseActionTarget(name, field string, raw json.RawMessage) (action.Target, error) {
	if raw == nil {
		return action.Target{FromMatch: true}, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if !b {
			return action.Target{}, &ConfigError{Node: name, Field: field, Msg: "false is not a valid target"}
		}
		return action.Target{FromMatch: true}, nil
	}
	var v []int
	if err := json.Unmarshal(raw, &v); err != nil {
		return action.Target{}, &ConfigError{Node: name, Field: field, Msg: "must be true, [x, y] or [x, y, w, h]"}
	}
	switch len(v) {
	case 2:
		return action.Target{Point: image.Pt(v[0], v[1])}, nil
	case 4:
		r, err := vision.RectFromSlice(v)
		if err != nil {
			return action.Target{}, &ConfigError{Node: name, Field: field, Msg: err.Error()}
		}
		return action.Target{Point: r.Center()}, nil
	default:
		return action.Target{}, &ConfigError{Node: name, Field: field, Msg: "must be [x, y] or [x, y, w, h]"}
	}
}
