package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"qt-visual-agent/action"
	"qt-visual-agent/recognize"
	"qt-visual-agent/vision"
)

// Defaults applied when Options leaves a knob zero.
const (
	defaultPollInterval = 500 * time.Millisecond
	defaultMaxSteps     = 100
)

// Options wires a pipeline to its collaborators. Frames is required; a nil
// Driver is fine for recognition-only use.
type Options struct {
	Frames       vision.FrameSource
	Driver       action.Driver
	ResourceDir  string
	PollInterval time.Duration
	MaxSteps     int
	Logger       *zap.Logger
	DebugDir     string
}

// Pipeline executes a validated node graph. It is safe for sequential use;
// concurrent runs against the same input driver must be serialized by the
// caller.
type Pipeline struct {
	cfg      *Config
	frames   vision.FrameSource
	driver   action.Driver
	res      *recognize.Resources
	interval time.Duration
	maxSteps int
	log      *zap.Logger
	debugDir string
}

// New builds a pipeline from an already-parsed config.
func New(cfg *Config, opts Options) (*Pipeline, error) {
	if opts.Frames == nil {
		return nil, errors.New("pipeline needs a frame source")
	}
	if cfg == nil {
		cfg = &Config{Nodes: make(map[string]*Node)}
	}

	resourceDir := opts.ResourceDir
	if resourceDir == "" {
		resourceDir = cfg.ResourceBase
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Pipeline{
		cfg:      cfg,
		frames:   opts.Frames,
		driver:   opts.Driver,
		res:      recognize.NewResources(resourceDir),
		interval: interval,
		maxSteps: maxSteps,
		log:      log,
		debugDir: opts.DebugDir,
	}, nil
}

// NewSession builds a pipeline with no nodes, for one-shot FindTarget and
// PerformAction use.
func NewSession(opts Options) (*Pipeline, error) {
	return New(nil, opts)
}

// Load parses a JSON configuration document and builds a pipeline from it.
func Load(doc []byte, opts Options) (*Pipeline, error) {
	cfg, err := Parse(doc)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts)
}

// LoadFile reads a JSON or YAML configuration file. A relative
// $resource_base resolves against the file's directory.
func LoadFile(path string, opts Options) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Field: "file", Msg: err.Error()}
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(data)
	default:
		cfg, err = Parse(data)
	}
	if err != nil {
		return nil, err
	}

	if cfg.ResourceBase != "" && !filepath.IsAbs(cfg.ResourceBase) {
		cfg.ResourceBase = filepath.Join(filepath.Dir(path), cfg.ResourceBase)
	}
	return New(cfg, opts)
}

// Config exposes the parsed node graph.
func (p *Pipeline) Config() *Config { return p.cfg }

// FindTarget captures one frame and runs spec against it. A miss is a
// non-Success result, not an error; the error covers frame capture only.
func (p *Pipeline) FindTarget(ctx context.Context, spec recognize.Spec) (vision.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return vision.MatchResult{}, err
	}
	frame, err := p.frames()
	if err != nil {
		return vision.MatchResult{}, err
	}
	return recognize.Recognize(frame, spec, p.res), nil
}

// PerformAction executes spec using m as the resolved location.
func (p *Pipeline) PerformAction(spec action.Spec, m vision.MatchResult) action.Outcome {
	return action.Execute(p.driver, spec, matchedPoint(m))
}
