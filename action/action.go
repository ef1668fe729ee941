// Package action translates resolved screen locations into simulated input
// events. The OS input collaborator is abstracted behind Driver so the
// executor can be tested against a recording fake.
package action

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// Driver injects input events into the system under test. The engine
// assumes exclusive ownership of the pointer and keyboard during a run;
// hosts driving the same target from several runs must serialize access.
type Driver interface {
	Click(x, y int) error
	LongPress(x, y int, duration time.Duration) error
	Swipe(x1, y1, x2, y2 int, duration time.Duration) error
	TypeText(text string) error
}

// ErrMissingTarget reports an action that needed a resolved location when
// recognition did not provide one. The executor never guesses a position.
var ErrMissingTarget = errors.New("action requires a resolved target")

// Spec is a closed set of action strategies. Unknown strategies are
// rejected at configuration load time.
type Spec interface {
	Kind() string
}

// Target selects where a positional action lands: the matched box center,
// or a fixed point from the configuration.
type Target struct {
	FromMatch bool
	Point     image.Point
}

// Click taps the resolved target plus Offset.
type Click struct {
	Target Target
	Offset image.Point
}

func (Click) Kind() string { return "Click" }

// Swipe drags from Begin to End over Duration.
type Swipe struct {
	Begin    Target
	End      image.Point
	Duration time.Duration
}

func (Swipe) Kind() string { return "Swipe" }

// InputText types a string at the current focus.
type InputText struct {
	Text string
}

func (InputText) Kind() string { return "InputText" }

// Wait blocks for Duration. It never fails.
type Wait struct {
	Duration time.Duration
}

func (Wait) Kind() string { return "Wait" }

// LongPress holds the pointer down on the resolved target for Duration.
type LongPress struct {
	Target   Target
	Duration time.Duration
}

func (LongPress) Kind() string { return "LongPress" }

// DoNothing is the recognition-only action.
type DoNothing struct{}

func (DoNothing) Kind() string { return "DoNothing" }

// Outcome reports whether an action was applied. Problems are captured here
// rather than thrown, so the executor can always finish its trace.
type Outcome struct {
	Applied bool
	Err     error
}

// Execute dispatches spec against d. matched is the center of the last
// successful match box, or nil when recognition produced no location.
func Execute(d Driver, spec Spec, matched *image.Point) Outcome {
	switch s := spec.(type) {
	case DoNothing, *DoNothing:
		return Outcome{Applied: true}
	case Wait:
		time.Sleep(s.Duration)
		return Outcome{Applied: true}
	case *Wait:
		time.Sleep(s.Duration)
		return Outcome{Applied: true}
	case Click:
		return click(d, s, matched)
	case *Click:
		return click(d, *s, matched)
	case Swipe:
		return swipe(d, s, matched)
	case *Swipe:
		return swipe(d, *s, matched)
	case LongPress:
		return longPress(d, s, matched)
	case *LongPress:
		return longPress(d, *s, matched)
	case InputText:
		return inputText(d, s)
	case *InputText:
		return inputText(d, *s)
	default:
		return Outcome{Err: fmt.Errorf("unknown action %T", spec)}
	}
}

func resolve(t Target, matched *image.Point) (image.Point, error) {
	if !t.FromMatch {
		return t.Point, nil
	}
	if matched == nil {
		return image.Point{}, ErrMissingTarget
	}
	return *matched, nil
}

func click(d Driver, s Click, matched *image.Point) Outcome {
	p, err := resolve(s.Target, matched)
	if err != nil {
		return Outcome{Err: err}
	}
	p = p.Add(s.Offset)
	if d == nil {
		return Outcome{Err: errors.New("no input driver configured")}
	}
	if err := d.Click(p.X, p.Y); err != nil {
		return Outcome{Err: fmt.Errorf("click at %v: %w", p, err)}
	}
	return Outcome{Applied: true}
}

func swipe(d Driver, s Swipe, matched *image.Point) Outcome {
	begin, err := resolve(s.Begin, matched)
	if err != nil {
		return Outcome{Err: err}
	}
	if d == nil {
		return Outcome{Err: errors.New("no input driver configured")}
	}
	if err := d.Swipe(begin.X, begin.Y, s.End.X, s.End.Y, s.Duration); err != nil {
		return Outcome{Err: fmt.Errorf("swipe %v -> %v: %w", begin, s.End, err)}
	}
	return Outcome{Applied: true}
}

func longPress(d Driver, s LongPress, matched *image.Point) Outcome {
	p, err := resolve(s.Target, matched)
	if err != nil {
		return Outcome{Err: err}
	}
	if d == nil {
		return Outcome{Err: errors.New("no input driver configured")}
	}
	if err := d.LongPress(p.X, p.Y, s.Duration); err != nil {
		return Outcome{Err: fmt.Errorf("long press at %v: %w", p, err)}
	}
	return Outcome{Applied: true}
}

func inputText(d Driver, s InputText) Outcome {
	if d == nil {
		return Outcome{Err: errors.New("no input driver configured")}
	}
	if err := d.TypeText(s.Text); err != nil {
		return Outcome{Err: fmt.Errorf("input text: %w", err)}
	}
	return Outcome{Applied: true}
}
