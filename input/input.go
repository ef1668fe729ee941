// Package input is the production action.Driver: it injects mouse and
// keyboard events into the OS via robotgo.
package input

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-vgo/robotgo"

	"qt-visual-agent/clipboard"
)

var clipboardInit = sync.OnceValue(clipboard.Init)

const (
	// settleDelay gives the window system time to register a pointer move
	// before the button event follows it.
	settleDelay = 10 * time.Millisecond
	swipeSteps  = 20
)

// Driver dispatches real input events. One Driver owns the pointer and
// keyboard for the duration of a run.
type Driver struct{}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) Click(x, y int) error {
	robotgo.Move(x, y)
	time.Sleep(settleDelay)
	robotgo.Click("left", false)
	return nil
}

func (d *Driver) LongPress(x, y int, duration time.Duration) error {
	robotgo.Move(x, y)
	time.Sleep(settleDelay)
	if err := robotgo.Toggle("left"); err != nil {
		return fmt.Errorf("press down: %w", err)
	}
	time.Sleep(duration)
	if err := robotgo.Toggle("left", "up"); err != nil {
		return fmt.Errorf("press up: %w", err)
	}
	return nil
}

func (d *Driver) Swipe(x1, y1, x2, y2 int, duration time.Duration) error {
	robotgo.Move(x1, y1)
	time.Sleep(settleDelay)
	if err := robotgo.Toggle("left"); err != nil {
		return fmt.Errorf("drag down: %w", err)
	}
	// Interpolate the drag so the duration is honored regardless of the
	// distance covered.
	step := duration / swipeSteps
	for i := 1; i <= swipeSteps; i++ {
		x := x1 + (x2-x1)*i/swipeSteps
		y := y1 + (y2-y1)*i/swipeSteps
		robotgo.Move(x, y)
		time.Sleep(step)
	}
	if err := robotgo.Toggle("left", "up"); err != nil {
		return fmt.Errorf("drag up: %w", err)
	}
	return nil
}

func (d *Driver) TypeText(text string) error {
	if isASCII(text) {
		robotgo.TypeStr(text)
		return nil
	}
	// Non-ASCII input goes through the clipboard: direct key synthesis is
	// unreliable for characters outside the active keyboard layout.
	if err := clipboardInit(); err != nil {
		return fmt.Errorf("clipboard init: %w", err)
	}
	if err := clipboard.Write(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	if err := robotgo.KeyTap("v", "ctrl"); err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	return nil
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}
