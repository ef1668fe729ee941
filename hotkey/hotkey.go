// Package hotkey listens for a global key combination and fires a callback.
// The event loop uses it as an out-of-band cancel switch for running
// pipelines.
package hotkey

import (
	"strings"

	gohook "github.com/robotn/gohook"
	"go.uber.org/zap"
)

// Combo is a parsed key combination: modifier flags plus one main key
// rawcode.
type Combo struct {
	Ctrl    bool
	Alt     bool
	Shift   bool
	KeyCode uint16
}

// ParseCombo converts a string like "Ctrl+Alt+X" into a Combo. Single
// letters and digits map to their keyboard rawcodes.
func ParseCombo(s string) (Combo, bool) {
	var c Combo
	haveKey := false
	for _, part := range strings.Split(strings.ToLower(s), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "ctrl":
			c.Ctrl = true
		case "alt":
			c.Alt = true
		case "shift":
			c.Shift = true
		case "":
			return Combo{}, false
		default:
			if len(part) != 1 || haveKey {
				return Combo{}, false
			}
			ch := part[0]
			switch {
			case ch >= 'a' && ch <= 'z':
				c.KeyCode = uint16(ch - 'a' + 'A')
			case ch >= '0' && ch <= '9':
				c.KeyCode = uint16(ch)
			default:
				return Combo{}, false
			}
			haveKey = true
		}
	}
	if !haveKey {
		return Combo{}, false
	}
	return c, true
}

// Listen watches global key events and invokes callback each time combo is
// fully pressed. It runs until the process exits.
func Listen(combo Combo, log *zap.Logger, callback func()) {
	if log == nil {
		log = zap.NewNop()
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in hotkey goroutine", zap.Any("panic", r))
			}
		}()

		// Track key states for combination detection
		var ctrlDown, altDown, shiftDown, keyDown bool

		evChan := gohook.Start()
		if evChan == nil {
			log.Error("gohook returned a nil event channel")
			return
		}
		log.Debug("hotkey listener started")

		for ev := range evChan {
			if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyUp {
				continue
			}
			pressed := ev.Kind == gohook.KeyDown
			switch ev.Rawcode {
			case 162, 163: // Left/Right Ctrl
				ctrlDown = pressed
			case 164, 165: // Left/Right Alt
				altDown = pressed
			case 160, 161: // Left/Right Shift
				shiftDown = pressed
			default:
				if uint16(ev.Rawcode) == combo.KeyCode {
					keyDown = pressed
				}
			}

			if pressed &&
				ctrlDown == combo.Ctrl && altDown == combo.Alt &&
				shiftDown == combo.Shift && keyDown {
				log.Debug("hotkey combination detected")
				callback()
				keyDown = false
			}
		}
		log.Debug("hotkey event channel closed")
	}()
}
