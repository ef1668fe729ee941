// Package clipboard wraps the system clipboard used by the paste-based
// text entry path.
package clipboard

import (
	"golang.design/x/clipboard"
)

func Init() error {
	return clipboard.Init()
}

func Write(text string) error {
	// Write to clipboard - this returns a channel, not an error
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// Read returns the current text clipboard contents.
func Read() string {
	return string(clipboard.Read(clipboard.FmtText))
}
