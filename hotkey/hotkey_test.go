package hotkey

import "testing"

func TestParseCombo(t *testing.T) {
	tests := []struct {
		input string
		want  Combo
		ok    bool
	}{
		{"Ctrl+Alt+X", Combo{Ctrl: true, Alt: true, KeyCode: 'X'}, true},
		{"ctrl+alt+x", Combo{Ctrl: true, Alt: true, KeyCode: 'X'}, true},
		{"Ctrl+Shift+2", Combo{Ctrl: true, Shift: true, KeyCode: '2'}, true},
		{"q", Combo{KeyCode: 'Q'}, true},
		{"Ctrl+Alt", Combo{}, false},  // no main key
		{"Ctrl+a+b", Combo{}, false},  // two main keys
		{"Ctrl++x", Combo{}, false},   // empty part
		{"Ctrl+F1", Combo{}, false},   // unsupported key name
		{"", Combo{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseCombo(tt.input)
		if ok != tt.ok {
			t.Errorf("ParseCombo(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseCombo(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}
