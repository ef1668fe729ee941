package input

import "testing"

func TestIsASCII(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"hello world 123", true},
		{"tab\tand newline\n", true},
		{"héllo", false},
		{"测试", false},
	}
	for _, c := range cases {
		if got := isASCII(c.in); got != c.want {
			t.Errorf("isASCII(%q): got %v, want %v", c.in, got, c.want)
		}
	}
}
