package main

import (
	"testing"

	"qt-visual-agent/vision"
)

func TestParseInts(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"", nil, false},
		{"1,2,3", []int{1, 2, 3}, false},
		{" 10 , 20 ", []int{10, 20}, false},
		{"1,x", nil, true},
	}
	for _, tt := range tests {
		got, err := parseInts(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseInts(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("parseInts(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseInts(%q) = %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestParseRoi(t *testing.T) {
	r, err := parseRoi("10,20,300,400")
	if err != nil {
		t.Fatalf("parseRoi: %v", err)
	}
	want := vision.Rect{X: 10, Y: 20, Width: 300, Height: 400}
	if r != want {
		t.Errorf("parseRoi = %+v, want %+v", r, want)
	}

	if r, err := parseRoi(""); err != nil || !r.IsZero() {
		t.Errorf("empty roi should be the zero rect, got %+v, %v", r, err)
	}

	if _, err := parseRoi("1,2,3"); err == nil {
		t.Error("short roi should fail")
	}
	if _, err := parseRoi("1,2,-3,4"); err == nil {
		t.Error("negative size should fail")
	}
}

func TestParseBounds(t *testing.T) {
	b, err := parseBounds("0,100,255")
	if err != nil {
		t.Fatalf("parseBounds: %v", err)
	}
	if b != [3]int{0, 100, 255} {
		t.Errorf("parseBounds = %v", b)
	}
	if _, err := parseBounds("1,2"); err == nil {
		t.Error("two channels should fail")
	}
}
