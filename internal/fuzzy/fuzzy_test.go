package fuzzy

import (
	"math"
	"testing"
)

var commands = []string{"follow_me", "build.fire", "build.shelter", "get.logs.drop_here", "stay.hidden"}

func TestClosest(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"build.fire", "build.fire"},
		{"build_fire", "build.fire"},
		{"stay.hiden", "stay.hidden"},
		{"get.log.drop_here", "get.logs.drop_here"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Closest(tt.in, commands); got != tt.want {
				t.Errorf("Closest(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if got := Closest("anything", nil); got != "" {
		t.Errorf("Closest() with no candidates = %q, want empty", got)
	}
}

func TestDice(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"night", "nacht", 0.25},
		{"fire", "fire", 1},
		{"FIRE", "fire", 1},
		{"build  fire", "Build fire", 1},
		{"hello", "hello", 1},
		{"a", "a", 0},
		{"a", "b", 0},
		{"", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := Dice(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Dice(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimSort(t *testing.T) {
	got := SimSort("build fire", commands)
	if len(got) == 0 || got[0] != "build.fire" {
		t.Fatalf("SimSort() = %v, want build.fire first", got)
	}
	if got := SimSort("", commands); len(got) != 0 {
		t.Errorf("SimSort(\"\") = %v, want no matches", got)
	}
}
