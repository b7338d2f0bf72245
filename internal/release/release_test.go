package release

import (
	"errors"
	"testing"

	"github.com/sotfmods/api/internal/model"
)

func TestValid(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"1.0.0", true},
		{"v1.2.3", true},
		{"1.0.0-beta.1", true},
		{"1.0.0+build.5", true},
		{"1.0", false},
		{"1", false},
		{"", false},
		{"latest", false},
		{"1.0.0.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := Valid(tt.version); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"1.1.0", "1.1.0"},
		{"v1.1.0", "1.1.0"},
		{"=1.1.0", "1.1.0"},
		{" 2.0.0-rc.1 ", "2.0.0-rc.1"},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := Normalize(tt.version); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.version, got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.10.0", "1.9.0", 1},
		{"1.0.0-alpha", "1.0.0", -1},
		{"1.0.0-alpha.2", "1.0.0-alpha.10", -1},
		{"2.0.0", "v1.99.99", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	existing := []*model.ModVersion{
		{Version: "0.5.0"},
		{Version: "1.0.0", IsLatest: true},
	}

	tests := []struct {
		name     string
		proposed string
		existing []*model.ModVersion
		want     error
	}{
		{"first release", "0.1.0", nil, nil},
		{"advancing", "1.1.0", existing, nil},
		{"older than latest", "0.9.0", existing, ErrVersionNotAdvancing},
		{"duplicate", "1.0.0", existing, ErrDuplicateVersion},
		{"duplicate older", "0.5.0", existing, ErrDuplicateVersion},
		{"pre-release of latest", "1.0.0-rc.1", existing, ErrVersionNotAdvancing},
		{"invalid", "one", existing, ErrInvalidVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.proposed, tt.existing)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate(%q) = %v, want %v", tt.proposed, err, tt.want)
			}
		})
	}
}
