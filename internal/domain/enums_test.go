package domain

import (
	"errors"
	"testing"
)

func TestParseProcessingLevel(t *testing.T) {
	tests := []struct {
		in   string
		want ProcessingLevel
	}{
		{"NBAR", LevelNBAR},
		{"ARG25", LevelNBAR},
		{"nbar", LevelNBAR},
		{"PQA", LevelPQA},
		{"PQ25", LevelPQA},
		{"FC25", LevelFC},
		{"DSM", LevelDSM},
		{"DEM_SMOOTHED", LevelDEMSmoothed},
		{"DEM_HYDROLOGICALLY_ENFORCED", LevelDEMHydro},
	}
	for _, tt := range tests {
		got, err := ParseProcessingLevel(tt.in)
		if err != nil {
			t.Errorf("ParseProcessingLevel(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProcessingLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseProcessingLevel("BOGUS"); !errors.Is(err, ErrUnknownLevel) {
		t.Errorf("expected ErrUnknownLevel, got %v", err)
	}
}

func TestProcessingLevelLabels(t *testing.T) {
	tests := []struct {
		level ProcessingLevel
		name  string
		label string
	}{
		{LevelNBAR, "NBAR", "ARG25"},
		{LevelPQA, "PQA", "PQ25"},
		{LevelFC, "FC", "FC25"},
		{LevelDSM, "DSM", "DSM"},
		{LevelDEMSmoothed, "DEM_S", "DEM_SMOOTHED"},
		{LevelDEMHydro, "DEM_H", "DEM_HYDROLOGICALLY_ENFORCED"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.name {
			t.Errorf("%d.String() = %q, want %q", int(tt.level), got, tt.name)
		}
		if got := tt.level.Label(); got != tt.label {
			t.Errorf("%d.Label() = %q, want %q", int(tt.level), got, tt.label)
		}
	}
}

func TestProcessingLevelValid(t *testing.T) {
	for _, l := range []ProcessingLevel{LevelOrtho, LevelNBAR, LevelPQA, LevelFC, LevelL1T, LevelMap, LevelDSM, LevelDEM, LevelDEMSmoothed, LevelDEMHydro} {
		if !l.Valid() {
			t.Errorf("expected %v to be valid", l)
		}
	}
	for _, l := range []ProcessingLevel{0, 6, 99, -1} {
		if l.Valid() {
			t.Errorf("expected %d to be invalid", int(l))
		}
	}
}

func TestParseSatellite(t *testing.T) {
	for _, in := range []string{"LS5", "ls7", "Ls8"} {
		if _, err := ParseSatellite(in); err != nil {
			t.Errorf("ParseSatellite(%q): %v", in, err)
		}
	}
	if _, err := ParseSatellite("LS9"); !errors.Is(err, ErrUnknownSatellite) {
		t.Errorf("expected ErrUnknownSatellite, got %v", err)
	}
}

func TestParseSortDirection(t *testing.T) {
	if got, err := ParseSortDirection(""); err != nil || got != SortAsc {
		t.Errorf("empty input should default to ascending, got %v, %v", got, err)
	}
	if got, err := ParseSortDirection("DESC"); err != nil || got != SortDesc {
		t.Errorf("ParseSortDirection(DESC) = %v, %v", got, err)
	}
	if _, err := ParseSortDirection("sideways"); !errors.Is(err, ErrInvalidSort) {
		t.Errorf("expected ErrInvalidSort, got %v", err)
	}
}
