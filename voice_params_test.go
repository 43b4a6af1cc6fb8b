// voice_params_test.go - Tests for the knob store and knob curves

package main

import (
	"math"
	"testing"
)

func TestParamStoreRoundTrip(t *testing.T) {
	store := NewParamStore()
	for index := 0; index < NUM_PARAMS; index++ {
		store.SetParam(index, 0.37)
		if got := store.Param(index); got != 0.37 {
			t.Errorf("Param(%d) = %v, want 0.37", index, got)
		}
	}
}

func TestParamStoreClampsAndIgnoresBadWrites(t *testing.T) {
	store := NewParamStore()

	store.SetParam(PARAM_ATTACK, 1.7)
	if got := store.Param(PARAM_ATTACK); got != 1.0 {
		t.Errorf("over-range knob stored as %v, want 1.0", got)
	}
	store.SetParam(PARAM_ATTACK, -0.3)
	if got := store.Param(PARAM_ATTACK); got != 0.0 {
		t.Errorf("under-range knob stored as %v, want 0.0", got)
	}
	store.SetParam(PARAM_DECAY, math.NaN())
	if got := store.Param(PARAM_DECAY); got != 0.0 {
		t.Errorf("NaN knob stored as %v, want 0.0", got)
	}

	// Writes to nonexistent knobs vanish, reads return zero.
	store.SetParam(-1, 0.5)
	store.SetParam(NUM_PARAMS, 0.5)
	if got := store.Param(-1); got != 0.0 {
		t.Errorf("Param(-1) = %v, want 0.0", got)
	}
	if got := store.Param(NUM_PARAMS + 3); got != 0.0 {
		t.Errorf("Param(%d) = %v, want 0.0", NUM_PARAMS+3, got)
	}
}

func TestParamStoreDefaults(t *testing.T) {
	store := NewParamStore()
	for index := 0; index < NUM_PARAMS; index++ {
		if got := store.Param(index); got != defaultKnobs[index] {
			t.Errorf("default Param(%d) = %v, want %v", index, got, defaultKnobs[index])
		}
	}
}

func TestFrequencyMultiplierCurve(t *testing.T) {
	tests := []struct {
		name string
		knob float64
		want float64
	}{
		{"full down is half speed", 0.0, 0.5},
		{"center detent is unity", 0.5, 1.0},
		{"full up is double speed", 1.0, 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := frequencyMultiplier(tt.knob)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("frequencyMultiplier(%v) = %v, want %v", tt.knob, got, tt.want)
			}
		})
	}

	// The curve is exponential: equal knob steps give equal ratios.
	lowRatio := frequencyMultiplier(0.5) / frequencyMultiplier(0.25)
	highRatio := frequencyMultiplier(0.75) / frequencyMultiplier(0.5)
	if math.Abs(lowRatio-highRatio) > 1e-12 {
		t.Errorf("curve is not exponential: ratios %v and %v", lowRatio, highRatio)
	}
}

func TestEnvSecondsCurve(t *testing.T) {
	if got := envSeconds(0.0, ATTACK_MAX_S); got != 0.0 {
		t.Errorf("envSeconds(0) = %v, want 0", got)
	}
	if got := envSeconds(1.0, ATTACK_MAX_S); got != ATTACK_MAX_S {
		t.Errorf("envSeconds(1) = %v, want %v", got, ATTACK_MAX_S)
	}
	// Square law: half travel is a quarter of full scale.
	if got := envSeconds(0.5, RELEASE_MAX_S); got != RELEASE_MAX_S/4 {
		t.Errorf("envSeconds(0.5) = %v, want %v", got, RELEASE_MAX_S/4)
	}
}

func TestParamStoreAdsrSnapshot(t *testing.T) {
	store := NewParamStore()
	store.SetParam(PARAM_ATTACK, 0.5)
	store.SetParam(PARAM_DECAY, 1.0)
	store.SetParam(PARAM_SUSTAIN, 0.65)
	store.SetParam(PARAM_RELEASE, 0.25)

	got := store.AdsrParams()
	if want := 0.25 * ATTACK_MAX_S; got.AttackSeconds != want {
		t.Errorf("AttackSeconds = %v, want %v", got.AttackSeconds, want)
	}
	if got.DecaySeconds != DECAY_MAX_S {
		t.Errorf("DecaySeconds = %v, want %v", got.DecaySeconds, DECAY_MAX_S)
	}
	if got.SustainLevel != 0.65 {
		t.Errorf("SustainLevel = %v, want 0.65", got.SustainLevel)
	}
	if want := 0.0625 * RELEASE_MAX_S; got.ReleaseSeconds != want {
		t.Errorf("ReleaseSeconds = %v, want %v", got.ReleaseSeconds, want)
	}
}

func TestParamStoreReleaseNeverZero(t *testing.T) {
	// The release knob hard at zero must still produce a positive
	// release time; the envelope divides by it.
	store := NewParamStore()
	store.SetParam(PARAM_RELEASE, 0.0)
	got := store.AdsrParams()
	if got.ReleaseSeconds < RELEASE_MIN_S {
		t.Errorf("ReleaseSeconds = %v, want >= %v", got.ReleaseSeconds, RELEASE_MIN_S)
	}
}

func TestParamStoreOscillatorSnapshot(t *testing.T) {
	store := NewParamStore()
	store.SetParam(PARAM_OSC1_TUNE, 1.0)
	store.SetParam(PARAM_OSC1_LEVEL, 0.5)
	store.SetParam(PARAM_OSC2_TUNE, 0.0)
	store.SetParam(PARAM_OSC2_LEVEL, 1.0)

	got := store.OscillatorParams()
	if math.Abs(got.Mul1-2.0) > 1e-12 {
		t.Errorf("Mul1 = %v, want 2.0", got.Mul1)
	}
	if got.Level1 != 0.5*LEVEL_MAX {
		t.Errorf("Level1 = %v, want %v", got.Level1, 0.5*LEVEL_MAX)
	}
	if math.Abs(got.Mul2-0.5) > 1e-12 {
		t.Errorf("Mul2 = %v, want 0.5", got.Mul2)
	}
	if got.Level2 != LEVEL_MAX {
		t.Errorf("Level2 = %v, want %v", got.Level2, LEVEL_MAX)
	}
}

func TestParamName(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{PARAM_OSC1_TUNE, "Osc 1 Tune"},
		{PARAM_OSC2_LEVEL, "Osc 2 Level"},
		{PARAM_RELEASE, "Release"},
		{-1, "Param -1"},
		{NUM_PARAMS, "Param 8"},
	}
	for _, tt := range tests {
		if got := ParamName(tt.index); got != tt.want {
			t.Errorf("ParamName(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestFormatParam(t *testing.T) {
	store := NewParamStore()
	store.SetParam(PARAM_OSC1_TUNE, 0.5)
	store.SetParam(PARAM_OSC1_LEVEL, 0.5)
	store.SetParam(PARAM_ATTACK, 0.5)
	store.SetParam(PARAM_SUSTAIN, 0.7)
	store.SetParam(PARAM_RELEASE, 0.0)

	tests := []struct {
		index int
		want  string
	}{
		{PARAM_OSC1_TUNE, "x1.00"},
		{PARAM_OSC1_LEVEL, "1.00"},
		{PARAM_ATTACK, "1.00s"},
		{PARAM_SUSTAIN, "70%"},
		{PARAM_RELEASE, "0.01s"},
	}
	for _, tt := range tests {
		if got := store.FormatParam(tt.index); got != tt.want {
			t.Errorf("FormatParam(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}
