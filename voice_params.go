// voice_params.go - lock-free knob store shared by control and render paths

/*
██████  ██████   ██████  ███    ██ ███████     ███████ ███    ██  ██████  ██ ███    ██ ███████
██   ██ ██   ██ ██    ██ ████   ██ ██          ██      ████   ██ ██       ██ ████   ██ ██
██   ██ ██████  ██    ██ ██ ██  ██ █████       █████   ██ ██  ██ ██   ███ ██ ██ ██  ██ █████
██   ██ ██   ██ ██    ██ ██  ██ ██ ██          ██      ██  ██ ██ ██    ██ ██ ██  ██ ██ ██
██████  ██   ██  ██████  ██   ████ ███████     ███████ ██   ████  ██████  ██ ██   ████ ███████

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/DroneEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Knob indices. Knob positions live in [0, 1]; conversion into
// seconds, mix levels and frequency multipliers happens in this file
// so the voice only ever sees semantic units.
const (
	PARAM_OSC1_TUNE = iota
	PARAM_OSC1_LEVEL
	PARAM_OSC2_TUNE
	PARAM_OSC2_LEVEL
	PARAM_ATTACK
	PARAM_DECAY
	PARAM_SUSTAIN
	PARAM_RELEASE
	NUM_PARAMS
)

const (
	ATTACK_MAX_S  = 4.0  // Attack knob full scale in seconds
	DECAY_MAX_S   = 4.0  // Decay knob full scale in seconds
	RELEASE_MAX_S = 8.0  // Release knob full scale in seconds
	RELEASE_MIN_S = 0.01 // Release floor, keeps ReleaseSeconds > 0
	LEVEL_MAX     = 2.0  // Level knob full scale, >1 overdrives the mix
)

// ParamStore holds the knobs as raw float bits in atomics. The render
// path reads with single atomic loads and never takes a lock; control
// paths (MIDI, terminal, scripts) write the same way. A write becomes
// audible on the next sample or the next note-on, which is all the
// voice requires.
type ParamStore struct {
	knobs [NUM_PARAMS]atomic.Uint64
}

var paramNames = [NUM_PARAMS]string{
	"Osc 1 Tune",
	"Osc 1 Level",
	"Osc 2 Tune",
	"Osc 2 Level",
	"Attack",
	"Decay",
	"Sustain",
	"Release",
}

// Startup knob positions: both extra oscillators slightly audible at
// unity tune, a slow swell and a long tail. Chosen to drone out of
// the box rather than start silent.
var defaultKnobs = [NUM_PARAMS]float64{
	0.5, 0.25, 0.5, 0.25, 0.25, 0.25, 0.7, 0.3,
}

func NewParamStore() *ParamStore {
	store := &ParamStore{}
	for i, v := range defaultKnobs {
		store.SetParam(i, v)
	}
	return store
}

// SetParam stores a knob position, clamped to [0, 1]. Out-of-range
// indices are ignored rather than rejected: knob writes arrive from
// live control surfaces and must never fail.
func (store *ParamStore) SetParam(index int, knob float64) {
	if index < 0 || index >= NUM_PARAMS {
		return
	}
	store.knobs[index].Store(math.Float64bits(clampUnit(knob)))
}

// Param returns the raw knob position in [0, 1].
func (store *ParamStore) Param(index int) float64 {
	if index < 0 || index >= NUM_PARAMS {
		return 0.0
	}
	return math.Float64frombits(store.knobs[index].Load())
}

// frequencyMultiplier maps a knob to a multiplier between 0.5 (one
// octave down) and 2.0 (one octave up), exponentially, with 1.0 at
// center detent.
func frequencyMultiplier(knob float64) float64 {
	return math.Exp2(knob*2.0 - 1.0)
}

// envSeconds maps a knob to seconds with a square law so the lower
// half of the knob's travel covers the short, most used times.
func envSeconds(knob, maxSeconds float64) float64 {
	return knob * knob * maxSeconds
}

// AdsrParams snapshots the four envelope knobs into semantic units.
// Called once per note-on.
func (store *ParamStore) AdsrParams() AdsrParams {
	return AdsrParams{
		AttackSeconds:  envSeconds(store.Param(PARAM_ATTACK), ATTACK_MAX_S),
		DecaySeconds:   envSeconds(store.Param(PARAM_DECAY), DECAY_MAX_S),
		SustainLevel:   store.Param(PARAM_SUSTAIN),
		ReleaseSeconds: math.Max(envSeconds(store.Param(PARAM_RELEASE), RELEASE_MAX_S), RELEASE_MIN_S),
	}
}

// OscillatorParams snapshots the four oscillator knobs into semantic
// units. Called once per rendered sample, four atomic loads.
func (store *ParamStore) OscillatorParams() OscillatorParams {
	return OscillatorParams{
		Mul1:   frequencyMultiplier(store.Param(PARAM_OSC1_TUNE)),
		Level1: store.Param(PARAM_OSC1_LEVEL) * LEVEL_MAX,
		Mul2:   frequencyMultiplier(store.Param(PARAM_OSC2_TUNE)),
		Level2: store.Param(PARAM_OSC2_LEVEL) * LEVEL_MAX,
	}
}

// ParamName returns the display name for a knob index.
func ParamName(index int) string {
	if index < 0 || index >= NUM_PARAMS {
		return fmt.Sprintf("Param %d", index)
	}
	return paramNames[index]
}

// FormatParam renders a knob's semantic value for display: seconds
// for envelope times, a multiplier for tuning, a percentage for
// sustain.
func (store *ParamStore) FormatParam(index int) string {
	switch index {
	case PARAM_OSC1_TUNE, PARAM_OSC2_TUNE:
		return fmt.Sprintf("x%.2f", frequencyMultiplier(store.Param(index)))
	case PARAM_OSC1_LEVEL, PARAM_OSC2_LEVEL:
		return fmt.Sprintf("%.2f", store.Param(index)*LEVEL_MAX)
	case PARAM_ATTACK:
		return fmt.Sprintf("%.2fs", envSeconds(store.Param(index), ATTACK_MAX_S))
	case PARAM_DECAY:
		return fmt.Sprintf("%.2fs", envSeconds(store.Param(index), DECAY_MAX_S))
	case PARAM_SUSTAIN:
		return fmt.Sprintf("%.0f%%", store.Param(index)*100.0)
	case PARAM_RELEASE:
		return fmt.Sprintf("%.2fs", math.Max(envSeconds(store.Param(index), RELEASE_MAX_S), RELEASE_MIN_S))
	default:
		return fmt.Sprintf("%.2f", store.Param(index))
	}
}
