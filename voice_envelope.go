// voice_envelope.go - ADSR envelope state machine for the drone voice

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

import "math"

// Envelope states. ENV_ATTACK -> ENV_DECAY -> ENV_SUSTAIN and
// ENV_RELEASE -> ENV_SILENT transitions happen lazily inside Sample;
// Trigger and Release are the only externally driven transitions.
const (
	ENV_SILENT = iota
	ENV_ATTACK
	ENV_DECAY
	ENV_SUSTAIN
	ENV_RELEASE
)

// AdsrParams describes one envelope in seconds and linear level.
// A snapshot is taken at each note-on; knob movement applies to the
// next note, never retroactively to a segment in flight.
type AdsrParams struct {
	AttackSeconds  float64 // >= 0
	DecaySeconds   float64 // >= 0
	SustainLevel   float64 // 0..1
	ReleaseSeconds float64 // > 0
}

// AdsrEnvelope converts note-on/note-off timing into an amplitude
// multiplier over absolute time. One instance per note: a note-on
// builds a fresh envelope rather than reusing the old one.
type AdsrEnvelope struct {
	params       AdsrParams
	state        int
	stateStart   float64 // Segment start time (attack/decay/release)
	releaseLevel float64 // Amplitude captured when Release began
}

func NewAdsrEnvelope(params AdsrParams) *AdsrEnvelope {
	return &AdsrEnvelope{params: params, state: ENV_SILENT}
}

// Trigger restarts the envelope from the attack segment, whatever
// state it was in. A trigger mid-release restarts the whole envelope
// rather than crossfading.
func (env *AdsrEnvelope) Trigger(time float64) {
	env.state = ENV_ATTACK
	env.stateStart = time
}

// Release begins the release segment, falling from whatever amplitude
// the envelope holds at time. No-op when already releasing or silent.
func (env *AdsrEnvelope) Release(time float64) {
	if env.state == ENV_SILENT || env.state == ENV_RELEASE {
		return
	}
	// Sample before mutating: sampling may itself advance the state
	// past attack/decay boundaries, and release must fall from the
	// level actually sounding at this instant, not from a reset one.
	level := env.Sample(time)
	env.state = ENV_RELEASE
	env.stateStart = time
	env.releaseLevel = level
}

// Sample returns the amplitude at the given absolute time, advancing
// the state machine past any segment boundaries that time has
// crossed since the last call. Repeated calls at the same time are
// stable. The result is always in [0, 1] and never NaN.
func (env *AdsrEnvelope) Sample(time float64) float64 {
	for {
		switch env.state {
		case ENV_SILENT:
			return 0.0

		case ENV_ATTACK:
			reltime := time - env.stateStart
			if reltime < 0 {
				// Event ordering guard: sampled before the trigger
				// time it was given.
				return 0.0
			}
			if env.params.AttackSeconds <= 0 {
				// Degenerate instant attack: jump straight to decay
				// instead of dividing by zero.
				env.state = ENV_DECAY
				continue
			}
			if reltime > env.params.AttackSeconds {
				env.state = ENV_DECAY
				env.stateStart += env.params.AttackSeconds
				continue
			}
			return clampUnit(reltime / env.params.AttackSeconds)

		case ENV_DECAY:
			reltime := time - env.stateStart
			if env.params.DecaySeconds <= 0 || reltime < 0 || reltime > env.params.DecaySeconds {
				env.state = ENV_SUSTAIN
				continue
			}
			return clampUnit(1.0 - (reltime/env.params.DecaySeconds)*(1.0-env.params.SustainLevel))

		case ENV_SUSTAIN:
			return clampUnit(env.params.SustainLevel)

		case ENV_RELEASE:
			reltime := time - env.stateStart
			if reltime < 0 {
				// Late query from before the release began: hold the
				// captured level rather than rewinding.
				return clampUnit(env.releaseLevel)
			}
			if env.params.ReleaseSeconds <= 0 {
				env.state = ENV_SILENT
				return 0.0
			}
			// Release time is absolute, not scaled by the captured
			// level: a release begun at 0.3 hits zero sooner than one
			// begun at 1.0.
			alpha := env.releaseLevel - reltime/env.params.ReleaseSeconds
			if alpha <= 0 {
				env.state = ENV_SILENT
				return 0.0
			}
			return clampUnit(alpha)

		default:
			return 0.0
		}
	}
}

// clampUnit collapses out-of-range and NaN amplitudes to the nearest
// bound so nothing outside [0, 1] can escape into the render path.
func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0.0
	}
	if v > 1 {
		return 1.0
	}
	return v
}
