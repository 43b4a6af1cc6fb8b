// voice_signal.go - oscillator bank, mixer and monophonic voice state

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

// OscillatorParams carries the detuned oscillators' settings for one
// rendered sample. The base oscillator is fixed at multiplier 1.0 and
// level 1.0 and is not configurable. Levels are linear mix weights
// and deliberately unclamped: values above 1 or below 0 are legal and
// the mix is an unnormalized sum, so the output can exceed +-1.
type OscillatorParams struct {
	Mul1   float64 // Frequency multiplier for oscillator 1, > 0
	Level1 float64 // Mix weight for oscillator 1
	Mul2   float64 // Frequency multiplier for oscillator 2, > 0
	Level2 float64 // Mix weight for oscillator 2
}

// DroneVoice is the single monophonic voice: the sounding note and
// its envelope. Absolute time is owned by the chip and passed in per
// sample, so the voice itself carries no clock.
type DroneVoice struct {
	note       MidiNote
	noteActive bool
	env        *AdsrEnvelope
}

func NewDroneVoice() *DroneVoice {
	return &DroneVoice{
		env: NewAdsrEnvelope(AdsrParams{ReleaseSeconds: RELEASE_MIN_S}),
	}
}

// NoteOn starts the note with a fresh envelope built from params.
// A note already sounding is replaced outright: last note wins, and
// the old note's release tail is discarded rather than layered.
func (v *DroneVoice) NoteOn(time float64, note MidiNote, params AdsrParams) {
	v.env = NewAdsrEnvelope(params)
	v.env.Trigger(time)
	v.note = note
	v.noteActive = true
}

// NoteOff releases the envelope only when note matches the note that
// is sounding. A stale note-off for a note that has since been
// replaced is a no-op. The note itself is kept so the release tail
// rings out at its pitch.
func (v *DroneVoice) NoteOff(time float64, note MidiNote) {
	if v.noteActive && v.note == note {
		v.env.Release(time)
	}
}

// ReleaseAll releases the sounding note regardless of its id. Used
// when a controller disconnects and a matching note-off can no longer
// arrive.
func (v *DroneVoice) ReleaseAll(time float64) {
	if v.noteActive {
		v.env.Release(time)
	}
}

// ActiveNote reports the sounding note, if any. The note stays active
// through its release tail; only a voice that has never been played
// reports false.
func (v *DroneVoice) ActiveNote() (MidiNote, bool) {
	return v.note, v.noteActive
}

// Sample renders one sample at the given absolute time: three
// phase-wrapped sawtooths (base plus two detuned) are summed without
// normalization, then scaled by the envelope amplitude.
func (v *DroneVoice) Sample(time float64, osc OscillatorParams) float64 {
	if !v.noteActive {
		return 0.0
	}
	baseFreq := v.note.Frequency()
	signal0 := sawtooth(time * baseFreq)
	signal1 := sawtooth(time * baseFreq * osc.Mul1)
	signal2 := sawtooth(time * baseFreq * osc.Mul2)
	mixed := signal0 + signal1*osc.Level1 + signal2*osc.Level2
	return mixed * v.env.Sample(time)
}

// sawtooth wraps x into one cycle and centers it on zero: the output
// ramps over [-0.5, 0.5) once per unit of x. Naive phase wrap, no
// band limiting.
func sawtooth(x float64) float64 {
	return x - math.Floor(x) - 0.5
}
