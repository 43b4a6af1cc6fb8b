// voice_note.go - MIDI note numbers and equal tempered pitch

package main

import (
	"fmt"
	"math"
)

// Reference tuning: A4 (MIDI note 69) sounds at 440 Hz.
const (
	TUNING_REF_NOTE      = 69
	TUNING_REF_HZ        = 440.0
	SEMITONES_PER_OCTAVE = 12
)

// MidiNote is a MIDI note number in the 0-127 range.
type MidiNote uint8

// Frequency returns the note's equal tempered pitch in Hz. Each
// octave doubles the frequency, each semitone is a factor of 2^(1/12).
func (n MidiNote) Frequency() float64 {
	return TUNING_REF_HZ * math.Exp2((float64(n)-TUNING_REF_NOTE)/SEMITONES_PER_OCTAVE)
}

var noteNames = [SEMITONES_PER_OCTAVE]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// String renders the note in scientific pitch notation (69 -> "A4").
func (n MidiNote) String() string {
	return fmt.Sprintf("%s%d", noteNames[n%SEMITONES_PER_OCTAVE], int(n)/SEMITONES_PER_OCTAVE-1)
}
