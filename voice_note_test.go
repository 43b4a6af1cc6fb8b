// voice_note_test.go - Tests for MIDI note to frequency conversion

package main

import (
	"math"
	"testing"
)

func TestMidiNoteFrequency(t *testing.T) {
	tests := []struct {
		name string
		note MidiNote
		want float64
	}{
		{"A4 reference", 69, 440.0},
		{"A5 octave up", 81, 880.0},
		{"A3 octave down", 57, 220.0},
		{"A2 two octaves down", 45, 110.0},
		{"C4 middle C", 60, 261.6255653005986},
		{"E4", 64, 329.6275569128699},
		{"lowest note", 0, 8.175798915643707},
		{"highest note", 127, 12543.853951415975},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.note.Frequency()
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MidiNote(%d).Frequency() = %v, want %v", tt.note, got, tt.want)
			}
		})
	}
}

func TestMidiNoteFrequencyOctaveDoubling(t *testing.T) {
	// Every octave step doubles the pitch exactly, across the range.
	for note := MidiNote(0); note <= 115; note++ {
		low := note.Frequency()
		high := (note + SEMITONES_PER_OCTAVE).Frequency()
		if math.Abs(high-2*low) > 1e-6 {
			t.Fatalf("octave above note %d: got %v, want %v", note, high, 2*low)
		}
	}
}

func TestMidiNoteString(t *testing.T) {
	tests := []struct {
		note MidiNote
		want string
	}{
		{69, "A4"},
		{60, "C4"},
		{61, "C#4"},
		{0, "C-1"},
		{127, "G9"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.note.String(); got != tt.want {
				t.Errorf("MidiNote(%d).String() = %q, want %q", tt.note, got, tt.want)
			}
		})
	}
}
