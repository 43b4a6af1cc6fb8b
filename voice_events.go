// voice_events.go - note events and raw MIDI status decoding

package main

// Note event kinds. EVENT_RELEASE_ALL releases whatever note is
// sounding without naming it: hosts post it when their controller
// goes away and they can no longer deliver a matching note-off.
const (
	EVENT_NOTE_ON = iota
	EVENT_NOTE_OFF
	EVENT_RELEASE_ALL
)

// Raw MIDI status nibbles handled by the decoder.
const (
	MIDI_STATUS_NOTE_OFF = 0x80
	MIDI_STATUS_NOTE_ON  = 0x90
	MIDI_STATUS_MASK     = 0xF0
	MIDI_DATA_MASK       = 0x7F
)

// NoteEvent is one decoded note-on or note-off. Events are queued and
// applied ahead of the sample batch they precede, never mid-batch.
type NoteEvent struct {
	Kind int
	Note MidiNote
}

// DecodeMidiMessage turns a raw 3-byte MIDI message into a NoteEvent.
// The channel nibble is ignored: the voice is monophonic and listens
// omni. A note-on with velocity zero counts as a note-off, per the
// running status convention. Any other message returns false.
func DecodeMidiMessage(data [3]byte) (NoteEvent, bool) {
	note := MidiNote(data[1] & MIDI_DATA_MASK)
	switch data[0] & MIDI_STATUS_MASK {
	case MIDI_STATUS_NOTE_ON:
		if data[2] == 0 {
			return NoteEvent{Kind: EVENT_NOTE_OFF, Note: note}, true
		}
		return NoteEvent{Kind: EVENT_NOTE_ON, Note: note}, true
	case MIDI_STATUS_NOTE_OFF:
		return NoteEvent{Kind: EVENT_NOTE_OFF, Note: note}, true
	}
	return NoteEvent{}, false
}
