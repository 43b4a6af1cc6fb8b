package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// Keyboard layout constants. The 'a' row plays a piano octave, the
// same layout trackers use.
const (
	KEYS_BASE_OCTAVE = 4 // 'a' sounds C4 at startup
	KEYS_MIN_OCTAVE  = 0
	KEYS_MAX_OCTAVE  = 8
	KNOB_STEP        = 0.05
)

// Actions produced by the key mapper.
const (
	KEY_ACTION_NONE = iota
	KEY_ACTION_NOTE
	KEY_ACTION_NOTE_OFF
	KEY_ACTION_OCTAVE_DOWN
	KEY_ACTION_OCTAVE_UP
	KEY_ACTION_PARAM_PREV
	KEY_ACTION_PARAM_NEXT
	KEY_ACTION_PARAM_DOWN
	KEY_ACTION_PARAM_UP
	KEY_ACTION_QUIT
)

type keyAction struct {
	kind     int
	semitone int // Offset from C in the current octave, notes only
}

// pianoKeys maps the home row to semitones: 'a' is C, 'w' is C#, 's'
// is D, up to 'k' for the C an octave above.
var pianoKeys = map[byte]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5,
	't': 6, 'g': 7, 'y': 8, 'h': 9, 'u': 10, 'j': 11, 'k': 12,
}

// mapKey translates one raw stdin byte into a keyboard action. Pure
// function, kept apart from the terminal plumbing so it can be tested
// without a tty.
func mapKey(b byte) keyAction {
	if semi, ok := pianoKeys[b]; ok {
		return keyAction{kind: KEY_ACTION_NOTE, semitone: semi}
	}
	switch b {
	case ' ':
		return keyAction{kind: KEY_ACTION_NOTE_OFF}
	case 'z':
		return keyAction{kind: KEY_ACTION_OCTAVE_DOWN}
	case 'x':
		return keyAction{kind: KEY_ACTION_OCTAVE_UP}
	case '[':
		return keyAction{kind: KEY_ACTION_PARAM_PREV}
	case ']':
		return keyAction{kind: KEY_ACTION_PARAM_NEXT}
	case '-':
		return keyAction{kind: KEY_ACTION_PARAM_DOWN}
	case '=', '+':
		return keyAction{kind: KEY_ACTION_PARAM_UP}
	case 'q', 0x03: // Ctrl-C arrives as a raw byte in raw mode
		return keyAction{kind: KEY_ACTION_QUIT}
	}
	return keyAction{kind: KEY_ACTION_NONE}
}

// keyNote builds the MIDI note for a semitone offset in an octave,
// clamped into the 0-127 range. C4 is MIDI 60.
func keyNote(octave, semitone int) MidiNote {
	n := (octave+1)*SEMITONES_PER_OCTAVE + semitone
	if n < 0 {
		n = 0
	}
	if n > 127 {
		n = 127
	}
	return MidiNote(n)
}

// TerminalHost reads raw stdin and plays the drone from the keyboard.
// Only instantiated in main.go for interactive use, never in tests.
type TerminalHost struct {
	chip         *VoiceChip
	octave       int
	paramIndex   int
	lastNote     MidiNote
	noteHeld     bool
	quitCh       chan struct{}
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	quitOnce     sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

// NewTerminalHost creates a host adapter that plays the given chip
// from stdin.
func NewTerminalHost(chip *VoiceChip) *TerminalHost {
	return &TerminalHost{
		chip:       chip,
		octave:     KEYS_BASE_OCTAVE,
		paramIndex: PARAM_OSC1_TUNE,
		quitCh:     make(chan struct{}),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// QuitRequested is closed when the user presses q or Ctrl-C.
func (h *TerminalHost) QuitRequested() <-chan struct{} {
	return h.quitCh
}

// Start sets stdin to raw non-blocking mode and begins reading in a
// goroutine. Call Stop() to restore stdin.
func (h *TerminalHost) Start() {
	h.fd = int(os.Stdin.Fd())

	// Raw mode disables OS-level echo and line buffering so single
	// keypresses arrive immediately.
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return
	}
	h.nonblockSet = true

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := syscall.Read(h.fd, buf)
			if n > 0 {
				if quit := h.handleKey(buf[0]); quit {
					h.quitOnce.Do(func() { close(h.quitCh) })
					return
				}
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

// handleKey applies one key press to the chip. Returns true when the
// user asked to quit.
func (h *TerminalHost) handleKey(b byte) bool {
	action := mapKey(b)
	switch action.kind {
	case KEY_ACTION_NOTE:
		note := keyNote(h.octave, action.semitone)
		h.chip.NoteOn(note)
		h.lastNote = note
		h.noteHeld = true
		h.status(fmt.Sprintf("note %-4s %7.1f Hz", note.String(), note.Frequency()))
	case KEY_ACTION_NOTE_OFF:
		if h.noteHeld {
			h.chip.NoteOff(h.lastNote)
			h.noteHeld = false
			h.status(fmt.Sprintf("release %s", h.lastNote.String()))
		}
	case KEY_ACTION_OCTAVE_DOWN:
		if h.octave > KEYS_MIN_OCTAVE {
			h.octave--
		}
		h.status(fmt.Sprintf("octave %d", h.octave))
	case KEY_ACTION_OCTAVE_UP:
		if h.octave < KEYS_MAX_OCTAVE {
			h.octave++
		}
		h.status(fmt.Sprintf("octave %d", h.octave))
	case KEY_ACTION_PARAM_PREV:
		h.paramIndex = (h.paramIndex + NUM_PARAMS - 1) % NUM_PARAMS
		h.statusParam()
	case KEY_ACTION_PARAM_NEXT:
		h.paramIndex = (h.paramIndex + 1) % NUM_PARAMS
		h.statusParam()
	case KEY_ACTION_PARAM_DOWN:
		h.chip.SetParam(h.paramIndex, h.chip.Params().Param(h.paramIndex)-KNOB_STEP)
		h.statusParam()
	case KEY_ACTION_PARAM_UP:
		h.chip.SetParam(h.paramIndex, h.chip.Params().Param(h.paramIndex)+KNOB_STEP)
		h.statusParam()
	case KEY_ACTION_QUIT:
		return true
	}
	return false
}

// status rewrites the single interactive status line. Raw mode needs
// an explicit carriage return and no newline.
func (h *TerminalHost) status(s string) {
	fmt.Printf("\r\033[K%s", s)
}

func (h *TerminalHost) statusParam() {
	h.status(fmt.Sprintf("%-11s %s", ParamName(h.paramIndex), h.chip.Params().FormatParam(h.paramIndex)))
}

// Stop terminates the stdin reading goroutine and restores stdin to
// blocking cooked mode.
func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
	fmt.Println()
}
