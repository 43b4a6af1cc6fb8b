// midi_input.go - live MIDI note input with hot-plug reconnection

package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

const MIDI_RESCAN_INTERVAL = 2 * time.Second

// MidiInput connects a hardware MIDI port to the chip's event queue
// and keeps the connection alive across unplugs: a watcher goroutine
// rescans while disconnected and reattaches when the port returns.
type MidiInput struct {
	chip  *VoiceChip
	match string // Case-insensitive substring of the wanted port name

	mu       sync.Mutex
	drv      *rtmididrv.Driver
	port     drivers.In
	stopFn   func()
	portName string

	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once
}

func NewMidiInput(chip *VoiceChip, match string) (*MidiInput, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midi driver: %w", err)
	}
	return &MidiInput{
		chip:   chip,
		match:  match,
		drv:    drv,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// ListMidiInputs returns the names of the connected MIDI input ports.
func ListMidiInputs() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midi driver: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}

// Start connects to the first matching port if one is present and
// launches the hot-plug watcher.
func (m *MidiInput) Start() {
	if err := m.connect(); err != nil {
		slog.Info("no MIDI input yet, watching for one", "match", m.match)
	}
	go m.watch()
}

// watch rescans on a ticker while disconnected. Connected ports are
// handled by the listener's error callback, which disconnects and
// lets this loop pick the port up again.
func (m *MidiInput) watch() {
	defer close(m.done)
	ticker := time.NewTicker(MIDI_RESCAN_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			if !m.connected() {
				if err := m.connect(); err != nil {
					slog.Debug("MIDI rescan found nothing", "match", m.match)
				}
			}
		}
	}
}

func (m *MidiInput) connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port != nil
}

// PortName reports the connected port, empty when disconnected.
func (m *MidiInput) PortName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.portName
}

func (m *MidiInput) connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ins, err := m.drv.Ins()
	if err != nil {
		return fmt.Errorf("list midi inputs: %w", err)
	}

	var found drivers.In
	for _, in := range ins {
		if m.match == "" || strings.Contains(strings.ToLower(in.String()), strings.ToLower(m.match)) {
			found = in
			break
		}
	}
	if found == nil {
		return fmt.Errorf("no MIDI input matching %q", m.match)
	}
	name := found.String()

	if err := found.Open(); err != nil {
		return fmt.Errorf("open MIDI input %q: %w", name, err)
	}

	stop, err := midi.ListenTo(found, func(msg midi.Message, timestampms int32) {
		m.onMessage(msg)
	}, midi.HandleError(func(listenErr error) {
		slog.Warn("MIDI listener error, device likely disconnected", "device", name, "err", listenErr)
		// Must not tear down from inside the listener goroutine: the
		// stop function joins it.
		go m.disconnect()
	}))
	if err != nil {
		_ = found.Close()
		return fmt.Errorf("listen to MIDI input %q: %w", name, err)
	}

	m.port = found
	m.stopFn = stop
	m.portName = name
	slog.Info("MIDI input connected", "device", name)
	return nil
}

// onMessage decodes note starts and ends into chip events. Velocity
// only matters as zero-or-not: the drone has no velocity response.
func (m *MidiInput) onMessage(msg midi.Message) {
	var ch, key, vel uint8
	if msg.GetNoteStart(&ch, &key, &vel) {
		m.chip.NoteOn(MidiNote(key))
		return
	}
	if msg.GetNoteEnd(&ch, &key) {
		m.chip.NoteOff(MidiNote(key))
		return
	}
	slog.Debug("unhandled MIDI message", "msg", msg.String())
}

// disconnect tears down the current port and releases the sounding
// note: with the controller gone, its note-off can never arrive.
func (m *MidiInput) disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.port == nil {
		return
	}
	if m.stopFn != nil {
		m.stopFn()
		m.stopFn = nil
	}
	_ = m.port.Close()
	slog.Info("MIDI input disconnected", "device", m.portName)
	m.port = nil
	m.portName = ""
	m.chip.ReleaseAll()
}

// Stop halts the watcher and closes the driver.
func (m *MidiInput) Stop() {
	m.stopped.Do(func() {
		close(m.stopCh)
	})
	<-m.done
	m.disconnect()
	_ = m.drv.Close()
}
