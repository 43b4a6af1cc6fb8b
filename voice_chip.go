// voice_chip.go - render host: clock, event queue and output ring

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
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const (
	SAMPLE_RATE          = 44100 // Default output rate in Hz
	RING_BUFFER_SIZE     = 8192  // Must be a power of two
	RING_INDEX_MASK      = RING_BUFFER_SIZE - 1
	RENDER_BLOCK_SAMPLES = 128 // Events apply at block boundaries
	EVENT_QUEUE_SIZE     = 256
	RING_FULL_BACKOFF    = 500 * time.Microsecond
)

// VoiceChip hosts the drone voice: it owns the monotonic clock, the
// knob store, the note event queue and the output ring the audio
// backends pull from.
//
// Concurrency contract: exactly one goroutine renders (either the
// internal render loop after Start, or a test/offline caller driving
// GenerateSample directly). Control paths talk to the render path
// only through atomics and the event channel; the mutex below guards
// lifecycle alone and is never held while samples are produced.
type VoiceChip struct {
	voice  *DroneVoice
	params *ParamStore

	// Owned by the render goroutine. Advances by one step per sample
	// whether or not a note is sounding, so a note started after long
	// silence begins at the current time, not where the last stopped.
	time float64

	timeStepBits atomic.Uint64 // 1/sampleRate as float bits
	sampleRate   atomic.Int64

	events chan NoteEvent

	// Single-producer single-consumer ring between the render loop
	// and the backend's pull callback. Head and tail only ever move
	// forward; an empty ring yields silence, never a block.
	ring     [RING_BUFFER_SIZE]float32
	ringHead atomic.Int64
	ringTail atomic.Int64

	output AudioOutput

	mutex   sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

func NewVoiceChip(backend int) (*VoiceChip, error) {
	return NewVoiceChipAtRate(backend, SAMPLE_RATE)
}

func NewVoiceChipAtRate(backend int, rate int) (*VoiceChip, error) {
	chip := &VoiceChip{
		voice:  NewDroneVoice(),
		params: NewParamStore(),
		events: make(chan NoteEvent, EVENT_QUEUE_SIZE),
	}
	chip.setTimeStep(rate)

	output, err := NewAudioOutput(backend, rate, chip)
	if err != nil {
		return nil, err
	}
	chip.output = output
	return chip, nil
}

// SetSampleRate rederives the per-sample time step. The absolute time
// already accumulated is left alone: a rate change only alters the
// step size going forward, it never rewinds the clock.
func (chip *VoiceChip) SetSampleRate(rate int) {
	if rate <= 0 {
		return
	}
	chip.setTimeStep(rate)
	slog.Debug("sample rate changed", "rate", rate)
}

func (chip *VoiceChip) setTimeStep(rate int) {
	chip.sampleRate.Store(int64(rate))
	chip.timeStepBits.Store(math.Float64bits(1.0 / float64(rate)))
}

func (chip *VoiceChip) SampleRate() int {
	return int(chip.sampleRate.Load())
}

func (chip *VoiceChip) Params() *ParamStore {
	return chip.params
}

// SetParam forwards a knob write to the store. Safe from any
// goroutine.
func (chip *VoiceChip) SetParam(index int, knob float64) {
	chip.params.SetParam(index, knob)
}

// PostEvent queues a note event for the head of the next render
// block. Never blocks the caller: when the queue is full the event is
// dropped and logged, which beats stalling a MIDI callback.
func (chip *VoiceChip) PostEvent(ev NoteEvent) {
	select {
	case chip.events <- ev:
	default:
		slog.Warn("note event dropped, queue full", "kind", ev.Kind, "note", ev.Note)
	}
}

func (chip *VoiceChip) NoteOn(note MidiNote) {
	slog.Debug("note on", "note", note.String(), "freq", note.Frequency())
	chip.PostEvent(NoteEvent{Kind: EVENT_NOTE_ON, Note: note})
}

func (chip *VoiceChip) NoteOff(note MidiNote) {
	slog.Debug("note off", "note", note.String())
	chip.PostEvent(NoteEvent{Kind: EVENT_NOTE_OFF, Note: note})
}

// ReleaseAll releases whatever note is sounding. Hosts use it when
// they lose track of their controller.
func (chip *VoiceChip) ReleaseAll() {
	chip.PostEvent(NoteEvent{Kind: EVENT_RELEASE_ALL})
}

// drainEvents applies every queued note event. Runs on the render
// goroutine at block boundaries, so an event is always ordered before
// the batch it precedes and never lands mid-batch.
func (chip *VoiceChip) drainEvents() {
	for {
		select {
		case ev := <-chip.events:
			switch ev.Kind {
			case EVENT_NOTE_ON:
				chip.voice.NoteOn(chip.time, ev.Note, chip.params.AdsrParams())
			case EVENT_NOTE_OFF:
				chip.voice.NoteOff(chip.time, ev.Note)
			case EVENT_RELEASE_ALL:
				chip.voice.ReleaseAll(chip.time)
			}
		default:
			return
		}
	}
}

// GenerateSample renders one sample and advances the clock by one
// step. Hot path: atomic loads only, no locks, no allocation.
func (chip *VoiceChip) GenerateSample() float32 {
	sample := chip.voice.Sample(chip.time, chip.params.OscillatorParams())
	chip.time += math.Float64frombits(chip.timeStepBits.Load())
	return float32(sample)
}

// RenderBlock drains pending events and renders n samples into dst.
// This is the offline entry point: WAV rendering and tests call it
// directly instead of going through the ring.
func (chip *VoiceChip) RenderBlock(dst []float32) {
	chip.drainEvents()
	for i := range dst {
		dst[i] = chip.GenerateSample()
	}
}

func (chip *VoiceChip) writeSampleToRing(s float32) bool {
	head := chip.ringHead.Load()
	if head-chip.ringTail.Load() >= RING_BUFFER_SIZE {
		return false
	}
	chip.ring[head&RING_INDEX_MASK] = s
	chip.ringHead.Store(head + 1)
	return true
}

// ReadSampleFromRing feeds the audio backend. An empty ring yields
// silence instead of blocking inside the audio callback.
func (chip *VoiceChip) ReadSampleFromRing() float32 {
	tail := chip.ringTail.Load()
	if tail >= chip.ringHead.Load() {
		return 0.0
	}
	s := chip.ring[tail&RING_INDEX_MASK]
	chip.ringTail.Store(tail + 1)
	return s
}

// BufferedSamples reports how many samples sit in the ring.
func (chip *VoiceChip) BufferedSamples() int {
	return int(chip.ringHead.Load() - chip.ringTail.Load())
}

// renderLoop keeps the ring topped up one block at a time. Runs until
// Stop closes stopCh. When the ring is full the loop backs off
// briefly; the backend drains it at the hardware rate.
func (chip *VoiceChip) renderLoop() {
	defer close(chip.done)
	for {
		select {
		case <-chip.stopCh:
			return
		default:
		}

		chip.drainEvents()
		for i := 0; i < RENDER_BLOCK_SAMPLES; i++ {
			s := chip.GenerateSample()
			for !chip.writeSampleToRing(s) {
				select {
				case <-chip.stopCh:
					return
				default:
				}
				time.Sleep(RING_FULL_BACKOFF)
			}
		}
	}
}

// Start launches the render loop and opens the audio backend.
// Idempotent.
func (chip *VoiceChip) Start() {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()

	if chip.running {
		return
	}
	chip.stopCh = make(chan struct{})
	chip.done = make(chan struct{})
	chip.running = true
	go chip.renderLoop()
	if chip.output != nil {
		chip.output.Start()
	}
	slog.Info("voice chip started", "rate", chip.SampleRate())
}

// Stop halts the render loop and the backend. Idempotent.
func (chip *VoiceChip) Stop() {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()

	if !chip.running {
		return
	}
	close(chip.stopCh)
	<-chip.done
	if chip.output != nil {
		chip.output.Stop()
	}
	chip.running = false
	slog.Info("voice chip stopped")
}

// Close stops playback and releases the audio device.
func (chip *VoiceChip) Close() {
	chip.Stop()
	if chip.output != nil {
		chip.output.Close()
	}
}
