//go:build !headless

// audio_backend_oto.go - OTO v3 audio output implementation

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
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

type OtoPlayer struct {
	ctx       *oto.Context
	player    *oto.Player
	chip      atomic.Pointer[VoiceChip] // Atomic for lock-free Read()
	sampleBuf []float32                 // Pre-allocated interleaved frame buffer
	started   bool
	mutex     sync.Mutex // Only for setup/control operations
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: OUTPUT_CHANNELS,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoPlayer{
		ctx:     ctx,
		started: false,
	}, nil
}

func (op *OtoPlayer) SetupPlayer(chip *VoiceChip) {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.chip.Store(chip)
	op.player = op.ctx.NewPlayer(op)
	// Pre-allocate for typical oto pull sizes (4096 bytes = 1024 float32s)
	op.sampleBuf = make([]float32, 4096)
}

// Read pulls frames from the chip's ring. One chip sample is fanned
// out across every channel of a frame: mono broadcast, no stereo
// differentiation.
func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	// Load chip pointer atomically - no lock needed for the hot path
	chip := op.chip.Load()
	numFrames := len(p) / (4 * OUTPUT_CHANNELS)
	if chip == nil || numFrames == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numSamples := numFrames * OUTPUT_CHANNELS
	if len(op.sampleBuf) < numSamples {
		op.sampleBuf = make([]float32, numSamples)
	}
	samples := op.sampleBuf[:numSamples]

	for i := 0; i < numFrames; i++ {
		s := chip.ReadSampleFromRing()
		for c := 0; c < OUTPUT_CHANNELS; c++ {
			samples[i*OUTPUT_CHANNELS+c] = s
		}
	}

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:numSamples*4])
	return numSamples * 4, nil
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.started && op.player != nil {
		op.player.Close()
		op.started = false
	}
}

func (op *OtoPlayer) Close() {
	op.Stop()
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player != nil {
		op.player.Close()
		op.player = nil
	}
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
