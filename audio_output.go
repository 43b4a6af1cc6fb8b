// audio_output.go - audio backend interface and factory

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

import "fmt"

// Audio backend selectors.
const (
	AUDIO_BACKEND_OTO = iota
	AUDIO_BACKEND_ALSA
	AUDIO_BACKEND_NONE
)

// OUTPUT_CHANNELS is the frame width every backend emits. The voice
// is monophonic: each channel of a frame carries the same sample.
const OUTPUT_CHANNELS = 2

// AudioOutput is implemented by all audio backends.
type AudioOutput interface {
	// SetupPlayer attaches the chip whose samples the backend pulls.
	SetupPlayer(chip *VoiceChip)
	// Start begins playback.
	Start()
	// Stop halts playback.
	Stop()
	// Close releases the audio device.
	Close()
	// IsStarted returns true if currently playing.
	IsStarted() bool
}

// NewAudioOutput builds the requested backend and attaches the chip.
func NewAudioOutput(backend int, sampleRate int, chip *VoiceChip) (AudioOutput, error) {
	switch backend {
	case AUDIO_BACKEND_OTO:
		player, err := NewOtoPlayer(sampleRate)
		if err != nil {
			return nil, err
		}
		player.SetupPlayer(chip)
		return player, nil
	case AUDIO_BACKEND_ALSA:
		player, err := NewALSAPlayer(sampleRate)
		if err != nil {
			return nil, err
		}
		player.SetupPlayer(chip)
		return player, nil
	case AUDIO_BACKEND_NONE:
		return &NullAudioOutput{}, nil
	default:
		return nil, fmt.Errorf("unknown audio backend: %d", backend)
	}
}

// NullAudioOutput plays nowhere. Offline rendering and tests pull
// samples from the chip directly, so the device is a stub.
type NullAudioOutput struct {
	started bool
}

func (out *NullAudioOutput) SetupPlayer(chip *VoiceChip) {}

func (out *NullAudioOutput) Start() {
	out.started = true
}

func (out *NullAudioOutput) Stop() {
	out.started = false
}

func (out *NullAudioOutput) Close() {
	out.started = false
}

func (out *NullAudioOutput) IsStarted() bool {
	return out.started
}
