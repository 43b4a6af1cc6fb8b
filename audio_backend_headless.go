//go:build headless

// audio_backend_headless.go - no-op audio backends for headless builds

package main

type OtoPlayer struct {
	started bool
	chip    *VoiceChip
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	return &OtoPlayer{}, nil
}

func (op *OtoPlayer) SetupPlayer(chip *VoiceChip) {
	op.chip = chip
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	return len(p), nil
}

func (op *OtoPlayer) Start() {
	op.started = true
}

func (op *OtoPlayer) Stop() {
	op.started = false
}

func (op *OtoPlayer) Close() {
	op.started = false
}

func (op *OtoPlayer) IsStarted() bool {
	return op.started
}

type ALSAPlayer struct {
	started bool
	chip    *VoiceChip
}

func NewALSAPlayer(sampleRate int) (*ALSAPlayer, error) {
	return &ALSAPlayer{}, nil
}

func (ap *ALSAPlayer) SetupPlayer(chip *VoiceChip) {
	ap.chip = chip
}

func (ap *ALSAPlayer) Start() {
	ap.started = true
}

func (ap *ALSAPlayer) Stop() {
	ap.started = false
}

func (ap *ALSAPlayer) Close() {
	ap.started = false
}

func (ap *ALSAPlayer) IsStarted() bool {
	return ap.started
}
