//go:build !headless

// audio_backend_alsa.go - ALSA audio output implementation

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

/*
#cgo LDFLAGS: -lasound
#cgo CFLAGS: -Ofast -march=native -mtune=native -flto
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* openPCM(const char* device, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, SND_PCM_STREAM_PLAYBACK, 0);
    return handle;
}

static int setupPCM(snd_pcm_t* handle, unsigned int rate, unsigned int channels) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_FLOAT);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, channels);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate(handle, params, rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static int writePCM(snd_pcm_t* handle, float* buffer, int frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static void closePCM(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"
)

// ALSA_BLOCK_FRAMES is the feeder's write size: small enough to keep
// latency low, large enough that snd_pcm_writei is not called per
// sample.
const ALSA_BLOCK_FRAMES = 512

type ALSAPlayer struct {
	handle  *C.snd_pcm_t
	chip    *VoiceChip
	samples []float32 // Interleaved frame buffer for the feeder
	started bool
	mutex   sync.Mutex
	stopCh  chan struct{}
	done    chan struct{}
}

func NewALSAPlayer(sampleRate int) (*ALSAPlayer, error) {
	var err C.int
	handle := C.openPCM(C.CString("default"), &err)
	if err < 0 {
		return nil, fmt.Errorf("failed to open PCM device: %s", C.GoString(C.snd_strerror(err)))
	}

	if err = C.setupPCM(handle, C.uint(sampleRate), C.uint(OUTPUT_CHANNELS)); err < 0 {
		C.closePCM(handle)
		return nil, fmt.Errorf("failed to setup PCM: %s", C.GoString(C.snd_strerror(err)))
	}

	return &ALSAPlayer{
		handle:  handle,
		samples: make([]float32, ALSA_BLOCK_FRAMES*OUTPUT_CHANNELS),
	}, nil
}

func (ap *ALSAPlayer) SetupPlayer(chip *VoiceChip) {
	ap.mutex.Lock()
	defer ap.mutex.Unlock()
	ap.chip = chip
}

// feedLoop pulls from the chip's ring and writes interleaved frames
// to the device, duplicating each sample across all channels. An
// underrun (EPIPE) is recovered by re-preparing the device.
func (ap *ALSAPlayer) feedLoop() {
	defer close(ap.done)
	for {
		select {
		case <-ap.stopCh:
			return
		default:
		}

		for i := 0; i < ALSA_BLOCK_FRAMES; i++ {
			s := ap.chip.ReadSampleFromRing()
			for c := 0; c < OUTPUT_CHANNELS; c++ {
				ap.samples[i*OUTPUT_CHANNELS+c] = s
			}
		}

		frames := C.writePCM(ap.handle, (*C.float)(unsafe.Pointer(&ap.samples[0])), C.int(ALSA_BLOCK_FRAMES))
		if frames == -C.EPIPE {
			C.snd_pcm_prepare(ap.handle)
			continue
		}
		if frames < 0 {
			return
		}
	}
}

func (ap *ALSAPlayer) Start() {
	ap.mutex.Lock()
	defer ap.mutex.Unlock()

	if ap.started || ap.chip == nil || ap.handle == nil {
		return
	}
	ap.stopCh = make(chan struct{})
	ap.done = make(chan struct{})
	ap.started = true
	go ap.feedLoop()
}

func (ap *ALSAPlayer) Stop() {
	ap.mutex.Lock()
	defer ap.mutex.Unlock()

	if !ap.started {
		return
	}
	close(ap.stopCh)
	<-ap.done
	ap.started = false
}

func (ap *ALSAPlayer) Close() {
	ap.Stop()
	ap.mutex.Lock()
	defer ap.mutex.Unlock()

	if ap.handle != nil {
		C.closePCM(ap.handle)
		ap.handle = nil
	}
}

func (ap *ALSAPlayer) IsStarted() bool {
	ap.mutex.Lock()
	defer ap.mutex.Unlock()
	return ap.started
}
