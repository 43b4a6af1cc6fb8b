// wav_render.go - offline rendering of scripted performances to WAV

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
	"fmt"
	"log/slog"
	"os"

	"github.com/youpy/go-wav"
)

const (
	WAV_BITS_PER_SAMPLE = 16
	WAV_PEAK            = 32767 // Full scale for 16-bit PCM
)

// WavRenderer pulls samples from a chip and accumulates 16-bit PCM
// frames, the same chip sample duplicated across every channel. The
// voice mix is deliberately unclamped, so conversion clips at the
// file boundary; the chip itself never does.
type WavRenderer struct {
	chip    *VoiceChip
	frames  []wav.Sample
	block   []float32
	clipped int
}

func NewWavRenderer(chip *VoiceChip) *WavRenderer {
	return &WavRenderer{
		chip:  chip,
		block: make([]float32, RENDER_BLOCK_SAMPLES),
	}
}

// Advance renders the next stretch of the performance into memory.
// Shaped as the wait callback for a ScriptHost.
func (wr *WavRenderer) Advance(seconds float64) {
	remaining := int(seconds * float64(wr.chip.SampleRate()))
	for remaining > 0 {
		n := remaining
		if n > len(wr.block) {
			n = len(wr.block)
		}
		block := wr.block[:n]
		wr.chip.RenderBlock(block)
		for _, s := range block {
			wr.frames = append(wr.frames, wr.frame(s))
		}
		remaining -= n
	}
}

func (wr *WavRenderer) frame(s float32) wav.Sample {
	v := int(s * WAV_PEAK)
	if v > WAV_PEAK {
		v = WAV_PEAK
		wr.clipped++
	}
	if v < -WAV_PEAK {
		v = -WAV_PEAK
		wr.clipped++
	}
	return wav.Sample{Values: [2]int{v, v}}
}

// FrameCount reports how many frames have been rendered so far.
func (wr *WavRenderer) FrameCount() int {
	return len(wr.frames)
}

// WriteFile writes the accumulated frames to path.
func (wr *WavRenderer) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := wav.NewWriter(f, uint32(len(wr.frames)), OUTPUT_CHANNELS, uint32(wr.chip.SampleRate()), WAV_BITS_PER_SAMPLE)
	if err := w.WriteSamples(wr.frames); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if wr.clipped > 0 {
		slog.Warn("mix exceeded full scale, clipped at the file boundary", "samples", wr.clipped)
	}
	return nil
}

// RenderScriptToWav runs a Lua performance offline and writes the
// result. The chip must not be started: rendering pulls samples
// directly, faster than real time.
func RenderScriptToWav(path string, scriptPath string, chip *VoiceChip, maxSeconds float64) error {
	renderer := NewWavRenderer(chip)
	host := NewScriptHost(chip, func(seconds float64) {
		budget := maxSeconds - float64(renderer.FrameCount())/float64(chip.SampleRate())
		if seconds > budget {
			seconds = budget
		}
		renderer.Advance(seconds)
	})

	if err := host.RunFile(scriptPath); err != nil {
		return err
	}
	if renderer.FrameCount() == 0 {
		return fmt.Errorf("script %s rendered no audio (missing wait calls?)", scriptPath)
	}
	if err := renderer.WriteFile(path); err != nil {
		return err
	}
	slog.Info("rendered", "path", path,
		"seconds", float64(renderer.FrameCount())/float64(chip.SampleRate()))
	return nil
}
