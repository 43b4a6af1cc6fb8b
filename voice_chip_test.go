// voice_chip_test.go - Tests for the render host

package main

import (
	"log/slog"
	"math"
	"os"
	"testing"
	"time"
)

// Tests hammer paths that log dropped events and lifecycle changes;
// keep that off the test output.
func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.DiscardHandler))
	os.Exit(m.Run())
}

func newTestVoiceChip(t *testing.T) *VoiceChip {
	t.Helper()
	chip, err := NewVoiceChipAtRate(AUDIO_BACKEND_NONE, SAMPLE_RATE)
	if err != nil {
		t.Fatalf("NewVoiceChipAtRate() error = %v", err)
	}
	return chip
}

// setInstantFullLevel zeroes attack and decay and pins sustain to 1 so
// note-ons are audible from the first sample, and mutes both detuned
// oscillators so the output is the bare base sawtooth.
func setInstantFullLevel(chip *VoiceChip) {
	chip.SetParam(PARAM_ATTACK, 0.0)
	chip.SetParam(PARAM_DECAY, 0.0)
	chip.SetParam(PARAM_SUSTAIN, 1.0)
	chip.SetParam(PARAM_OSC1_LEVEL, 0.0)
	chip.SetParam(PARAM_OSC2_LEVEL, 0.0)
}

func TestVoiceChipSilentWithoutNotes(t *testing.T) {
	chip := newTestVoiceChip(t)
	block := make([]float32, RENDER_BLOCK_SAMPLES)
	chip.RenderBlock(block)
	for i, s := range block {
		if s != 0.0 {
			t.Fatalf("sample %d = %v before any note, want 0", i, s)
		}
	}
}

func TestVoiceChipEventsApplyBeforeBlock(t *testing.T) {
	chip := newTestVoiceChip(t)
	setInstantFullLevel(chip)
	chip.NoteOn(69)

	block := make([]float32, RENDER_BLOCK_SAMPLES)
	chip.RenderBlock(block)

	// The note was queued before the block, so it sounds from sample
	// zero: the base sawtooth starts its cycle at -0.5.
	if got := block[0]; got != -0.5 {
		t.Errorf("block[0] = %v, want -0.5 (note applied at block head)", got)
	}

	// And the block follows the analytic waveform throughout.
	freq := MidiNote(69).Frequency()
	step := 1.0 / float64(SAMPLE_RATE)
	for i := range block {
		want := float32(sawtooth(float64(i) * step * freq))
		if math.Abs(float64(block[i]-want)) > 1e-6 {
			t.Fatalf("block[%d] = %v, want %v", i, block[i], want)
		}
	}
}

func TestVoiceChipTimeAdvancesWhileSilent(t *testing.T) {
	chip := newTestVoiceChip(t)
	setInstantFullLevel(chip)

	// Render silence first: the clock must keep moving with no note.
	silent := make([]float32, 3*RENDER_BLOCK_SAMPLES)
	chip.RenderBlock(silent)

	step := 1.0 / float64(SAMPLE_RATE)
	wantTime := float64(len(silent)) * step
	if math.Abs(chip.time-wantTime) > 1e-9 {
		t.Fatalf("time after silent blocks = %v, want %v", chip.time, wantTime)
	}

	// A note started now begins at the advanced time, so its first
	// sample is mid-cycle rather than the cycle start.
	chip.NoteOn(69)
	block := make([]float32, 1)
	chip.RenderBlock(block)
	want := float32(sawtooth(wantTime * MidiNote(69).Frequency()))
	if math.Abs(float64(block[0]-want)) > 1e-6 {
		t.Errorf("first sample after silence = %v, want %v", block[0], want)
	}
}

func TestVoiceChipSetSampleRateOnlyChangesStep(t *testing.T) {
	chip := newTestVoiceChip(t)
	block := make([]float32, 100)
	chip.RenderBlock(block)
	before := chip.time

	chip.SetSampleRate(22050)
	if chip.time != before {
		t.Fatalf("SetSampleRate moved the clock from %v to %v", before, chip.time)
	}
	if got := chip.SampleRate(); got != 22050 {
		t.Fatalf("SampleRate() = %d, want 22050", got)
	}

	chip.RenderBlock(block[:1])
	wantStep := 1.0 / 22050.0
	if got := chip.time - before; math.Abs(got-wantStep) > 1e-12 {
		t.Errorf("clock advanced %v per sample, want %v", got, wantStep)
	}

	// Nonsense rates are ignored.
	chip.SetSampleRate(0)
	if got := chip.SampleRate(); got != 22050 {
		t.Errorf("SampleRate() after SetSampleRate(0) = %d, want 22050", got)
	}
	chip.SetSampleRate(-8000)
	if got := chip.SampleRate(); got != 22050 {
		t.Errorf("SampleRate() after SetSampleRate(-8000) = %d, want 22050", got)
	}
}

func TestVoiceChipLastNoteWins(t *testing.T) {
	chip := newTestVoiceChip(t)
	setInstantFullLevel(chip)

	// Two note-ons queued before the same block: the later one is the
	// note that sounds.
	chip.NoteOn(60)
	chip.NoteOn(72)
	block := make([]float32, 4)
	chip.RenderBlock(block)

	if note, active := chip.voice.ActiveNote(); !active || note != 72 {
		t.Fatalf("ActiveNote() = %v, %v, want 72, true", note, active)
	}

	// A note-off for the replaced note must not cut the new one.
	chip.NoteOff(60)
	chip.RenderBlock(block)
	if chip.voice.env.state == ENV_RELEASE || chip.voice.env.state == ENV_SILENT {
		t.Errorf("stale note-off released the voice, state = %d", chip.voice.env.state)
	}
}

func TestVoiceChipReleaseAllEvent(t *testing.T) {
	chip := newTestVoiceChip(t)
	setInstantFullLevel(chip)
	chip.NoteOn(60)
	block := make([]float32, 4)
	chip.RenderBlock(block)

	chip.ReleaseAll()
	chip.RenderBlock(block)
	if got := chip.voice.env.state; got != ENV_RELEASE && got != ENV_SILENT {
		t.Errorf("ReleaseAll left envelope state = %d, want releasing or silent", got)
	}
}

func TestVoiceChipPostEventNeverBlocks(t *testing.T) {
	chip := newTestVoiceChip(t)

	// Overfill the queue from a single goroutine: the overflow must be
	// dropped, not deadlock the poster.
	for i := 0; i < EVENT_QUEUE_SIZE+8; i++ {
		chip.PostEvent(NoteEvent{Kind: EVENT_NOTE_ON, Note: 60})
	}

	// The surviving events still apply cleanly.
	block := make([]float32, 1)
	chip.RenderBlock(block)
	if _, active := chip.voice.ActiveNote(); !active {
		t.Error("queued note-ons were lost entirely")
	}
}

func TestRingBufferOrderAndBounds(t *testing.T) {
	chip := newTestVoiceChip(t)

	// Empty ring reads as silence.
	if got := chip.ReadSampleFromRing(); got != 0.0 {
		t.Fatalf("empty ring read = %v, want 0", got)
	}
	if got := chip.BufferedSamples(); got != 0 {
		t.Fatalf("BufferedSamples() = %d, want 0", got)
	}

	// Writes come back in order.
	for i := 0; i < 100; i++ {
		if !chip.writeSampleToRing(float32(i)) {
			t.Fatalf("write %d rejected with ring near empty", i)
		}
	}
	if got := chip.BufferedSamples(); got != 100 {
		t.Fatalf("BufferedSamples() = %d, want 100", got)
	}
	for i := 0; i < 100; i++ {
		if got := chip.ReadSampleFromRing(); got != float32(i) {
			t.Fatalf("read %d = %v, want %v", i, got, float32(i))
		}
	}

	// A full ring rejects the write instead of overwriting unread
	// samples.
	for i := 0; i < RING_BUFFER_SIZE; i++ {
		if !chip.writeSampleToRing(1.0) {
			t.Fatalf("write %d rejected before ring filled", i)
		}
	}
	if chip.writeSampleToRing(2.0) {
		t.Fatal("write accepted on a full ring")
	}

	// Draining one slot makes room for exactly one more.
	chip.ReadSampleFromRing()
	if !chip.writeSampleToRing(2.0) {
		t.Fatal("write rejected after a slot was drained")
	}
}

func TestRingBufferWrapsPastCapacity(t *testing.T) {
	chip := newTestVoiceChip(t)

	// Push several times the capacity through the ring in small
	// batches; indices are monotonic and masked, so ordering must
	// survive the wraps.
	next := float32(0)
	expect := float32(0)
	for round := 0; round < 5; round++ {
		for i := 0; i < RING_BUFFER_SIZE/2; i++ {
			if !chip.writeSampleToRing(next) {
				t.Fatalf("write rejected with half-full ring")
			}
			next++
		}
		for i := 0; i < RING_BUFFER_SIZE/2; i++ {
			if got := chip.ReadSampleFromRing(); got != expect {
				t.Fatalf("read = %v, want %v", got, expect)
			}
			expect++
		}
	}
}

func TestVoiceChipStartStopIdempotent(t *testing.T) {
	chip := newTestVoiceChip(t)

	chip.Start()
	chip.Start() // second start is a no-op
	if !chip.running {
		t.Fatal("chip not running after Start")
	}

	chip.Stop()
	chip.Stop() // second stop is a no-op
	if chip.running {
		t.Fatal("chip still running after Stop")
	}

	// Restart works after a stop.
	chip.Start()
	chip.Close()
	if chip.running {
		t.Fatal("chip still running after Close")
	}
}

func TestVoiceChipRenderLoopFillsRing(t *testing.T) {
	chip := newTestVoiceChip(t)
	chip.Start()
	defer chip.Close()

	// The loop tops the ring up without any backend draining it.
	deadline := 0
	for chip.BufferedSamples() < RENDER_BLOCK_SAMPLES && deadline < 1000 {
		deadline++
		time.Sleep(time.Millisecond)
	}
	if got := chip.BufferedSamples(); got < RENDER_BLOCK_SAMPLES {
		t.Fatalf("BufferedSamples() = %d after spin, want >= %d", got, RENDER_BLOCK_SAMPLES)
	}
}
