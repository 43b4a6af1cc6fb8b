// script_host.go - Lua-scripted drone performances

package main

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// ScriptHost runs a Lua performance script against a chip. Scripts
// drive the voice with four globals:
//
//	note_on(note)          -- MIDI note number 0..127
//	note_off(note)
//	set_param(index, knob) -- knob position 0..1, see PARAM_* globals
//	wait(seconds)          -- let the drone sound
//
// wait delegates to the advance callback, so the same script plays
// live (sleeping wall-clock time) or renders offline (pulling
// samples).
type ScriptHost struct {
	chip    *VoiceChip
	advance func(seconds float64)
}

func NewScriptHost(chip *VoiceChip, advance func(seconds float64)) *ScriptHost {
	return &ScriptHost{chip: chip, advance: advance}
}

// NewLiveScriptHost plays a script in real time against a started
// chip.
func NewLiveScriptHost(chip *VoiceChip) *ScriptHost {
	return NewScriptHost(chip, func(seconds float64) {
		time.Sleep(time.Duration(seconds * float64(time.Second)))
	})
}

// Lua global names for the knob indices, same order as the store.
var luaParamGlobals = [NUM_PARAMS]string{
	"PARAM_OSC1_TUNE",
	"PARAM_OSC1_LEVEL",
	"PARAM_OSC2_TUNE",
	"PARAM_OSC2_LEVEL",
	"PARAM_ATTACK",
	"PARAM_DECAY",
	"PARAM_SUSTAIN",
	"PARAM_RELEASE",
}

// RunFile executes the script at path.
func (sh *ScriptHost) RunFile(path string) error {
	slog.Info("running script", "path", path)
	L := lua.NewState()
	defer L.Close()
	sh.register(L)
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// RunString executes an inline script.
func (sh *ScriptHost) RunString(src string) error {
	L := lua.NewState()
	defer L.Close()
	sh.register(L)
	if err := L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

func (sh *ScriptHost) register(L *lua.LState) {
	L.SetGlobal("note_on", L.NewFunction(func(L *lua.LState) int {
		sh.chip.NoteOn(clampNote(L.CheckInt(1)))
		return 0
	}))
	L.SetGlobal("note_off", L.NewFunction(func(L *lua.LState) int {
		sh.chip.NoteOff(clampNote(L.CheckInt(1)))
		return 0
	}))
	L.SetGlobal("set_param", L.NewFunction(func(L *lua.LState) int {
		sh.chip.SetParam(L.CheckInt(1), float64(L.CheckNumber(2)))
		return 0
	}))
	L.SetGlobal("wait", L.NewFunction(func(L *lua.LState) int {
		seconds := float64(L.CheckNumber(1))
		if seconds > 0 && !math.IsNaN(seconds) && !math.IsInf(seconds, 0) {
			sh.advance(seconds)
		}
		return 0
	}))

	for i, name := range luaParamGlobals {
		L.SetGlobal(name, lua.LNumber(i))
	}
}

func clampNote(n int) MidiNote {
	if n < 0 {
		n = 0
	}
	if n > 127 {
		n = 127
	}
	return MidiNote(n)
}
