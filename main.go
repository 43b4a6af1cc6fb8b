// main.go - Main entry point for the Drone Engine synthesizer

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
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147m██████  ██████   ██████  ███    ██ ███████     ███████ ███    ██  ██████  ██ ███    ██ ███████\033[0m\n\033[38;2;255;60;147m██   ██ ██   ██ ██    ██ ████   ██ ██          ██      ████   ██ ██       ██ ████   ██ ██\033[0m\n\033[38;2;255;100;147m██   ██ ██████  ██    ██ ██ ██  ██ █████       █████   ██ ██  ██ ██   ███ ██ ██ ██  ██ █████\033[0m\n\033[38;2;255;140;147m██   ██ ██   ██ ██    ██ ██  ██ ██ ██          ██      ██  ██ ██ ██    ██ ██ ██  ██ ██ ██\033[0m\n\033[38;2;255;180;147m██████  ██   ██  ██████  ██   ████ ███████     ███████ ██   ████  ██████  ██ ██   ████ ███████\033[0m")
	fmt.Println("\nA monophonic drone synthesizer for MIDI keyboards, the terminal and offline rendering.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/DroneEngine")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
}

func initLogger(debug bool) {
	level := slog.LevelInfo
	opts := &slog.HandlerOptions{Level: level}
	if debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

func main() {
	boilerPlate()

	var (
		midiPort    string
		noKeys      bool
		scriptPath  string
		renderPath  string
		seconds     float64
		backendName string
		rate        int
		startNote   int
		listMidi    bool
		debug       bool
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&midiPort, "midi", "", "MIDI input port name substring (first available if empty, 'none' to disable)")
	flagSet.BoolVar(&noKeys, "no-keys", false, "Disable the terminal keyboard")
	flagSet.StringVar(&scriptPath, "script", "", "Lua performance script to run")
	flagSet.StringVar(&renderPath, "render", "", "Render to this WAV file instead of playing live (requires -script)")
	flagSet.Float64Var(&seconds, "seconds", 60.0, "Maximum render length in seconds")
	flagSet.StringVar(&backendName, "backend", "oto", "Audio backend: oto, alsa or none")
	flagSet.IntVar(&rate, "rate", SAMPLE_RATE, "Sample rate in Hz")
	flagSet.IntVar(&startNote, "note", -1, "Start droning this MIDI note immediately (0-127)")
	flagSet.BoolVar(&listMidi, "list-midi", false, "List MIDI input ports and exit")
	flagSet.BoolVar(&debug, "debug", false, "Enable debug logging")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./drone_engine [-midi name] [-script file.lua] [-render out.wav] [options]")
		flagSet.PrintDefaults()
		fmt.Println("\nKeys: a w s e d f t g y h u j k play notes, SPACE releases,")
		fmt.Println("      z/x octave down/up, [ ] select knob, - = adjust knob, q quits")
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	initLogger(debug)

	if listMidi {
		names, err := ListMidiInputs()
		if err != nil {
			fmt.Printf("Failed to list MIDI inputs: %v\n", err)
			os.Exit(1)
		}
		if len(names) == 0 {
			fmt.Println("No MIDI inputs found.")
			return
		}
		fmt.Println("MIDI inputs:")
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
		return
	}

	if rate <= 0 {
		fmt.Printf("Invalid sample rate: %d\n", rate)
		os.Exit(1)
	}

	if renderPath != "" {
		if scriptPath == "" {
			fmt.Println("-render requires a -script to perform")
			os.Exit(1)
		}
		chip, err := NewVoiceChipAtRate(AUDIO_BACKEND_NONE, rate)
		if err != nil {
			fmt.Printf("Failed to initialize voice: %v\n", err)
			os.Exit(1)
		}
		if err := RenderScriptToWav(renderPath, scriptPath, chip, seconds); err != nil {
			fmt.Printf("Render failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var backend int
	switch backendName {
	case "oto":
		backend = AUDIO_BACKEND_OTO
	case "alsa":
		backend = AUDIO_BACKEND_ALSA
	case "none":
		backend = AUDIO_BACKEND_NONE
	default:
		fmt.Printf("Unknown audio backend: %s\n", backendName)
		os.Exit(1)
	}

	chip, err := NewVoiceChipAtRate(backend, rate)
	if err != nil {
		fmt.Printf("Failed to initialize audio: %v\n", err)
		os.Exit(1)
	}
	chip.Start()
	defer chip.Close()

	if midiPort != "none" {
		midiIn, err := NewMidiInput(chip, midiPort)
		if err != nil {
			slog.Warn("MIDI unavailable, continuing without it", "err", err)
		} else {
			midiIn.Start()
			defer midiIn.Stop()
		}
	}

	if startNote >= 0 {
		if startNote > 127 {
			fmt.Printf("Invalid start note: %d\n", startNote)
			os.Exit(1)
		}
		chip.NoteOn(MidiNote(startNote))
	}

	if scriptPath != "" {
		host := NewLiveScriptHost(chip)
		go func() {
			if err := host.RunFile(scriptPath); err != nil {
				slog.Error("script failed", "err", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if !noKeys && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Println("\nKeys: a w s e d f t g y h u j k play notes, SPACE releases,")
		fmt.Println("      z/x octave down/up, [ ] select knob, - = adjust knob, q quits")
		keys := NewTerminalHost(chip)
		keys.Start()
		select {
		case <-keys.QuitRequested():
		case <-sigCh:
		}
		keys.Stop()
		return
	}

	<-sigCh
	fmt.Println()
}
