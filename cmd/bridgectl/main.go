package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/midibridge/internal/bridge"
	"github.com/danmuck/midibridge/internal/observability"
)

func main() {
	var (
		midiPort    string
		serialPort  string
		configPath  string
		showVersion bool
	)
	flag.StringVar(&midiPort, "m", "", "select MIDI output by index or name (shorthand)")
	flag.StringVar(&midiPort, "midi-port", "", "select MIDI output by index or name (default: hw:1,0)")
	flag.StringVar(&serialPort, "s", "", "select serial device (shorthand)")
	flag.StringVar(&serialPort, "serial-port", "", "select serial device (default: /dev/ttymxc1)")
	flag.StringVar(&configPath, "c", "", "path to a bridge config file (shorthand)")
	flag.StringVar(&configPath, "config", "", "path to a bridge config file")
	flag.BoolVar(&showVersion, "V", false, "print current version (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "print current version")
	flag.Parse()

	if showVersion {
		fmt.Println("bridgectl version " + bridge.Version)
		return
	}

	observability.InitLogger("bridgectl")

	cfg, err := resolveConfig(configPath, serialPort, midiPort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bridgectl: %v\n", err)
		os.Exit(1)
	}

	svc := bridge.NewServiceWithConfig(cfg)
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "bridgectl: %v\n", err)
		os.Exit(1)
	}
}
