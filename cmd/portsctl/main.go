package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/midibridge/internal/sink"
	"github.com/danmuck/midibridge/internal/transport"
)

// portsctl prints the serial devices and MIDI outputs visible on this
// host, so bridge configs can name real endpoints.
func main() {
	serialOnly := flag.Bool("serial", false, "list serial devices only")
	midiOnly := flag.Bool("midi", false, "list MIDI outputs only")
	flag.Parse()

	both := *serialOnly == *midiOnly

	if both || *serialOnly {
		devices, err := transport.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "portsctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("serial devices:")
		if len(devices) == 0 {
			fmt.Println("  (none)")
		}
		for _, d := range devices {
			fmt.Printf("  %s\n", d)
		}
	}

	if both || *midiOnly {
		outputs, err := sink.ListOutputs()
		if err != nil {
			fmt.Fprintf(os.Stderr, "portsctl: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("midi outputs:")
		if len(outputs) == 0 {
			fmt.Println("  (none)")
		}
		for i, o := range outputs {
			fmt.Printf("  [%d] %s\n", i, o)
		}
	}
}
