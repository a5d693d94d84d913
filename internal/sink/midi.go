package sink

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

const DefaultPort = "hw:1,0"

var (
	ErrNoOutputs    = errors.New("sink: no midi outputs available")
	ErrPortNotFound = errors.New("sink: midi output not found")
	ErrClosed       = errors.New("sink: closed")
)

type Config struct {
	Port string
}

func DefaultConfig() Config {
	return Config{Port: DefaultPort}
}

// MIDI writes raw payloads to a single MIDI output port. Writes are
// serialized by the dispatch worker; Close runs only after the workers
// have exited.
type MIDI struct {
	drv  *rtmididrv.Driver
	out  drivers.Out
	name string
}

// Open initializes the MIDI driver, resolves the configured output and
// opens it. The selector is either a port index or a case-insensitive
// fragment of the port name.
func Open(cfg Config) (*MIDI, error) {
	selector := cfg.Port
	if selector == "" {
		selector = DefaultPort
	}

	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("sink: init midi driver: %w", err)
	}
	outs, err := drv.Outs()
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("sink: list midi outputs: %w", err)
	}
	out, err := resolveOut(outs, selector)
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	if err := out.Open(); err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("sink: open %q: %w", out.String(), err)
	}
	return &MIDI{drv: drv, out: out, name: out.String()}, nil
}

// resolveOut picks an output port. A selector that parses as an integer
// is an index into the port list; anything else matches by name
// fragment, ignoring case.
func resolveOut(outs []drivers.Out, selector string) (drivers.Out, error) {
	if len(outs) == 0 {
		return nil, ErrNoOutputs
	}
	selector = strings.TrimSpace(selector)
	if idx, err := strconv.Atoi(selector); err == nil {
		if idx < 0 || idx >= len(outs) {
			return nil, fmt.Errorf("%w: index %d out of range [0,%d)", ErrPortNotFound, idx, len(outs))
		}
		return outs[idx], nil
	}
	for _, out := range outs {
		if containsCI(out.String(), selector) {
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPortNotFound, selector)
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Name reports the resolved output port name.
func (m *MIDI) Name() string {
	return m.name
}

// Write sends one payload to the output port.
func (m *MIDI) Write(payload []byte) error {
	if m.out == nil {
		return ErrClosed
	}
	if err := m.out.Send(payload); err != nil {
		return fmt.Errorf("sink: send to %q: %w", m.name, err)
	}
	return nil
}

// Close releases the output port and then the driver. Safe to call
// more than once.
func (m *MIDI) Close() error {
	var closeErr error
	if m.out != nil {
		if err := m.out.Close(); err != nil {
			closeErr = fmt.Errorf("sink: close %q: %w", m.name, err)
		}
		m.out = nil
	}
	if m.drv != nil {
		if err := m.drv.Close(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("sink: close midi driver: %w", err)
		}
		m.drv = nil
	}
	return closeErr
}

// ListOutputs enumerates the MIDI output ports visible to the host.
func ListOutputs() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("sink: init midi driver: %w", err)
	}
	defer func() { _ = drv.Close() }()

	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("sink: list midi outputs: %w", err)
	}
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names, nil
}
