package transport

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/danmuck/midibridge/internal/frame"
)

const (
	DefaultDevice       = "/dev/ttymxc1"
	DefaultBaudRate     = 230400
	DefaultPollInterval = 5 * time.Millisecond
)

// readChunk bounds a single device read. Frames longer than this are
// surfaced as capacity-sized chunks, the same way a line read behaves
// when the line exceeds the caller's buffer.
const readChunk = 256

var ErrClosed = errors.New("transport: port closed")

type Config struct {
	Device       string
	BaudRate     int
	PollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Device:       DefaultDevice,
		BaudRate:     DefaultBaudRate,
		PollInterval: DefaultPollInterval,
	}
}

func (c Config) withDefaults() Config {
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.BaudRate <= 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// serialPort is the slice of serial.Port the bridge relies on.
type serialPort interface {
	Read(p []byte) (int, error)
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Serial reads terminator-delimited frames from a serial device.
// It is not safe for concurrent use; the ingest worker is its only
// caller until teardown.
type Serial struct {
	cfg     Config
	port    serialPort
	pending []byte
	scratch []byte
}

// Open opens the configured device in 8N1 mode and arms the read
// timeout that drives the readiness poll.
func Open(cfg Config) (*Serial, error) {
	cfg = cfg.withDefaults()

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", cfg.Device, err)
	}
	if err := port.SetReadTimeout(cfg.PollInterval); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("transport: set read timeout on %s: %w", cfg.Device, err)
	}
	return newSerial(cfg, port), nil
}

func newSerial(cfg Config, port serialPort) *Serial {
	return &Serial{
		cfg:     cfg,
		port:    port,
		scratch: make([]byte, readChunk),
	}
}

// Device reports the device path this transport was opened on.
func (s *Serial) Device() string {
	return s.cfg.Device
}

// ReadFrame copies the next complete frame, terminator included, into p.
// It returns (0, nil) when no complete frame arrived within one poll
// interval, which is how timeouts surface to the caller. Errors are
// fatal for the transport.
//
// At most one device read happens per call, so a stopped caller is
// never stalled longer than the poll interval.
func (s *Serial) ReadFrame(p []byte) (int, error) {
	if s.port == nil {
		return 0, ErrClosed
	}
	if n, ok := s.takeFrame(p); ok {
		return n, nil
	}

	n, err := s.port.Read(s.scratch)
	if err != nil {
		return 0, fmt.Errorf("transport: read %s: %w", s.cfg.Device, err)
	}
	if n > 0 {
		s.pending = append(s.pending, s.scratch[:n]...)
	}
	if n, ok := s.takeFrame(p); ok {
		return n, nil
	}
	return 0, nil
}

// takeFrame extracts the next frame from the pending bytes if one is
// available. A run of bytes with no terminator is emitted as a chunk
// once it fills p, so a terminator-free stream cannot grow the pending
// buffer without bound.
func (s *Serial) takeFrame(p []byte) (int, bool) {
	if len(s.pending) == 0 {
		return 0, false
	}
	if idx := bytes.IndexByte(s.pending, frame.Terminator); idx >= 0 && idx < len(p) {
		n := copy(p, s.pending[:idx+1])
		s.shift(n)
		return n, true
	}
	if len(s.pending) >= len(p) {
		n := copy(p, s.pending[:len(p)])
		s.shift(n)
		return n, true
	}
	return 0, false
}

func (s *Serial) shift(n int) {
	rest := copy(s.pending, s.pending[n:])
	s.pending = s.pending[:rest]
}

// Flush discards everything queued on the input side, both the bytes
// already pulled into the pending buffer and whatever the driver still
// holds. Used after a dropped frame so stale bytes cannot smear into
// the next one.
func (s *Serial) Flush() error {
	if s.port == nil {
		return ErrClosed
	}
	s.pending = s.pending[:0]
	if err := s.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("transport: flush %s: %w", s.cfg.Device, err)
	}
	return nil
}

// Close releases the device. Safe to call more than once.
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	if err != nil {
		return fmt.Errorf("transport: close %s: %w", s.cfg.Device, err)
	}
	return nil
}

// ListPorts enumerates serial devices visible to the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: list ports: %w", err)
	}
	return ports, nil
}
