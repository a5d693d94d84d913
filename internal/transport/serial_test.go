package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/danmuck/midibridge/internal/testutil/testlog"
)

type scriptedRead struct {
	data []byte
	err  error
}

type fakePort struct {
	script  []scriptedRead
	reads   int
	flushes int
	closed  bool
}

func (f *fakePort) Read(p []byte) (int, error) {
	f.reads++
	if len(f.script) == 0 {
		return 0, nil
	}
	next := f.script[0]
	f.script = f.script[1:]
	if next.err != nil {
		return 0, next.err
	}
	return copy(p, next.data), nil
}

func (f *fakePort) ResetInputBuffer() error {
	f.flushes++
	return nil
}

func (f *fakePort) SetReadTimeout(time.Duration) error { return nil }

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func newTestSerial(script ...scriptedRead) (*Serial, *fakePort) {
	port := &fakePort{script: script}
	return newSerial(DefaultConfig(), port), port
}

func TestReadFrameAssemblesSplitFrame(t *testing.T) {
	testlog.Start(t)

	s, _ := newTestSerial(
		scriptedRead{data: []byte{0x90, 0x3c}},
		scriptedRead{data: []byte{0x7f, 0xff}},
	)

	buf := make([]byte, 256)
	n, err := s.ReadFrame(buf)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no frame before terminator, got %d bytes", n)
	}

	n, err = s.ReadFrame(buf)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	want := []byte{0x90, 0x3c, 0x7f, 0xff}
	if n != len(want) {
		t.Fatalf("frame length = %d, want %d", n, len(want))
	}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("frame[%d] = %#x, want %#x", i, buf[i], want[i])
		}
	}
}

func TestReadFrameSplitsCoalescedFrames(t *testing.T) {
	testlog.Start(t)

	s, port := newTestSerial(
		scriptedRead{data: []byte{0x90, 0x3c, 0x7f, 0xff, 0x80, 0x3c, 0x00, 0xff}},
	)

	buf := make([]byte, 256)
	n, err := s.ReadFrame(buf)
	if err != nil || n != 4 {
		t.Fatalf("first frame: n=%d err=%v", n, err)
	}
	if buf[0] != 0x90 {
		t.Fatalf("first frame starts with %#x, want 0x90", buf[0])
	}

	n, err = s.ReadFrame(buf)
	if err != nil || n != 4 {
		t.Fatalf("second frame: n=%d err=%v", n, err)
	}
	if buf[0] != 0x80 {
		t.Fatalf("second frame starts with %#x, want 0x80", buf[0])
	}
	if port.reads != 1 {
		t.Fatalf("expected a single device read, got %d", port.reads)
	}
}

func TestReadFrameTimeoutYieldsNothing(t *testing.T) {
	testlog.Start(t)

	s, _ := newTestSerial()
	buf := make([]byte, 256)
	n, err := s.ReadFrame(buf)
	if err != nil {
		t.Fatalf("timeout should not error: %v", err)
	}
	if n != 0 {
		t.Fatalf("timeout returned %d bytes", n)
	}
}

func TestReadFrameWrapsDeviceError(t *testing.T) {
	testlog.Start(t)

	devErr := errors.New("input/output error")
	s, _ := newTestSerial(scriptedRead{err: devErr})

	buf := make([]byte, 256)
	if _, err := s.ReadFrame(buf); !errors.Is(err, devErr) {
		t.Fatalf("expected wrapped device error, got %v", err)
	}
}

func TestFlushDropsPendingBytes(t *testing.T) {
	testlog.Start(t)

	s, port := newTestSerial(
		scriptedRead{data: []byte{0x90, 0x3c}},
		scriptedRead{data: []byte{0x80, 0x40, 0xff}},
	)

	buf := make([]byte, 256)
	if n, err := s.ReadFrame(buf); n != 0 || err != nil {
		t.Fatalf("partial frame should not complete: n=%d err=%v", n, err)
	}

	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if port.flushes != 1 {
		t.Fatalf("driver flushes = %d, want 1", port.flushes)
	}

	n, err := s.ReadFrame(buf)
	if err != nil {
		t.Fatalf("read after flush: %v", err)
	}
	if n != 3 || buf[0] != 0x80 {
		t.Fatalf("stale prefix survived flush: n=%d first=%#x", n, buf[0])
	}
}

func TestTerminatorFreeStreamEmitsChunks(t *testing.T) {
	testlog.Start(t)

	s, _ := newTestSerial(
		scriptedRead{data: []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}},
	)

	buf := make([]byte, 4)
	n, err := s.ReadFrame(buf)
	if err != nil {
		t.Fatalf("chunk read: %v", err)
	}
	if n != 4 {
		t.Fatalf("chunk length = %d, want 4", n)
	}

	n, err = s.ReadFrame(buf)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if n != 0 {
		t.Fatalf("leftover below capacity should wait, got %d bytes", n)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	testlog.Start(t)

	s, port := newTestSerial()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !port.closed {
		t.Fatalf("underlying port not closed")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	buf := make([]byte, 8)
	if _, err := s.ReadFrame(buf); !errors.Is(err, ErrClosed) {
		t.Fatalf("read after close = %v, want ErrClosed", err)
	}
	if err := s.Flush(); !errors.Is(err, ErrClosed) {
		t.Fatalf("flush after close = %v, want ErrClosed", err)
	}
}

func TestConfigDefaultsFillZeroValues(t *testing.T) {
	testlog.Start(t)

	cfg := Config{}.withDefaults()
	if cfg.Device != DefaultDevice {
		t.Fatalf("device = %q, want %q", cfg.Device, DefaultDevice)
	}
	if cfg.BaudRate != DefaultBaudRate {
		t.Fatalf("baud = %d, want %d", cfg.BaudRate, DefaultBaudRate)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Fatalf("poll = %v, want %v", cfg.PollInterval, DefaultPollInterval)
	}
}
