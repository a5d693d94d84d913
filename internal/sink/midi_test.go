package sink

import (
	"errors"
	"testing"

	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/danmuck/midibridge/internal/testutil/testlog"
)

type fakeOut struct {
	name    string
	open    bool
	sent    [][]byte
	sendErr error
}

func (f *fakeOut) Open() error             { f.open = true; return nil }
func (f *fakeOut) Close() error            { f.open = false; return nil }
func (f *fakeOut) IsOpen() bool            { return f.open }
func (f *fakeOut) Number() int             { return 0 }
func (f *fakeOut) String() string          { return f.name }
func (f *fakeOut) Underlying() interface{} { return nil }

func (f *fakeOut) Send(data []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func fakeOuts(names ...string) []drivers.Out {
	outs := make([]drivers.Out, 0, len(names))
	for _, n := range names {
		outs = append(outs, &fakeOut{name: n})
	}
	return outs
}

func TestResolveOutByIndex(t *testing.T) {
	testlog.Start(t)

	outs := fakeOuts("Midi Through 14:0", "Seaboard BLOCK 20:0")
	out, err := resolveOut(outs, "1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.String() != "Seaboard BLOCK 20:0" {
		t.Fatalf("resolved %q, want index 1", out.String())
	}
}

func TestResolveOutIndexOutOfRange(t *testing.T) {
	testlog.Start(t)

	outs := fakeOuts("Midi Through 14:0")
	if _, err := resolveOut(outs, "3"); !errors.Is(err, ErrPortNotFound) {
		t.Fatalf("expected ErrPortNotFound, got %v", err)
	}
}

func TestResolveOutByNameFragment(t *testing.T) {
	testlog.Start(t)

	outs := fakeOuts("Midi Through 14:0", "Seaboard BLOCK 20:0")
	out, err := resolveOut(outs, "seaboard")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.String() != "Seaboard BLOCK 20:0" {
		t.Fatalf("resolved %q, want seaboard port", out.String())
	}
}

func TestResolveOutUnknownName(t *testing.T) {
	testlog.Start(t)

	outs := fakeOuts("Midi Through 14:0")
	if _, err := resolveOut(outs, "linnstrument"); !errors.Is(err, ErrPortNotFound) {
		t.Fatalf("expected ErrPortNotFound, got %v", err)
	}
}

func TestResolveOutEmptyList(t *testing.T) {
	testlog.Start(t)

	if _, err := resolveOut(nil, "0"); !errors.Is(err, ErrNoOutputs) {
		t.Fatalf("expected ErrNoOutputs, got %v", err)
	}
}

func TestWriteSendsPayload(t *testing.T) {
	testlog.Start(t)

	out := &fakeOut{name: "fake"}
	m := &MIDI{out: out, name: out.name}

	payload := []byte{0x90, 0x3c, 0x7f}
	if err := m.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(out.sent) != 1 {
		t.Fatalf("sent %d payloads, want 1", len(out.sent))
	}
	got := out.sent[0]
	if len(got) != len(payload) {
		t.Fatalf("payload length = %d, want %d", len(got), len(payload))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("payload[%d] = %#x, want %#x", i, got[i], payload[i])
		}
	}
}

func TestWriteWrapsSendError(t *testing.T) {
	testlog.Start(t)

	sendErr := errors.New("port gone")
	m := &MIDI{out: &fakeOut{name: "fake", sendErr: sendErr}, name: "fake"}

	if err := m.Write([]byte{0x90}); !errors.Is(err, sendErr) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	testlog.Start(t)

	out := &fakeOut{name: "fake", open: true}
	m := &MIDI{out: out, name: "fake"}

	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if out.open {
		t.Fatalf("output port still open after close")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := m.Write([]byte{0x90}); !errors.Is(err, ErrClosed) {
		t.Fatalf("write after close = %v, want ErrClosed", err)
	}
}
