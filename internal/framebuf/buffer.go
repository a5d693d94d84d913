// Package framebuf implements the bounded frame buffer shared by the serial
// ingest worker and the sink dispatch worker.
//
// The buffer is not a wrap-around ring: slots fill from index 0 upward and
// the consumer always empties the whole filled prefix in one pass, resetting
// the count to zero. One mutex guards the slots, the count, and the wakeup
// state; the condition variable only carries producer→consumer "new data"
// signals. Capacity overflow is handled by dropping, never by blocking the
// producer.
package framebuf

import (
	"errors"
	"sync"
)

var (
	ErrFull          = errors.New("framebuf: buffer full")
	ErrFrameTooLarge = errors.New("framebuf: frame exceeds slot size")
	ErrClosed        = errors.New("framebuf: buffer closed")
)

const (
	DefaultSlots    = 16
	DefaultSlotSize = 256
)

// Config sizes the buffer. Non-positive values fall back to the defaults.
type Config struct {
	Slots    int
	SlotSize int
}

func DefaultConfig() Config {
	return Config{Slots: DefaultSlots, SlotSize: DefaultSlotSize}
}

// Buffer holds terminator-delimited frames in fixed-size slots. Exactly one
// producer appends and exactly one consumer drains.
type Buffer struct {
	mu   sync.Mutex
	cond *sync.Cond

	slots    [][]byte
	lens     []int
	count    int
	slotSize int

	signaled bool
	closed   bool
}

func New(cfg Config) *Buffer {
	if cfg.Slots <= 0 {
		cfg.Slots = DefaultSlots
	}
	if cfg.SlotSize <= 0 {
		cfg.SlotSize = DefaultSlotSize
	}
	b := &Buffer{
		slots:    make([][]byte, cfg.Slots),
		lens:     make([]int, cfg.Slots),
		slotSize: cfg.SlotSize,
	}
	for i := range b.slots {
		b.slots[i] = make([]byte, cfg.SlotSize)
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// TryAppend copies one terminator-delimited frame into the next free slot.
// At capacity it returns ErrFull without touching buffer state; the caller
// owns the drop (and any upstream flush). It never blocks on the consumer.
func (b *Buffer) TryAppend(fr []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if len(fr) > b.slotSize {
		return ErrFrameTooLarge
	}
	if b.count == len(b.slots) {
		return ErrFull
	}
	copy(b.slots[b.count], fr)
	b.lens[b.count] = len(fr)
	b.count++
	return nil
}

// DrainAll removes and returns every buffered frame in append order,
// resetting the count to zero. The returned frames are copies, so the
// consumer can process them after the lock is released. An empty buffer
// drains to nil.
func (b *Buffer) DrainAll() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return nil
	}
	out := make([][]byte, b.count)
	for i := 0; i < b.count; i++ {
		fr := make([]byte, b.lens[i])
		copy(fr, b.slots[i][:b.lens[i]])
		out[i] = fr
	}
	b.count = 0
	return out
}

// Len reports the number of buffered frames. Advisory only; the buffer may
// change between the call and any decision based on it.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *Buffer) Cap() int {
	return len(b.slots)
}

// SlotSize reports the largest frame a single slot can hold.
func (b *Buffer) SlotSize() int {
	return b.slotSize
}

func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// Signal marks a pending consumer wakeup and signals the condition. Wakeups
// coalesce: signaling twice before the consumer runs wakes it once, and the
// pending mark is not lost if the consumer is busy rather than waiting.
func (b *Buffer) Signal() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.signaled = true
	b.mu.Unlock()
	b.cond.Signal()
}

// AwaitSignal blocks until a pending wakeup or close, consuming one wakeup.
// Spurious condition wakeups are absorbed by re-checking the predicate. It
// returns false once the buffer is closed; frames may still be buffered at
// that point, but a closed buffer means the process is stopping.
func (b *Buffer) AwaitSignal() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for !b.signaled && !b.closed {
		b.cond.Wait()
	}
	b.signaled = false
	return !b.closed
}

// Close marks the buffer terminal and broadcasts so no waiter hangs. It is
// idempotent. Appends after Close fail with ErrClosed.
func (b *Buffer) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	b.cond.Broadcast()
}
