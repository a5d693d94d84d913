package bridge

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/danmuck/midibridge/internal/admin"
	"github.com/danmuck/midibridge/internal/framebuf"
	"github.com/danmuck/midibridge/internal/observability"
	"github.com/danmuck/midibridge/internal/sink"
	"github.com/danmuck/midibridge/internal/transport"
)

const Version = "0.1.0"

var ErrInvalidHeartbeatInterval = errors.New("bridge: invalid heartbeat interval")

// Transport is the serial side as the ingest worker consumes it.
// ReadFrame returns (0, nil) when nothing complete arrived within one
// poll interval.
type Transport interface {
	ReadFrame(p []byte) (int, error)
	Flush() error
	Close() error
}

// Sink is the MIDI side as the dispatch worker consumes it.
type Sink interface {
	Write(payload []byte) error
	Close() error
}

// ServiceConfig configures a bridge runtime instance.
type ServiceConfig struct {
	BridgeID          string
	Serial            transport.Config
	MIDI              sink.Config
	Buffer            framebuf.Config
	AdminListenAddr   string
	AdminCORSOrigins  []string
	HeartbeatInterval time.Duration
}

// Bridge service defaults matching the stock hardware wiring.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		BridgeID:          "",
		Serial:            transport.DefaultConfig(),
		MIDI:              sink.DefaultConfig(),
		Buffer:            framebuf.DefaultConfig(),
		AdminListenAddr:   "",
		HeartbeatInterval: 5 * time.Second,
	}
}

// Service runs the serial-to-MIDI relay as a standalone process.
type Service struct {
	cfg ServiceConfig
	log zerolog.Logger
	buf *framebuf.Buffer

	transport Transport
	sink      Sink

	// factories let tests substitute scripted endpoints.
	openTransport func(transport.Config) (Transport, error)
	openSink      func(sink.Config) (Sink, error)

	started  time.Time
	stop     atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup

	errMu   sync.Mutex
	lastErr error

	framesIn    atomic.Uint64
	framesOut   atomic.Uint64
	framesDrop  atomic.Uint64
	bytesIn     atomic.Uint64
	bytesOut    atomic.Uint64
	underflows  atomic.Uint64
	writeErrors atomic.Uint64
}

// Bridge service constructor using stock defaults.
func NewService() *Service {
	return NewServiceWithConfig(DefaultServiceConfig())
}

// Bridge service constructor using explicit config. An empty bridge id
// gets a generated instance identity.
func NewServiceWithConfig(cfg ServiceConfig) *Service {
	if strings.TrimSpace(cfg.BridgeID) == "" {
		cfg.BridgeID = "bridge-" + uuid.NewString()
	}
	return &Service{
		cfg:  cfg,
		log:  observability.ComponentLogger("bridge"),
		buf:  framebuf.New(cfg.Buffer),
		done: make(chan struct{}),
		openTransport: func(c transport.Config) (Transport, error) {
			return transport.Open(c)
		},
		openSink: func(c sink.Config) (Sink, error) {
			return sink.Open(c)
		},
	}
}

// Bridge runtime entrypoint that blocks until process signal shutdown
// or a fatal relay error.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext is Run with caller-owned cancellation.
func (s *Service) RunContext(ctx context.Context) error {
	if err := s.bootstrap(); err != nil {
		return err
	}
	return s.serve(ctx)
}

// Bridge bootstrap sequence: sink first, then transport, so a missing
// serial device never leaves a dangling MIDI handle.
func (s *Service) bootstrap() error {
	if s.cfg.HeartbeatInterval <= 0 {
		return ErrInvalidHeartbeatInterval
	}

	snk, err := s.openSink(s.cfg.MIDI)
	if err != nil {
		return err
	}
	tr, err := s.openTransport(s.cfg.Serial)
	if err != nil {
		_ = snk.Close()
		return err
	}
	s.sink = snk
	s.transport = tr
	s.started = time.Now()

	s.log.Info().
		Str("bridge_id", s.cfg.BridgeID).
		Str("version", Version).
		Str("device", s.cfg.Serial.Device).
		Int("baud", s.cfg.Serial.BaudRate).
		Str("midi_port", s.cfg.MIDI.Port).
		Int("slots", s.buf.Cap()).
		Int("slot_size", s.buf.SlotSize()).
		Msg("bootstrap ready")
	return nil
}

// Bridge main loop: runs the workers and supervises heartbeat logging
// and the optional admin listener until stop.
func (s *Service) serve(ctx context.Context) error {
	observability.RegisterMetrics()

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	adminErr := make(chan error, 1)
	if strings.TrimSpace(s.cfg.AdminListenAddr) != "" {
		srv := admin.New(admin.Config{
			ListenAddr:  s.cfg.AdminListenAddr,
			BridgeID:    s.cfg.BridgeID,
			Version:     Version,
			CORSOrigins: s.cfg.AdminCORSOrigins,
		}, func() any { return s.Status() })
		go func() {
			adminErr <- srv.Serve(ctx)
		}()
	}

	s.wg.Add(2)
	go s.ingestLoop()
	go s.dispatchLoop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Str("bridge_id", s.cfg.BridgeID).Msg("interrupt, shutting down")
			s.initiateStop(nil)
			return s.finish()
		case <-s.done:
			return s.finish()
		case err := <-adminErr:
			if err != nil {
				s.initiateStop(err)
				return s.finish()
			}
		case <-ticker.C:
			s.log.Info().
				Str("bridge_id", s.cfg.BridgeID).
				Uint64("frames_in", s.framesIn.Load()).
				Uint64("frames_out", s.framesOut.Load()).
				Uint64("frames_dropped", s.framesDrop.Load()).
				Uint64("underflows", s.underflows.Load()).
				Int("buffered", s.buf.Len()).
				Msg("heartbeat")
		}
	}
}

// initiateStop records a fatal error, flips the stop flag and wakes
// everything that might be blocked. The most recent error wins; safe
// to call from any goroutine, any number of times.
func (s *Service) initiateStop(err error) {
	if err != nil {
		s.errMu.Lock()
		s.lastErr = err
		s.errMu.Unlock()
	}
	s.stop.Store(true)
	s.buf.Close()
	s.stopOnce.Do(func() { close(s.done) })
}

// finish waits for the workers, releases the endpoints in reverse
// acquisition order and reports the final status.
func (s *Service) finish() error {
	s.wg.Wait()
	s.teardown()

	s.errMu.Lock()
	err := s.lastErr
	s.errMu.Unlock()
	if err != nil {
		s.log.Error().Err(err).Str("bridge_id", s.cfg.BridgeID).Msg("stopped with error")
		return err
	}
	s.log.Info().Str("bridge_id", s.cfg.BridgeID).Msg("stopped")
	return nil
}

// teardown closes the transport before the sink. Close failures are
// logged, not returned; the relay outcome is already decided by then.
func (s *Service) teardown() {
	if s.transport != nil {
		if err := s.transport.Close(); err != nil {
			s.log.Warn().Err(err).Msg("transport close failed")
		}
		s.transport = nil
	}
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			s.log.Warn().Err(err).Msg("sink close failed")
		}
		s.sink = nil
	}
}

// Stopping reports whether shutdown has begun.
func (s *Service) Stopping() bool {
	return s.stop.Load()
}

// Status is the admin-facing runtime snapshot.
type Status struct {
	BridgeID      string `json:"bridge_id"`
	Version       string `json:"version"`
	Device        string `json:"device"`
	MIDIPort      string `json:"midi_port"`
	Uptime        string `json:"uptime"`
	Stopping      bool   `json:"stopping"`
	Buffered      int    `json:"buffered"`
	BufferSlots   int    `json:"buffer_slots"`
	FramesIn      uint64 `json:"frames_in"`
	FramesOut     uint64 `json:"frames_out"`
	FramesDropped uint64 `json:"frames_dropped"`
	BytesIn       uint64 `json:"bytes_in"`
	BytesOut      uint64 `json:"bytes_out"`
	Underflows    uint64 `json:"underflows"`
	SinkErrors    uint64 `json:"sink_write_errors"`
}

func (s *Service) Status() Status {
	var uptime time.Duration
	if !s.started.IsZero() {
		uptime = time.Since(s.started)
	}
	return Status{
		BridgeID:      s.cfg.BridgeID,
		Version:       Version,
		Device:        s.cfg.Serial.Device,
		MIDIPort:      s.cfg.MIDI.Port,
		Uptime:        uptime.String(),
		Stopping:      s.stop.Load(),
		Buffered:      s.buf.Len(),
		BufferSlots:   s.buf.Cap(),
		FramesIn:      s.framesIn.Load(),
		FramesOut:     s.framesOut.Load(),
		FramesDropped: s.framesDrop.Load(),
		BytesIn:       s.bytesIn.Load(),
		BytesOut:      s.bytesOut.Load(),
		Underflows:    s.underflows.Load(),
		SinkErrors:    s.writeErrors.Load(),
	}
}
