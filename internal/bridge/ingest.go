package bridge

import (
	"errors"

	"github.com/danmuck/midibridge/internal/frame"
	"github.com/danmuck/midibridge/internal/framebuf"
	"github.com/danmuck/midibridge/internal/observability"
)

// ingestLoop polls the transport for frames and appends them to the
// buffer. Every completed poll that yielded bytes ends with exactly one
// wakeup for the dispatcher, whether the frame was buffered or dropped.
// Timed-out polls retry without waking anyone. A transport error is
// fatal to the whole relay.
func (s *Service) ingestLoop() {
	defer s.wg.Done()
	defer s.buf.Close()

	log := observability.ComponentLogger("ingest")
	buf := make([]byte, s.buf.SlotSize())

	for !s.stop.Load() {
		n, err := s.transport.ReadFrame(buf)
		if err != nil {
			log.Error().Err(err).Msg("transport read failed")
			s.initiateStop(err)
			return
		}
		if n == 0 {
			continue
		}

		data := buf[:n]
		restored := frame.Normalize(data)
		if payload := frame.Payload(data); len(payload) == 0 {
			log.Debug().Msg("nothing received")
		} else {
			log.Debug().Str("bytes", frame.HexString(payload)).Msg("received")
		}
		s.framesIn.Add(1)
		s.bytesIn.Add(uint64(n))
		observability.RecordFrameReceived(s.cfg.BridgeID, n, restored)

		if err := s.buf.TryAppend(data); err != nil {
			if errors.Is(err, framebuf.ErrClosed) {
				return
			}
			// Full buffer or oversized frame: drop it and clear the
			// input queue so stale bytes cannot smear into the next
			// frame, then wake the dispatcher to drain.
			log.Warn().Err(err).Int("len", n).Msg("buffer overflow, dropping frame")
			s.framesDrop.Add(1)
			observability.RecordFrameDropped(s.cfg.BridgeID, dropReason(err))
			if ferr := s.transport.Flush(); ferr != nil {
				log.Warn().Err(ferr).Msg("input flush failed")
			}
		}
		s.buf.Signal()
	}
}

func dropReason(err error) string {
	if errors.Is(err, framebuf.ErrFrameTooLarge) {
		return "oversize"
	}
	return "overflow"
}
