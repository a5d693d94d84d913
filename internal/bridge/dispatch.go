package bridge

import (
	"github.com/danmuck/midibridge/internal/frame"
	"github.com/danmuck/midibridge/internal/observability"
)

// dispatchLoop waits for ingest wakeups, drains the buffer and writes
// each payload to the sink. Drains copy the frames out, so sink writes
// never hold the buffer lock. A wakeup with nothing buffered is logged
// and survived; a failed write skips that frame and carries on.
func (s *Service) dispatchLoop() {
	defer s.wg.Done()

	log := observability.ComponentLogger("dispatch")

	for {
		if !s.buf.AwaitSignal() {
			return
		}
		if s.stop.Load() {
			return
		}

		frames := s.buf.DrainAll()
		if len(frames) == 0 {
			log.Warn().Msg("buffer underflow")
			s.underflows.Add(1)
			observability.RecordBufferUnderflow(s.cfg.BridgeID)
			continue
		}
		observability.RecordDrainBatch(s.cfg.BridgeID, len(frames))

		for _, fr := range frames {
			payload := frame.Payload(fr)
			if len(payload) == 0 {
				log.Warn().Msg("nothing to send")
				continue
			}
			log.Debug().Str("bytes", frame.HexString(payload)).Msg("sent")
			if err := s.sink.Write(payload); err != nil {
				log.Error().Err(err).Msg("midi write failed")
				s.writeErrors.Add(1)
				observability.RecordSinkWriteError(s.cfg.BridgeID)
				continue
			}
			s.framesOut.Add(1)
			s.bytesOut.Add(uint64(len(payload)))
			observability.RecordFrameSent(s.cfg.BridgeID, len(payload))
		}
	}
}
