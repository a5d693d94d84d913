package config

import (
	"strings"
	"time"

	"github.com/danmuck/midibridge/internal/bridge"
	"github.com/danmuck/midibridge/internal/framebuf"
	"github.com/danmuck/midibridge/internal/sink"
	"github.com/danmuck/midibridge/internal/transport"
)

// ToServiceConfig maps a validated file config onto runtime config.
// Call ValidateBridgeConfig first; durations that fail to parse here
// are reported rather than silently defaulted.
func ToServiceConfig(cfg BridgeConfig) (bridge.ServiceConfig, error) {
	poll, err := time.ParseDuration(strings.TrimSpace(cfg.Serial.PollInterval))
	if err != nil {
		return bridge.ServiceConfig{}, err
	}
	heartbeat, err := time.ParseDuration(strings.TrimSpace(cfg.HeartbeatInterval))
	if err != nil {
		return bridge.ServiceConfig{}, err
	}

	return bridge.ServiceConfig{
		BridgeID: strings.TrimSpace(cfg.ID),
		Serial: transport.Config{
			Device:       cfg.Serial.Device,
			BaudRate:     cfg.Serial.BaudRate,
			PollInterval: poll,
		},
		MIDI: sink.Config{
			Port: cfg.MIDI.Port,
		},
		Buffer: framebuf.Config{
			Slots:    cfg.Buffer.Slots,
			SlotSize: cfg.Buffer.SlotSize,
		},
		AdminListenAddr:   strings.TrimSpace(cfg.Admin.ListenAddr),
		AdminCORSOrigins:  cfg.Admin.CORSOrigins,
		HeartbeatInterval: heartbeat,
	}, nil
}
