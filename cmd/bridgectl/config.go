package main

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/midibridge/internal/bridge"
)

// fileConfig mirrors the on-disk schema. Durations are strings so the
// file stays readable; they are parsed during the overlay.
type fileConfig struct {
	ID                string `toml:"id"`
	HeartbeatInterval string `toml:"heartbeat_interval"`

	Serial struct {
		Device       string `toml:"device"`
		BaudRate     int    `toml:"baud_rate"`
		PollInterval string `toml:"poll_interval"`
	} `toml:"serial"`

	MIDI struct {
		Port string `toml:"port"`
	} `toml:"midi"`

	Buffer struct {
		Slots    int `toml:"slots"`
		SlotSize int `toml:"slot_size"`
	} `toml:"buffer"`

	Admin struct {
		ListenAddr  string   `toml:"listen_addr"`
		CORSOrigins []string `toml:"cors_origins"`
	} `toml:"admin"`
}

// loadServiceConfig overlays keys defined in the file onto the stock
// defaults. Keys absent from the file keep their default values.
func loadServiceConfig(path string) (bridge.ServiceConfig, error) {
	cfg := bridge.DefaultServiceConfig()

	var fc fileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return bridge.ServiceConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("id") {
		cfg.BridgeID = fc.ID
	}
	if meta.IsDefined("heartbeat_interval") {
		d, err := time.ParseDuration(fc.HeartbeatInterval)
		if err != nil {
			return bridge.ServiceConfig{}, fmt.Errorf("parse heartbeat_interval: %w", err)
		}
		cfg.HeartbeatInterval = d
	}
	if meta.IsDefined("serial", "device") {
		cfg.Serial.Device = fc.Serial.Device
	}
	if meta.IsDefined("serial", "baud_rate") {
		cfg.Serial.BaudRate = fc.Serial.BaudRate
	}
	if meta.IsDefined("serial", "poll_interval") {
		d, err := time.ParseDuration(fc.Serial.PollInterval)
		if err != nil {
			return bridge.ServiceConfig{}, fmt.Errorf("parse serial.poll_interval: %w", err)
		}
		cfg.Serial.PollInterval = d
	}
	if meta.IsDefined("midi", "port") {
		cfg.MIDI.Port = fc.MIDI.Port
	}
	if meta.IsDefined("buffer", "slots") {
		cfg.Buffer.Slots = fc.Buffer.Slots
	}
	if meta.IsDefined("buffer", "slot_size") {
		cfg.Buffer.SlotSize = fc.Buffer.SlotSize
	}
	if meta.IsDefined("admin", "listen_addr") {
		cfg.AdminListenAddr = fc.Admin.ListenAddr
	}
	if meta.IsDefined("admin", "cors_origins") {
		cfg.AdminCORSOrigins = fc.Admin.CORSOrigins
	}
	return cfg, nil
}

// resolveConfig builds the effective runtime config: defaults first,
// then the config file, then explicit flags on top.
func resolveConfig(configPath, serialPort, midiPort string) (bridge.ServiceConfig, error) {
	cfg := bridge.DefaultServiceConfig()
	if configPath != "" {
		loaded, err := loadServiceConfig(configPath)
		if err != nil {
			return bridge.ServiceConfig{}, err
		}
		cfg = loaded
	}
	if serialPort != "" {
		cfg.Serial.Device = serialPort
	}
	if midiPort != "" {
		cfg.MIDI.Port = midiPort
	}
	return cfg, nil
}
