package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// BridgeConfig is the on-disk shape of a bridge instance. Durations are
// strings in time.ParseDuration form so files stay hand-editable.
type BridgeConfig struct {
	ID                string       `toml:"id"`
	HeartbeatInterval string       `toml:"heartbeat_interval"`
	Serial            SerialConfig `toml:"serial"`
	MIDI              MIDIConfig   `toml:"midi"`
	Buffer            BufferConfig `toml:"buffer"`
	Admin             AdminConfig  `toml:"admin"`
}

type SerialConfig struct {
	Device       string `toml:"device"`
	BaudRate     int    `toml:"baud_rate"`
	PollInterval string `toml:"poll_interval"`
}

type MIDIConfig struct {
	Port string `toml:"port"`
}

type BufferConfig struct {
	Slots    int `toml:"slots"`
	SlotSize int `toml:"slot_size"`
}

type AdminConfig struct {
	ListenAddr  string   `toml:"listen_addr"`
	CORSOrigins []string `toml:"cors_origins"`
}

func LoadBridgeConfig(path string) (BridgeConfig, error) {
	var cfg BridgeConfig
	if err := loadToml(path, &cfg); err != nil {
		return BridgeConfig{}, err
	}
	applyBridgeDefaults(&cfg)
	if err := ValidateBridgeConfig(cfg); err != nil {
		return BridgeConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// applyBridgeDefaults fills every omitted field with the stock hardware
// wiring. The id stays empty when omitted; the service generates one.
func applyBridgeDefaults(cfg *BridgeConfig) {
	if cfg.HeartbeatInterval == "" {
		cfg.HeartbeatInterval = "5s"
	}
	if cfg.Serial.Device == "" {
		cfg.Serial.Device = "/dev/ttymxc1"
	}
	if cfg.Serial.BaudRate == 0 {
		cfg.Serial.BaudRate = 230400
	}
	if cfg.Serial.PollInterval == "" {
		cfg.Serial.PollInterval = "5ms"
	}
	if cfg.MIDI.Port == "" {
		cfg.MIDI.Port = "hw:1,0"
	}
	if cfg.Buffer.Slots == 0 {
		cfg.Buffer.Slots = 16
	}
	if cfg.Buffer.SlotSize == 0 {
		cfg.Buffer.SlotSize = 256
	}
}

func ValidateBridgeConfig(cfg BridgeConfig) error {
	if strings.TrimSpace(cfg.Serial.Device) == "" {
		return fmt.Errorf("bridge config missing serial device")
	}
	if cfg.Serial.BaudRate <= 0 {
		return fmt.Errorf("bridge config invalid baud_rate: %d", cfg.Serial.BaudRate)
	}
	if err := validateDuration("poll_interval", cfg.Serial.PollInterval); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.MIDI.Port) == "" {
		return fmt.Errorf("bridge config missing midi port")
	}
	if cfg.Buffer.Slots <= 0 {
		return fmt.Errorf("bridge config invalid buffer slots: %d", cfg.Buffer.Slots)
	}
	if cfg.Buffer.SlotSize <= 0 {
		return fmt.Errorf("bridge config invalid buffer slot_size: %d", cfg.Buffer.SlotSize)
	}
	if err := validateDuration("heartbeat_interval", cfg.HeartbeatInterval); err != nil {
		return err
	}
	if addr := strings.TrimSpace(cfg.Admin.ListenAddr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("bridge config invalid admin listen_addr %q: %w", addr, err)
		}
	}
	return nil
}

func validateDuration(field, raw string) error {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("bridge config invalid %s: %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("bridge config %s must be positive, got %s", field, d)
	}
	return nil
}
