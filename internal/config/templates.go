package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "bridge":
		return bridgeTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const bridgeTemplate = `id = "bridge.local"
heartbeat_interval = "5s"

[serial]
device = "/dev/ttymxc1"
baud_rate = 230400
poll_interval = "5ms"

[midi]
# Port index or a case-insensitive fragment of the port name.
port = "hw:1,0"

[buffer]
slots = 16
slot_size = 256

[admin]
# Leave empty to run without the admin endpoint.
listen_addr = ""
cors_origins = ["http://localhost:3000"]
`
