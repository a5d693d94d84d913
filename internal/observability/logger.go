package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/midibridge/internal/logging"
)

// InitLogger configures the global logger for a binary and tags every
// line with the app name. Safe to call after a test profile is already
// in place; the first Configure wins and only the tag is added.
func InitLogger(app string) zerolog.Logger {
	logging.ConfigureRuntime()
	logger := log.With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// ComponentLogger derives a logger tagged with a runtime component
// name, such as ingest or dispatch.
func ComponentLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
