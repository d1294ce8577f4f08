// Package logging provides component-tagged zerolog loggers.
//
// Every subsystem obtains its logger through Component so that all log
// lines carry a "component" field and share one process-wide level.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var root = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Setup configures the global log level. Accepted levels are those of
// zerolog.ParseLevel: trace, debug, info, warn, error, fatal, panic and
// disabled.
func Setup(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// Component returns a logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}
