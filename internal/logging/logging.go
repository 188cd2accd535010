// Package logging builds the zerolog loggers used by the client and server.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Server environments.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

func init() {
	zerolog.TimestampFieldName = "timestamp"
}

// NewCLI returns a console logger writing to w. Only warnings and errors
// are printed unless debug is set.
func NewCLI(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}

	cw := zerolog.NewConsoleWriter()
	cw.Out = w
	cw.TimeFormat = time.TimeOnly
	cw.NoColor = true

	return zerolog.New(cw).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewServer returns the server logger for env. Local runs use a console
// writer at trace level; dev and prod write JSON.
func NewServer(env string, w io.Writer) (zerolog.Logger, error) {
	var level zerolog.Level
	switch env {
	case EnvDev:
		level = zerolog.DebugLevel
	case EnvProd:
		level = zerolog.InfoLevel
	case EnvLocal:
		level = zerolog.TraceLevel

		cw := zerolog.NewConsoleWriter()
		cw.TimeFormat = time.DateTime
		cw.Out = w
		w = cw
	default:
		return zerolog.Nop(), fmt.Errorf("unknown env: %s", env)
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger(), nil
}
