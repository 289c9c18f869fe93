package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = build(consoleWriter(os.Stdout), zerolog.InfoLevel)
}

func consoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

func build(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Setup configures Log and the zerolog global logger. format "json" writes
// one JSON object per line; anything else writes colored console output.
func Setup(levelStr, format string) {
	level := parseLevel(levelStr)

	var out io.Writer = os.Stdout
	if !strings.EqualFold(strings.TrimSpace(format), "json") {
		out = consoleWriter(os.Stdout)
	}

	zerolog.SetGlobalLevel(level)
	Log = build(out, level)
	log.Logger = Log
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	level := parseLevel(levelStr)
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
	log.Logger = Log
}

func parseLevel(levelStr string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(levelStr)))
	if err != nil || levelStr == "" {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		return zerolog.InfoLevel
	}
	return level
}
