package logger

import (
	"github.com/rs/zerolog"
	"io"
	"os"
	"strings"
)

const (
	LOG_LEVEL_DEBUG = "DEBUG"
	LOG_LEVEL_INFO  = "INFO"
	LOG_LEVEL_WARN  = "WARN"
	LOG_LEVEL_ERROR = "ERROR"
	LOG_LEVEL_FATAL = "FATAL"
	LOG_LEVEL_PANIC = "PANIC"

	levelEnvVariable = "MDL_COMN_LOGLEVEL"
)

var levels = map[string]zerolog.Level{
	LOG_LEVEL_DEBUG: zerolog.DebugLevel,
	LOG_LEVEL_INFO:  zerolog.InfoLevel,
	LOG_LEVEL_WARN:  zerolog.WarnLevel,
	LOG_LEVEL_ERROR: zerolog.ErrorLevel,
	LOG_LEVEL_FATAL: zerolog.FatalLevel,
	LOG_LEVEL_PANIC: zerolog.PanicLevel,
}

func SetupLogging() {
	zerolog.LevelFieldName = "level_name"
	zerolog.TimestampFieldName = "timestamp"
}

// Level maps a level name to the zerolog level; unknown names fall back to info.
func Level(name string) zerolog.Level {
	if level, ok := levels[strings.ToUpper(name)]; ok {
		return level
	}
	return zerolog.InfoLevel
}

func NewLogger(component string) zerolog.Logger {
	return NewLoggerTo(os.Stderr, component)
}

func NewLoggerTo(w io.Writer, component string) zerolog.Logger {
	level, ok := os.LookupEnv(levelEnvVariable)
	if !ok {
		level = LOG_LEVEL_INFO
	}

	return zerolog.New(w).
		With().
		Str("component", component).
		Timestamp().
		Logger().
		Level(Level(level))
}
