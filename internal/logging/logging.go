package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

// LevelNames lists the accepted spellings of each level, for flag parsing.
var LevelNames = map[Level][]string{
	Debug: {"debug"},
	Info:  {"info"},
	Warn:  {"warn", "warning"},
	Error: {"error"},
}

func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for level, names := range LevelNames {
		for _, name := range names {
			if s == name {
				return level, nil
			}
		}
	}
	return Info, fmt.Errorf("unknown log level %q", s)
}

func (l Level) String() string {
	if names, ok := LevelNames[l]; ok {
		return names[0]
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type Config struct {
	Level  Level
	Format string // "json" or "text"
	Output io.Writer
}

type Logger struct {
	log   zerolog.Logger
	level Level
}

func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	if config.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}
	}
	return &Logger{
		log:   zerolog.New(out).Level(config.Level.zerolog()).With().Timestamp().Logger(),
		level: config.Level,
	}
}

// NewNoop returns a logger that discards everything.
func NewNoop() *Logger {
	return &Logger{log: zerolog.Nop(), level: Error + 1}
}

// With returns a child logger that adds field to every entry.
func (l *Logger) With(field, value string) *Logger {
	return &Logger{log: l.log.With().Str(field, value).Logger(), level: l.level}
}

func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
