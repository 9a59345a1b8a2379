package logger

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/contentpulse/pkg/config"
)

// ServiceName is attached to every log line
const ServiceName = "contentpulse"

var levels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
	"panic":   zerolog.PanicLevel,
}

// Logger is a structured logger wrapper around zerolog.
// Every With* call returns a child; the receiver is never mutated.
// ⭐ SSOT: 모든 로깅은 이 패키지를 통해서만 수행
type Logger struct {
	zlog zerolog.Logger
}

// New creates the process logger from config and sets the global level.
// LOG_FORMAT=console (or pretty) switches to human-readable output for the CLI.
// ⭐ SSOT: zerolog 인스턴스는 여기서만 생성
func New(cfg *config.Config) *Logger {
	var out io.Writer = os.Stdout
	if f := strings.ToLower(cfg.LogFormat); f == "console" || f == "pretty" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))
	return &Logger{zlog: base(out).Str("env", cfg.Env).Logger()}
}

// NewWithWriter creates a JSON logger writing to w at the given level.
// The level applies to this logger only, not globally.
func NewWithWriter(w io.Writer, level string) *Logger {
	return &Logger{zlog: base(w).Logger().Level(parseLogLevel(level))}
}

// Nop returns a logger that discards everything (tests)
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

func base(w io.Writer) zerolog.Context {
	return zerolog.New(w).With().Timestamp().Str("service", ServiceName)
}

func parseLogLevel(s string) zerolog.Level {
	if lvl, ok := levels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl
	}
	return zerolog.InfoLevel
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

func (l *Logger) child(c zerolog.Context) *Logger {
	return &Logger{zlog: c.Logger()}
}

// WithField returns a child logger with an additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.child(l.zlog.With().Interface(key, value))
}

// WithFields returns a child logger with multiple fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.child(l.zlog.With().Fields(fields))
}

// WithPairs takes alternating key/value arguments, as robfig/cron hands them
// out. Non-string keys are rendered with %v; a trailing key without a value
// is dropped.
func (l *Logger) WithPairs(kv ...interface{}) *Logger {
	c := l.zlog.With()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		c = c.Interface(key, kv[i+1])
	}
	return l.child(c)
}

// WithError returns a child logger with an error field
func (l *Logger) WithError(err error) *Logger {
	return l.child(l.zlog.With().Err(err))
}

// WithComponent tags every line with the engine component name
func (l *Logger) WithComponent(name string) *Logger {
	return l.child(l.zlog.With().Str("component", name))
}

// WithJob tags lines emitted while a scheduler job runs
func (l *Logger) WithJob(name, trigger string) *Logger {
	return l.child(l.zlog.With().Str("job", name).Str("trigger", trigger))
}

// WithRequest tags lines with the HTTP method and path of r
func (l *Logger) WithRequest(r *http.Request) *Logger {
	return l.child(l.zlog.With().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote", r.RemoteAddr))
}
