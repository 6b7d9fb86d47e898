// Package logger configura zerolog para los dos binarios del proyecto: la API
// registra JSON por solicitud y generación; generar escribe en consola a stderr
// para no mezclarse con el resumen que imprime en stdout.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config opciones para el logger.
type Config struct {
	Env   string    // development: consola legible; cualquier otro valor: JSON
	Level string    // trace, debug, info, warn, error
	Out   io.Writer // nil: os.Stdout (la API); generar pasa os.Stderr
}

// Logger se construye una vez en main y se reparte por bootstrap: el caso de
// uso, el compilador y el renderer reciben subloggers con "component".
type Logger struct {
	zl zerolog.Logger
}

// New crea el logger de la aplicación con marca de tiempo en cada línea.
func New(cfg Config) *Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	w := out
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zl := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()

	// el logger global queda igual para lo que use zerolog/log directamente
	log.Logger = zl

	return &Logger{zl: zl}
}

// ParseLevel nivel de zerolog a partir del texto de configuración. Desconocido: info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Trace, Debug, Info, Warn, Error delegados a zerolog.
func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// With crea un sublogger con campos fijos.
func (l *Logger) With() zerolog.Context {
	return l.zl.With()
}

// Zerolog devuelve el logger interno; el caso de uso recibe un zerolog.Logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}
