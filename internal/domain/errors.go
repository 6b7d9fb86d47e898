package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrMalformedInput     = errors.New("entrada mal formada")
	ErrResourceMissing    = errors.New("recurso requerido no disponible")
	ErrCompilation        = errors.New("falló la compilación LaTeX")
	ErrCompilationTimeout = errors.New("la compilación LaTeX excedió el tiempo límite")
	ErrOutputDir          = errors.New("directorio de salida inaccesible")
)

// ErrorKind clasificación enumerada de fallos de generación.
type ErrorKind string

const (
	KindResourceMissing    ErrorKind = "RESOURCE_MISSING"
	KindCompilationFailed  ErrorKind = "COMPILATION_FAILED"
	KindCompilationTimeout ErrorKind = "COMPILATION_TIMEOUT"
	KindDirectoryError     ErrorKind = "DIRECTORY_ERROR"
	KindFileWriteError     ErrorKind = "FILE_WRITE_ERROR"
)

// sentinel devuelve el error de dominio asociado a cada tipo.
func (k ErrorKind) sentinel() error {
	switch k {
	case KindResourceMissing:
		return ErrResourceMissing
	case KindCompilationFailed:
		return ErrCompilation
	case KindCompilationTimeout:
		return ErrCompilationTimeout
	case KindDirectoryError, KindFileWriteError:
		return ErrOutputDir
	default:
		return nil
	}
}

// GenerationError fallo estructurado de la orquestación de compilación.
// Message es un resumen corto; Diagnostics las líneas de error del compilador;
// Log la salida completa capturada (para guardar o mostrar bajo demanda).
type GenerationError struct {
	Kind        ErrorKind
	Message     string
	Suggestions []string
	Diagnostics []string
	Log         string
	Resources   []string // recursos faltantes (solo KindResourceMissing)
	// CleanupWarnings auxiliares que no se pudieron borrar antes de fallar.
	CleanupWarnings []CleanupWarning
	Cause           error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// Is permite errors.Is(err, domain.ErrCompilationTimeout) y similares.
func (e *GenerationError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// ShortLog devuelve como máximo los últimos max bytes del log, para mostrar.
func (e *GenerationError) ShortLog(max int) string {
	if max <= 0 || len(e.Log) <= max {
		return e.Log
	}
	start := len(e.Log) - max
	for start < len(e.Log) && !utf8.RuneStart(e.Log[start]) {
		start++
	}
	return "…" + e.Log[start:]
}

// NewGenerationError construye un GenerationError.
func NewGenerationError(kind ErrorKind, message string, cause error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Cause: cause}
}

// CleanupWarning problema no fatal al borrar un archivo temporal.
type CleanupWarning struct {
	File string
	Err  error
}

func (w CleanupWarning) String() string {
	return fmt.Sprintf("no se pudo borrar %s: %v", w.File, w.Err)
}
