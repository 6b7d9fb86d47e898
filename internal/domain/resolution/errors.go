package resolution

import (
	"fmt"
	"strings"

	"github.com/jhoicas/peco-resoluciones/internal/domain"
)

// FieldError problema de validación en un campo concreto.
// Path usa la notación del esquema: "considerandos[2].monto", "anexo.items[0].categoria".
type FieldError struct {
	Path      string
	Message   string
	Malformed bool // tipo JSON incorrecto (ej: número donde se espera texto)
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationErrors todos los problemas encontrados en una configuración.
// Se devuelven juntos para que el usuario pueda corregirlos de una vez.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.String()
	}
	return fmt.Sprintf("configuración inválida (%d errores): %s", len(v), strings.Join(parts, "; "))
}

// Is: siempre domain.ErrInvalidInput; además domain.ErrMalformedInput si algún
// error es de tipo mal formado.
func (v ValidationErrors) Is(target error) bool {
	switch target {
	case domain.ErrInvalidInput:
		return true
	case domain.ErrMalformedInput:
		return v.HasMalformed()
	}
	return false
}

// HasMalformed indica si hay al menos un error de tipo.
func (v ValidationErrors) HasMalformed() bool {
	for _, e := range v {
		if e.Malformed {
			return true
		}
	}
	return false
}

// ForPath devuelve los errores cuyo Path empieza por prefix.
func (v ValidationErrors) ForPath(prefix string) ValidationErrors {
	var out ValidationErrors
	for _, e := range v {
		if strings.HasPrefix(e.Path, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// collector acumula errores y advertencias durante la validación.
type collector struct {
	errs     ValidationErrors
	warnings []string
}

func (c *collector) invalid(path, format string, args ...any) {
	c.errs = append(c.errs, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) malformed(path, format string, args ...any) {
	c.errs = append(c.errs, FieldError{Path: path, Message: fmt.Sprintf(format, args...), Malformed: true})
}

func (c *collector) warn(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}
