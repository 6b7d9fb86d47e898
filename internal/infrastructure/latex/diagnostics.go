package latex

import (
	"regexp"
	"strings"
)

// maxDiagnostics límite de líneas de diagnóstico por compilación.
const maxDiagnostics = 20

var (
	// ./resolucion.tex:42: Undefined control sequence.
	fileLineErrorPattern = regexp.MustCompile(`^\S.*\.tex:\d+: .+`)
	// l.42 \foo
	contextLinePattern = regexp.MustCompile(`^l\.\d+`)
)

// transientMarkers mensajes de fallos que pueden desaparecer al reintentar
// (archivos bloqueados, contención de recursos).
var transientMarkers = []string{
	"I can't write on file",
	"Permission denied",
	"Resource temporarily unavailable",
	"Device or resource busy",
	"Text file busy",
}

// ParseDiagnostics extrae del log las líneas de error de pdflatex: las que
// empiezan con "!", las con formato archivo:línea: mensaje, y la línea "l.N"
// que sigue a un error. Sin duplicados y en orden.
func ParseDiagnostics(log string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if s == "" || seen[s] || len(out) >= maxDiagnostics {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	lines := strings.Split(strings.ReplaceAll(log, "\r\n", "\n"), "\n")
	inError := false
	for _, raw := range lines {
		line := strings.TrimRight(raw, " \t")
		switch {
		case strings.HasPrefix(line, "!"):
			add(line)
			inError = true
		case fileLineErrorPattern.MatchString(line):
			add(line)
			inError = true
		case inError && contextLinePattern.MatchString(line):
			add(line)
			inError = false
		}
	}
	return out
}

// IsTransient indica si el log corresponde a un fallo transitorio.
// Los errores de sintaxis del documento nunca lo son.
func IsTransient(log string) bool {
	for _, m := range transientMarkers {
		if strings.Contains(log, m) {
			return true
		}
	}
	return false
}
