// Package latex contiene utilidades puras para insertar texto de usuario en
// fuentes LaTeX sin romper su sintaxis.
package latex

import (
	"regexp"
	"strings"
)

// backslashRepl forma literal de la barra invertida.
const backslashRepl = `\textbackslash{}`

// escapeMap caracteres especiales de LaTeX y su forma literal.
// La barra invertida va aparte: ver Escape.
var escapeMap = []struct {
	char, repl string
}{
	{"$", `\$`},
	{"%", `\%`},
	{"&", `\&`},
	{"#", `\#`},
	{"_", `\_`},
	{"{", `\{`},
	{"}", `\}`},
	{"^", `\textasciicircum{}`},
	{"~", `\textasciitilde{}`},
	{"*", `\textasteriskcentered{}`},
	{"[", `{[}`},
	{"]", `{]}`},
	{"|", `\textbar{}`},
	{"<", `\textless{}`},
	{">", `\textgreater{}`},
}

var replacer = newReplacer()

// newReplacer arma un reemplazo de una sola pasada: el texto ya reemplazado no
// se vuelve a examinar, así que las llaves de \textbackslash{} no se re-escapan.
func newReplacer() *strings.Replacer {
	pairs := make([]string, 0, len(escapeMap)*2+2)
	pairs = append(pairs, `\`, backslashRepl)
	for _, e := range escapeMap {
		pairs = append(pairs, e.char, e.repl)
	}
	return strings.NewReplacer(pairs...)
}

// Escape convierte texto arbitrario en texto seguro para LaTeX.
// Es total: nunca falla. NO es idempotente: escapar dos veces duplica el escape,
// por eso el texto del usuario se escapa exactamente una vez, al insertarlo.
// Los caracteres fuera del mapa (acentos, ñ, dígitos, puntuación) pasan intactos.
func Escape(s string) string {
	if s == "" {
		return s
	}
	return replacer.Replace(s)
}

// SpecialChars devuelve los caracteres que Escape convierte, barra invertida incluida.
func SpecialChars() []string {
	chars := make([]string, 0, len(escapeMap)+1)
	chars = append(chars, `\`)
	for _, e := range escapeMap {
		chars = append(chars, e.char)
	}
	return chars
}

var unescapedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(^|[^\\])\$`),
	regexp.MustCompile(`(^|[^\\])%`),
	regexp.MustCompile(`(^|[^\\])&`),
	regexp.MustCompile(`(^|[^\\])#`),
	regexp.MustCompile(`(^|[^\\])_`),
}

// LooksEscaped informa si el texto no contiene ninguno de los caracteres
// $ % & # _ sin su barra invertida. Es una heurística para diagnósticos,
// no una validación completa.
func LooksEscaped(s string) bool {
	for _, re := range unescapedPatterns {
		if re.MatchString(s) {
			return false
		}
	}
	return true
}
