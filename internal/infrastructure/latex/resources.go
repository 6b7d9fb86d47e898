package latex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jhoicas/peco-resoluciones/internal/domain"
)

var includeGraphicsPattern = regexp.MustCompile(`\\includegraphics\s*(?:\[[^\]]*\])?\s*\{([^}]+)\}`)

// graphicsExtensions extensiones que pdflatex prueba cuando la referencia no trae una.
var graphicsExtensions = []string{".png", ".pdf", ".jpg", ".jpeg"}

// ReferencedResources nombres de archivo citados con \includegraphics, sin repetir,
// en orden de aparición.
func ReferencedResources(source string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range includeGraphicsPattern.FindAllStringSubmatch(source, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// requiredResources recursos configurados más los referenciados por el fuente.
func (c *Compiler) requiredResources(source string) []string {
	seen := map[string]bool{}
	var out []string
	for _, list := range [][]string{c.cfg.Resources, ReferencedResources(source)} {
		for _, name := range list {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// prepareResources copia al directorio de trabajo los recursos requeridos.
// Si falta alguno devuelve RESOURCE_MISSING con la lista completa.
func (c *Compiler) prepareResources(source, outputDir string) error {
	type copyJob struct{ src, dst string }
	var (
		missing []string
		jobs    []copyJob
	)
	for _, name := range c.requiredResources(source) {
		src, dst, ok := c.locateResource(name, outputDir)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if src != "" {
			jobs = append(jobs, copyJob{src, dst})
		}
	}
	if len(missing) > 0 {
		ge := domain.NewGenerationError(domain.KindResourceMissing,
			fmt.Sprintf("faltan recursos del template: %s", strings.Join(missing, ", ")), nil)
		ge.Resources = missing
		ge.Suggestions = []string{
			fmt.Sprintf("Copie %s en %s", strings.Join(missing, ", "), c.resourceDirLabel()),
		}
		return ge
	}
	for _, j := range jobs {
		if err := copyFile(j.src, j.dst); err != nil {
			return domain.NewGenerationError(domain.KindFileWriteError,
				fmt.Sprintf("no se pudo copiar el recurso %s", filepath.Base(j.src)), err)
		}
	}
	return nil
}

// locateResource busca name en el directorio de recursos y, si no está, en el de
// salida. src vacío con ok=true: ya está donde el compilador lo buscará.
func (c *Compiler) locateResource(name, outputDir string) (src, dst string, ok bool) {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		for _, ext := range graphicsExtensions {
			candidates = append(candidates, name+ext)
		}
	}
	for _, cand := range candidates {
		if filepath.IsAbs(cand) {
			if isFile(cand) {
				return "", "", true
			}
			continue
		}
		rel := filepath.Clean(cand)
		inOutput := filepath.Join(outputDir, rel)
		escapes := rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
		if !escapes && c.cfg.ResourceDir != "" {
			if p := filepath.Join(c.cfg.ResourceDir, rel); isFile(p) {
				if samePath(p, inOutput) {
					return "", "", true
				}
				return p, inOutput, true
			}
		}
		if isFile(inOutput) {
			return "", "", true
		}
	}
	return "", "", false
}

func (c *Compiler) resourceDirLabel() string {
	if c.cfg.ResourceDir == "" {
		return "el directorio de recursos"
	}
	return c.cfg.ResourceDir
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func samePath(a, b string) bool {
	aa, errA := filepath.Abs(a)
	bb, errB := filepath.Abs(b)
	return errA == nil && errB == nil && aa == bb
}

// copyFile copia src en dst pasando por un temporal en el mismo directorio.
func copyFile(src, dst string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".recurso-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return errors.Join(fmt.Errorf("reemplazando %s", dst), err)
	}
	return nil
}
