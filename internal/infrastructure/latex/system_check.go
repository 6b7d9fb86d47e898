package latex

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/jhoicas/peco-resoluciones/internal/domain"
	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
)

const versionCheckTimeout = 10 * time.Second

// currentOS se puede sustituir en tests.
var currentOS = func() string { return runtime.GOOS }

// InstallInstructions pasos de instalación de una distribución TeX según el SO.
func InstallInstructions(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			"Instale MiKTeX: https://miktex.org/download",
			"O instale TeX Live: https://www.tug.org/texlive/",
			"Reinicie la terminal para que pdflatex quede en el PATH",
		}
	case "darwin":
		return []string{
			"Instale MacTeX: https://www.tug.org/mactex/",
			"O con Homebrew: brew install --cask mactex",
		}
	case "linux":
		return []string{
			"Instale TeX Live: sudo apt-get install texlive-latex-base texlive-latex-extra texlive-lang-spanish",
			"En Fedora: sudo dnf install texlive-scheme-basic texlive-babel-spanish",
		}
	default:
		return []string{"Instale una distribución LaTeX que incluya pdflatex: https://www.latex-project.org/get/"}
	}
}

// CheckAvailability ejecuta "<binario> --version". Si el compilador no está
// disponible devuelve un *domain.GenerationError RESOURCE_MISSING junto al estado.
func (c *Compiler) CheckAvailability(ctx context.Context) (entity.SystemStatus, error) {
	status := entity.SystemStatus{Binary: c.cfg.Binary, OS: currentOS()}

	path, err := resolveBinaryPath(c.cfg.Binary)
	if err != nil {
		status.Instructions = InstallInstructions(status.OS)
		ge := domain.NewGenerationError(domain.KindResourceMissing,
			fmt.Sprintf("%s no está instalado o no está en el PATH", c.cfg.Binary), err)
		ge.Resources = []string{c.cfg.Binary}
		ge.Suggestions = status.Instructions
		return status, ge
	}
	status.Path = path

	ctx, cancel := context.WithTimeout(ctx, versionCheckTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, path, "--version")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		status.Instructions = InstallInstructions(status.OS)
		ge := domain.NewGenerationError(domain.KindResourceMissing,
			fmt.Sprintf("%s no responde correctamente", c.cfg.Binary), err)
		ge.Resources = []string{c.cfg.Binary}
		ge.Suggestions = status.Instructions
		return status, ge
	}

	status.Available = true
	status.Version, _, _ = strings.Cut(strings.TrimSpace(out.String()), "\n")
	c.logger.Debug().Str("binary", path).Str("version", status.Version).Msg("compilador LaTeX disponible")
	return status, nil
}
