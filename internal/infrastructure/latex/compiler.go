package latex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/peco-resoluciones/internal/domain"
	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
)

const (
	defaultBinary    = "pdflatex"
	defaultTimeout   = 60 * time.Second
	defaultWaitDelay = 2 * time.Second
	draftSuffix      = "-borrador"
)

// DraftName nombre base con el que se compila. El PDF y el .tex definitivos solo
// se reemplazan si la compilación termina bien; si falla, el borrador queda en el
// directorio de salida y es el archivo que citan los diagnósticos.
func DraftName(baseName string) string {
	return baseName + draftSuffix
}

// DefaultResources imágenes que usa el template.
var DefaultResources = []string{"logo.png", "firma.png"}

// DefaultAuxExtensions artefactos de pdflatex que se borran tras compilar.
var DefaultAuxExtensions = []string{".aux", ".log", ".out", ".toc", ".fls", ".fdb_latexmk", ".synctex.gz"}

// Stage etapa de la compilación (para logs).
type Stage string

const (
	StagePreparing  Stage = "preparing"
	StageWriting    Stage = "writing"
	StageInvoking   Stage = "invoking"
	StageSuccess    Stage = "success"
	StageFailed     Stage = "failed"
	StageTimedOut   Stage = "timed_out"
	StageCleaningUp Stage = "cleaning_up"
	StageDone       Stage = "done"
)

// CompilerConfig configuración del orquestador.
type CompilerConfig struct {
	// Binary nombre o ruta del compilador. Vacío: pdflatex en el PATH.
	Binary string
	// Timeout límite de reloj por intento. Cero: 60s.
	Timeout time.Duration
	// Retries reintentos extra, solo ante fallos transitorios.
	Retries int
	// ResourceDir directorio de recursos estáticos (logo.png, firma.png).
	ResourceDir string
	// Resources recursos obligatorios además de los referenciados en el fuente.
	Resources []string
	// AuxExtensions sufijos a borrar al terminar. Nil: DefaultAuxExtensions.
	AuxExtensions []string
	// WaitDelay espera tras matar el proceso antes de cerrar sus pipes.
	WaitDelay time.Duration
	Logger    zerolog.Logger
}

// Compiler orquesta pdflatex: prepara el directorio, escribe el fuente,
// invoca el compilador con timeout y limpia los artefactos auxiliares.
type Compiler struct {
	cfg    CompilerConfig
	logger zerolog.Logger
}

// NewCompiler crea el orquestador aplicando valores por defecto.
// No verifica el binario: eso ocurre en cada Compile (y en CheckAvailability).
func NewCompiler(cfg CompilerConfig) *Compiler {
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.AuxExtensions == nil {
		cfg.AuxExtensions = DefaultAuxExtensions
	}
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = defaultWaitDelay
	}
	return &Compiler{cfg: cfg, logger: cfg.Logger}
}

// Compile compila source en outputDir/baseName.pdf.
//
// Los errores son *domain.GenerationError (RESOURCE_MISSING, COMPILATION_FAILED,
// COMPILATION_TIMEOUT, DIRECTORY_ERROR, FILE_WRITE_ERROR). Un fallo no toca el
// PDF ni el .tex de una ejecución anterior. La limpieza se hace siempre y sus
// problemas se informan como CleanupWarnings, también en el error.
// Dos llamadas concurrentes con el mismo outputDir/baseName deben serializarse
// en el llamador.
func (c *Compiler) Compile(ctx context.Context, source, outputDir, baseName string) (*entity.CompiledDocument, error) {
	start := time.Now()
	log := c.logger.With().Str("base", baseName).Str("dir", outputDir).Logger()

	// ── Preparing ────────────────────────────────────────────────────────────
	log.Debug().Str("stage", string(StagePreparing)).Msg("preparando compilación")
	if err := ensureWritableDir(outputDir); err != nil {
		return nil, err
	}
	if err := c.prepareResources(source, outputDir); err != nil {
		return nil, err
	}
	binary, err := resolveBinaryPath(c.cfg.Binary)
	if err != nil {
		ge := domain.NewGenerationError(domain.KindResourceMissing,
			fmt.Sprintf("no se encontró el compilador LaTeX %q", c.cfg.Binary), err)
		ge.Resources = []string{c.cfg.Binary}
		ge.Suggestions = InstallInstructions(currentOS())
		return nil, ge
	}

	// ── Writing ──────────────────────────────────────────────────────────────
	texPath := filepath.Join(outputDir, baseName+".tex")
	pdfPath := filepath.Join(outputDir, baseName+".pdf")
	draft := DraftName(baseName)
	draftTex := filepath.Join(outputDir, draft+".tex")
	draftPDF := filepath.Join(outputDir, draft+".pdf")
	log.Debug().Str("stage", string(StageWriting)).Str("tex", draftTex).Msg("escribiendo fuente")
	if err := os.WriteFile(draftTex, []byte(source), 0o644); err != nil {
		return nil, domain.NewGenerationError(domain.KindFileWriteError,
			"no se pudo escribir el archivo .tex", err)
	}
	// un borrador de una ejecución interrumpida no debe contar como resultado
	if err := os.Remove(draftPDF); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, domain.NewGenerationError(domain.KindFileWriteError,
			"no se pudo borrar el PDF de un borrador anterior", err)
	}

	// ── Invoking ─────────────────────────────────────────────────────────────
	var (
		out      invocation
		attempts int
	)
	for attempts = 1; ; attempts++ {
		log.Debug().Str("stage", string(StageInvoking)).Int("attempt", attempts).Msg("invocando compilador")
		out = c.invoke(ctx, binary, outputDir, draft)
		if out.timedOut || out.canceled || out.succeeded(draftPDF) {
			break
		}
		if attempts > c.cfg.Retries || !IsTransient(out.log) {
			break
		}
		log.Warn().Int("attempt", attempts).Msg("fallo transitorio del compilador, reintentando")
	}
	logText := out.log
	if full, err := os.ReadFile(filepath.Join(outputDir, draft+".log")); err == nil && len(full) > 0 {
		logText = string(full)
	}
	succeeded := !out.timedOut && !out.canceled && out.succeeded(draftPDF)

	// ── CleaningUp ───────────────────────────────────────────────────────────
	warnings := cleanupArtifacts(outputDir, draft, c.cfg.AuxExtensions)
	if !succeeded {
		// un PDF parcial del borrador no sirve; el .tex queda para depurar
		if err := os.Remove(draftPDF); err != nil && !errors.Is(err, os.ErrNotExist) {
			warnings = append(warnings, domain.CleanupWarning{File: draftPDF, Err: err})
		}
	}
	for _, w := range warnings {
		log.Warn().Str("stage", string(StageCleaningUp)).Str("file", w.File).Err(w.Err).Msg("limpieza incompleta")
	}

	elapsed := time.Since(start)
	switch {
	case out.timedOut:
		log.Error().Str("stage", string(StageTimedOut)).Dur("timeout", c.cfg.Timeout).Msg("compilación excedió el tiempo límite")
		ge := domain.NewGenerationError(domain.KindCompilationTimeout,
			fmt.Sprintf("la compilación excedió el límite de %s", c.cfg.Timeout), out.err)
		ge.Log = logText
		ge.CleanupWarnings = warnings
		return nil, ge
	case out.canceled:
		log.Warn().Str("stage", string(StageTimedOut)).Msg("compilación cancelada")
		ge := domain.NewGenerationError(domain.KindCompilationTimeout, "la compilación fue cancelada", ctx.Err())
		ge.Log = logText
		ge.CleanupWarnings = warnings
		return nil, ge
	case !succeeded:
		diagnostics := ParseDiagnostics(logText)
		msg := "pdflatex terminó con errores"
		if out.err == nil {
			msg = "pdflatex terminó sin generar el PDF"
		}
		log.Error().Str("stage", string(StageFailed)).Strs("diagnostics", diagnostics).Int("attempts", attempts).Msg(msg)
		ge := domain.NewGenerationError(domain.KindCompilationFailed, msg, out.err)
		ge.Diagnostics = diagnostics
		ge.Log = logText
		ge.CleanupWarnings = warnings
		return nil, ge
	}

	// ── Reemplazo del documento definitivo ───────────────────────────────────
	if err := os.Rename(draftPDF, pdfPath); err != nil {
		ge := domain.NewGenerationError(domain.KindFileWriteError, "no se pudo reemplazar el PDF existente", err)
		ge.CleanupWarnings = warnings
		return nil, ge
	}
	if err := os.Rename(draftTex, texPath); err != nil {
		ge := domain.NewGenerationError(domain.KindFileWriteError, "no se pudo reemplazar el archivo .tex existente", err)
		ge.CleanupWarnings = warnings
		return nil, ge
	}

	log.Info().Str("stage", string(StageDone)).Str("pdf", pdfPath).Dur("duration", elapsed).Int("attempts", attempts).Msg("PDF generado")
	return &entity.CompiledDocument{
		PDFPath:         pdfPath,
		TexPath:         texPath,
		Log:             logText,
		Attempts:        attempts,
		Duration:        elapsed,
		CleanupWarnings: warnings,
	}, nil
}

// invocation resultado de un intento.
type invocation struct {
	log      string
	err      error
	timedOut bool
	canceled bool
}

// succeeded: código de salida 0 y el PDF existe con contenido.
func (i invocation) succeeded(pdfPath string) bool {
	if i.err != nil {
		return false
	}
	st, err := os.Stat(pdfPath)
	return err == nil && !st.IsDir() && st.Size() > 0
}

func (c *Compiler) invoke(parent context.Context, binary, dir, baseName string) invocation {
	ctx, cancel := context.WithTimeout(parent, c.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary,
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-file-line-error",
		"-output-directory", dir,
		baseName+".tex",
	)
	cmd.Dir = dir
	cmd.WaitDelay = c.cfg.WaitDelay
	configureProcessGroup(cmd)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	res := invocation{log: output.String(), err: err}
	if ctxErr := ctx.Err(); ctxErr != nil {
		// el grupo ya recibió la señal vía cmd.Cancel; se repite por si quedó algún hijo
		terminateProcessGroup(cmd)
		if errors.Is(ctxErr, context.DeadlineExceeded) && parent.Err() == nil {
			res.timedOut = true
		} else {
			res.canceled = true
		}
	}
	return res
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.NewGenerationError(domain.KindDirectoryError,
			fmt.Sprintf("no se pudo crear el directorio de salida %s", dir), err)
	}
	probe, err := os.CreateTemp(dir, ".escritura-*")
	if err != nil {
		return domain.NewGenerationError(domain.KindDirectoryError,
			fmt.Sprintf("el directorio de salida %s no admite escritura", dir), err)
	}
	name := probe.Name()
	probe.Close()
	_ = os.Remove(name)
	return nil
}

// resolveBinaryPath ruta absoluta del binario (rutas absolutas se verifican tal cual).
func resolveBinaryPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	return exec.LookPath(path)
}
