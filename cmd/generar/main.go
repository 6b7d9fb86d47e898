// Comando generar produce la resolución mensual en PDF sin levantar el servidor.
//
//	generar [config_mes.json]
//
// Sin argumento usa RUTA_CONFIG_JSON. Sale con código 1 si la generación falla.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appres "github.com/jhoicas/peco-resoluciones/internal/application/resolution"
	"github.com/jhoicas/peco-resoluciones/internal/bootstrap"
	"github.com/jhoicas/peco-resoluciones/internal/domain"
	domainres "github.com/jhoicas/peco-resoluciones/internal/domain/resolution"
	"github.com/jhoicas/peco-resoluciones/pkg/config"
	"github.com/jhoicas/peco-resoluciones/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		return 1
	}
	if len(os.Args) > 1 {
		cfg.Paths.ConfigJSON = os.Args[1]
	}

	log := logger.New(logger.Config{Env: "development", Level: cfg.App.LogLevel, Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wiring, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer wiring.Close()

	res, err := wiring.UseCase.GenerateFromStore(ctx)
	if err != nil {
		printFailure(err)
		return 1
	}

	fmt.Printf("Resolución %s generada\n", res.Code)
	fmt.Printf("  PDF:   %s\n", res.PDFPath)
	fmt.Printf("  Total: %s\n", res.TotalText)
	for _, p := range res.Replaced {
		fmt.Printf("  reemplazado: %s\n", p)
	}
	for _, w := range res.Warnings {
		fmt.Printf("  advertencia: %s\n", w)
	}
	for _, w := range res.CleanupWarnings {
		fmt.Printf("  limpieza: %s\n", w)
	}
	return 0
}

func printFailure(err error) {
	fmt.Fprintln(os.Stderr, "No se pudo generar la resolución.")

	var verrs domainres.ValidationErrors
	var ge *domain.GenerationError
	switch {
	case errors.As(err, &verrs):
		for _, e := range verrs {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", e.Path, e.Message)
		}
	case errors.As(err, &ge):
		fmt.Fprintf(os.Stderr, "  [%s] %s\n", ge.Kind, ge.Message)
		for _, d := range ge.Diagnostics {
			fmt.Fprintf(os.Stderr, "    %s\n", d)
		}
		for _, r := range ge.Resources {
			fmt.Fprintf(os.Stderr, "    falta: %s\n", r)
		}
		for _, w := range ge.CleanupWarnings {
			fmt.Fprintf(os.Stderr, "    limpieza: %s\n", w)
		}
	default:
		fmt.Fprintf(os.Stderr, "  %v\n", err)
	}

	if s := appres.Suggestions(err); len(s) > 0 {
		fmt.Fprintln(os.Stderr, "Sugerencias:")
		for _, line := range s {
			fmt.Fprintf(os.Stderr, "  - %s\n", line)
		}
	}
}
