package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/peco-resoluciones/internal/bootstrap"
	httpRouter "github.com/jhoicas/peco-resoluciones/internal/interfaces/http"
	"github.com/jhoicas/peco-resoluciones/pkg/config"
	"github.com/jhoicas/peco-resoluciones/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	wiring, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicialización")
	}
	defer wiring.Close()

	// El servidor arranca aunque falte pdflatex; /api/sistema/validar lo informa.
	if status, err := wiring.Compiler.CheckAvailability(ctx); err != nil {
		log.Warn().Err(err).Strs("instrucciones", status.Instructions).Msg("compilador LaTeX no disponible")
	} else {
		log.Info().Str("version", status.Version).Msg("compilador LaTeX disponible")
	}

	// La compilación puede tardar hasta Timeout por intento.
	writeTimeout := cfg.LaTeX.Timeout*time.Duration(cfg.LaTeX.Retries+1) + 10*time.Second

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: writeTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.With().Str("component", "http").Logger()))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ResolutionUC: wiring.UseCase,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
