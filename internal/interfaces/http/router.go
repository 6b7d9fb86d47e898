package http

import (
	"github.com/gofiber/fiber/v2"

	appres "github.com/jhoicas/peco-resoluciones/internal/application/resolution"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ResolutionUC *appres.GenerateUseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	handler := NewResolutionHandler(deps.ResolutionUC)

	// Resoluciones
	res := api.Group("/resoluciones")
	res.Post("/generar", handler.Generate)
	res.Get("/config", handler.GetConfig)
	res.Put("/config", handler.SaveConfig)
	res.Get("/historial", handler.History)

	// Sistema
	api.Get("/sistema/validar", handler.SystemStatus)
}
