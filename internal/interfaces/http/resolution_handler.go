package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/peco-resoluciones/internal/application/dto"
	appres "github.com/jhoicas/peco-resoluciones/internal/application/resolution"
	"github.com/jhoicas/peco-resoluciones/internal/domain"
	domainres "github.com/jhoicas/peco-resoluciones/internal/domain/resolution"
)

const (
	// maxLogBytes cola del log de pdflatex incluida en la respuesta de error.
	maxLogBytes  = 4000
	maxPageLimit = 100
)

// ResolutionHandler maneja la generación y la configuración de la resolución.
type ResolutionHandler struct {
	uc *appres.GenerateUseCase
}

// NewResolutionHandler construye el handler.
func NewResolutionHandler(uc *appres.GenerateUseCase) *ResolutionHandler {
	return &ResolutionHandler{uc: uc}
}

// Generate genera el PDF. Con cuerpo vacío usa la configuración guardada.
// POST /api/resoluciones/generar
func (h *ResolutionHandler) Generate(c *fiber.Ctx) error {
	var (
		res *appres.Result
		err error
	)
	if body := strings.TrimSpace(string(c.Body())); body == "" {
		res, err = h.uc.GenerateFromStore(c.UserContext())
	} else {
		raw, derr := dto.DecodeRawConfig(c.Body())
		if derr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: derr.Error()})
		}
		res, err = h.uc.Generate(c.UserContext(), raw)
	}
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.Status(fiber.StatusCreated).JSON(toGenerationResponse(res))
}

// GetConfig devuelve la configuración guardada.
// GET /api/resoluciones/config
func (h *ResolutionHandler) GetConfig(c *fiber.Ctx) error {
	raw, err := h.uc.LoadConfig(c.UserContext())
	if err != nil {
		return writeError(c, err, nil)
	}
	return c.JSON(raw)
}

// SaveConfig valida y guarda la configuración.
// PUT /api/resoluciones/config
func (h *ResolutionHandler) SaveConfig(c *fiber.Ctx) error {
	raw, err := dto.DecodeRawConfig(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: err.Error()})
	}
	warnings, err := h.uc.SaveConfig(c.UserContext(), raw)
	if err != nil {
		return writeError(c, err, warnings)
	}
	return c.JSON(fiber.Map{"guardado": true, "advertencias": warnings})
}

// History últimas generaciones.
// GET /api/resoluciones/historial?limit=20&offset=0
func (h *ResolutionHandler) History(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	if page.Limit < 0 || page.Limit > maxPageLimit || page.Offset < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "limit debe estar entre 1 y 100 y offset no puede ser negativo"})
	}
	records, err := h.uc.History(c.UserContext(), page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.GenerationRecordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, dto.FromGenerationRecord(r))
	}
	return c.JSON(out)
}

// SystemStatus informa si pdflatex está disponible.
// GET /api/sistema/validar
func (h *ResolutionHandler) SystemStatus(c *fiber.Ctx) error {
	status, err := h.uc.SystemStatus(c.UserContext())
	resp := dto.FromSystemStatus(status)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

// writeError traduce los errores del pipeline a status y cuerpo HTTP.
func writeError(c *fiber.Ctx, err error, warnings []string) error {
	body := dto.GenerationErrorResponse{
		ErrorResponse: dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()},
		Warnings:      warnings,
		Suggestions:   appres.Suggestions(err),
	}

	var verrs domainres.ValidationErrors
	if errors.As(err, &verrs) {
		body.Code = "VALIDATION"
		body.Message = "configuración inválida"
		for _, e := range verrs {
			body.Errors = append(body.Errors, dto.FieldErrorDTO{Path: e.Path, Message: e.Message})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	}

	var ge *domain.GenerationError
	if errors.As(err, &ge) {
		body.Code = string(ge.Kind)
		body.Message = ge.Message
		body.Diagnostics = ge.Diagnostics
		body.Resources = ge.Resources
		for _, w := range ge.CleanupWarnings {
			body.CleanupWarnings = append(body.CleanupWarnings, w.String())
		}
		status := fiber.StatusInternalServerError
		switch ge.Kind {
		case domain.KindResourceMissing:
			status = fiber.StatusFailedDependency
		case domain.KindCompilationTimeout:
			status = fiber.StatusGatewayTimeout
		case domain.KindCompilationFailed:
			body.Log = ge.ShortLog(maxLogBytes)
		}
		return c.Status(status).JSON(body)
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		body.Code = "NOT_FOUND"
		body.Message = "no hay configuración guardada"
		return c.Status(fiber.StatusNotFound).JSON(body)
	case errors.Is(err, domain.ErrMalformedInput):
		body.Code = "INVALID_BODY"
		return c.Status(fiber.StatusBadRequest).JSON(body)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}

func toGenerationResponse(r *appres.Result) dto.GenerationResponse {
	resp := dto.GenerationResponse{
		RunID:        r.RunID,
		Codigo:       r.Code,
		Titulo:       r.Title,
		PDFPath:      r.PDFPath,
		TexPath:      r.TexPath,
		Subtotal:     r.SubtotalText,
		Total:        r.TotalText,
		Reemplazados: r.Replaced,
		Warnings:     r.Warnings,
		DurationMS:   r.Duration.Milliseconds(),
	}
	for _, w := range r.CleanupWarnings {
		resp.CleanupWarnings = append(resp.CleanupWarnings, w.String())
	}
	return resp
}
