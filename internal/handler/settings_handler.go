package handler

import (
	"bytes"
	"encoding/json"

	"salon-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	service service.SettingsService
}

func NewSettingsHandler(s service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: s}
}

// GET /api/v1/settings
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.service.GetSettings(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settings)
}

// UpdateSettings merges a partial document; unknown keys are rejected
// PUT /api/v1/settings
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var patch service.SettingsPatch
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		return badRequest(c, "Invalid settings: "+err.Error())
	}

	settings, err := h.service.UpdateSettings(c.UserContext(), actorFrom(c), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Settings updated", "data": settings})
}
