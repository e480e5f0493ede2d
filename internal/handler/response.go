package handler

import (
	"errors"

	"salon-inventory/internal/middleware"
	"salon-inventory/internal/service"
	"salon-inventory/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError maps a service error onto its HTTP status and a JSON body.
// Internal causes are logged, never returned.
func respondError(c *fiber.Ctx, err error) error {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := apperror.As(err)
	if typed == nil {
		typed = apperror.Internal(err, "unexpected error")
	}
	meta := apperror.MetadataFor(typed.Code())

	msg := typed.Message()
	if typed.Code() == apperror.CodeInternal || msg == "" {
		msg = meta.PublicMessage
	}
	body := fiber.Map{"error": msg, "code": typed.Code()}
	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			body["details"] = details
		}
	}

	log := middleware.Logger(c)
	if meta.HTTPStatus >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("code", string(typed.Code())).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("code", string(typed.Code())).Msg("request rejected")
	}
	return c.Status(meta.HTTPStatus).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(400).JSON(fiber.Map{"error": msg, "code": apperror.CodeValidation})
}

// Helper untuk ambil User Info dari JWT Context (set by auth middleware)
func actorFrom(c *fiber.Ctx) service.Actor {
	actor := service.SystemActor
	if id, ok := c.Locals("user_id").(string); ok {
		actor.ID = id
	}
	if name, ok := c.Locals("user_name").(string); ok {
		actor.Name = name
	}
	if email, ok := c.Locals("user_email").(string); ok {
		actor.Email = email
	}
	if role, ok := c.Locals("user_role").(string); ok {
		actor.Role = role
	}
	return actor
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
