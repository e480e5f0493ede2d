package middleware

import (
	"strings"

	"salon-inventory/internal/model"
	"salon-inventory/internal/service"
	"salon-inventory/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth is middleware that validates JWT token and sets user info in context
func RequireAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token", "code": apperror.CodeUnauthorized})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>", "code": apperror.CodeUnauthorized})
		}

		// Validate token and the single-session version against the store
		user, err := authService.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			msg := "Invalid or expired token"
			if typed := apperror.As(err); typed != nil && typed.Code() == apperror.CodeUnauthorized {
				msg = typed.Message()
			}
			return c.Status(401).JSON(fiber.Map{"error": msg, "code": apperror.CodeUnauthorized})
		}

		// Set user info in context for downstream handlers
		c.Locals("user_id", user.ID.String())
		c.Locals("user_email", user.Email)
		c.Locals("user_name", user.FullName)
		c.Locals("user_role", user.Role)

		return c.Next()
	}
}

func roleOf(c *fiber.Ctx) string {
	role, _ := c.Locals("user_role").(string)
	return role
}

// RequirePrivilege checks the caller's role against model.RolePrivileges
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if model.RoleHasPrivilege(roleOf(c), requiredPrivilege) {
			return c.Next()
		}
		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
			"code":  apperror.CodeForbidden,
		})
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := roleOf(c)
		for _, p := range requiredPrivileges {
			if model.RoleHasPrivilege(role, p) {
				return c.Next()
			}
		}
		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(requiredPrivileges, ", ") + " privileges",
			"code":  apperror.CodeForbidden,
		})
	}
}
