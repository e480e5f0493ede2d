package middleware

import (
	"net/http/httptest"
	"testing"

	"salon-inventory/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appWithRole(role string, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if role != "" {
			c.Locals("user_role", role)
		}
		return c.Next()
	}, guard, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestRequirePrivilegeUsesRoleTable(t *testing.T) {
	cases := []struct {
		role   string
		priv   string
		status int
	}{
		{model.RoleAdmin, model.PrivProcurementApprove, 200},
		{model.RoleOwner, model.PrivProcurementReceive, 200},
		{model.RoleManager, model.PrivProcurementApprove, 403},
		{model.RoleManager, model.PrivInventoryImport, 200},
		{model.RoleStaff, model.PrivInventoryImport, 403},
		{model.RoleStaff, model.PrivInventoryConsume, 200},
		{"", model.PrivCatalogView, 403},
	}
	for _, tc := range cases {
		t.Run(tc.role+" "+tc.priv, func(t *testing.T) {
			resp, err := appWithRole(tc.role, RequirePrivilege(tc.priv)).Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireAnyPrivilege(t *testing.T) {
	guard := RequireAnyPrivilege(model.PrivUserManage, model.PrivInventoryImport)

	resp, err := appWithRole(model.RoleManager, guard).Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = appWithRole(model.RoleStaff, guard).Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestRequireAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	app := fiber.New()
	// A nil service is never reached for these requests.
	app.Get("/", RequireAuth(nil), func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}
