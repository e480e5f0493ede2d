package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"salon-inventory/internal/model"
	"salon-inventory/internal/repository"
	"salon-inventory/internal/service"
	"salon-inventory/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestRespondErrorMapsCodes(t *testing.T) {
	app := fiber.New()
	app.Get("/stock", func(c *fiber.Ctx) error {
		return respondError(c, apperror.InsufficientStock(5, 3))
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return respondError(c, apperror.NotFound("unit"))
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return respondError(c, fmt.Errorf("dial tcp: connection refused"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/stock", nil))
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Equal(t, map[string]interface{}{"requested": float64(5), "available": float64(3)}, body["details"])

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "unit not found", decodeBody(t, resp.Body)["error"])

	// Untyped causes never leak.
	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	body = decodeBody(t, resp.Body)
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, body, "details")
}

func settingsApp(t *testing.T) *fiber.App {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	h := NewSettingsHandler(service.NewSettingsService(repository.NewSettingsRepo(db), nil, zerolog.Nop()))
	app := fiber.New()
	app.Get("/settings", h.GetSettings)
	app.Put("/settings", func(c *fiber.Ctx) error {
		c.Locals("user_id", "admin-1")
		c.Locals("user_role", model.RoleAdmin)
		return c.Next()
	}, h.UpdateSettings)
	return app
}

func putJSON(app *fiber.App, path, body string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest("PUT", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		return nil, err
	}
	rec := httptest.NewRecorder()
	rec.Code = resp.StatusCode
	_, err = io.Copy(rec.Body, resp.Body)
	return rec, err
}

func TestUpdateSettingsRejectsUnknownKeys(t *testing.T) {
	app := settingsApp(t)

	rec, err := putJSON(app, "/settings", `{"inventory":{"fifo_mode":false,"bogus":1}}`)
	require.NoError(t, err)
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "bogus")
}

func TestUpdateSettingsKeepsFIFO(t *testing.T) {
	app := settingsApp(t)

	rec, err := putJSON(app, "/settings", `{"inventory":{"fifo_mode":false,"low_stock_threshold":20}}`)
	require.NoError(t, err)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	resp, err := app.Test(httptest.NewRequest("GET", "/settings", nil))
	require.NoError(t, err)
	body := decodeBody(t, resp.Body)
	inventory := body["inventory"].(map[string]interface{})
	assert.Equal(t, true, inventory["fifo_mode"])
	assert.Equal(t, float64(20), inventory["low_stock_threshold"])
}
