package router_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/request"
	"storefront/internal/router"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingGuard rejects everything unless allow is set, counting calls.
type countingGuard struct {
	allow bool
	calls int
}

func (g *countingGuard) Guard(c *fiber.Ctx) error {
	g.calls++
	if !g.allow {
		return apperr.Auth("Missing Authorization token", nil)
	}
	return nil
}

func echo(name string) router.Handler {
	return func(c *fiber.Ctx, req request.Parsed) error {
		return c.JSON(fiber.Map{"handler": name, "id": req.ID(), "q": req.Query["q"]})
	}
}

func setup(guard *countingGuard) *fiber.App {
	r := router.New("/api", guard)
	r.Get("/", router.Public, echo("root"))
	r.Get("/products", router.Public, echo("list"))
	r.Post("/products", router.Admin, echo("create"))
	r.Get("/products/:id", router.Public, echo("get"))
	r.Delete("/products/:id", router.Admin, echo("delete"))
	r.Patch("/products/:id/soldout", router.Admin, echo("soldout"))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperr.Status(err)).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use("/api", r.Dispatch)
	return app
}

func do(t *testing.T, app *fiber.App, method, target string) (int, map[string]any, http.Header) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil), -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return resp.StatusCode, body, resp.Header
}

func TestRouter_Dispatch(t *testing.T) {
	guard := &countingGuard{allow: true}
	app := setup(guard)

	cases := []struct {
		method, target string
		handler, id    string
	}{
		{"GET", "/api", "root", ""},
		{"GET", "/api/", "root", ""},
		{"GET", "/api/products", "list", ""},
		{"GET", "/api/products/", "list", ""},
		{"POST", "/api/products", "create", ""},
		{"GET", "/api/products/p1", "get", "p1"},
		{"DELETE", "/api/products/p1", "delete", "p1"},
		{"PATCH", "/api/products/p1/soldout", "soldout", "p1"},
	}
	for _, tc := range cases {
		status, body, _ := do(t, app, tc.method, tc.target)
		assert.Equal(t, 200, status, "%s %s", tc.method, tc.target)
		assert.Equal(t, tc.handler, body["handler"], "%s %s", tc.method, tc.target)
		assert.Equal(t, tc.id, body["id"], "%s %s", tc.method, tc.target)
	}
	assert.Equal(t, 3, guard.calls)
}

func TestRouter_QueryLastWins(t *testing.T) {
	app := setup(&countingGuard{})
	_, body, _ := do(t, app, "GET", "/api/products?q=a&q=b")
	assert.Equal(t, "b", body["q"])
}

func TestRouter_NotFound(t *testing.T) {
	app := setup(&countingGuard{})
	for _, target := range []string{"/api/unknown", "/api/products/p1/images", "/api/products/p1/soldout/extra", "/api/unknown/x"} {
		status, body, _ := do(t, app, "GET", target)
		assert.Equal(t, 404, status, target)
		assert.Equal(t, "Not Found", body["error"], target)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	app := setup(&countingGuard{})

	status, body, header := do(t, app, "PUT", "/api/products")
	assert.Equal(t, 405, status)
	assert.Equal(t, "Method Not Allowed", body["error"])
	assert.Equal(t, "GET, OPTIONS, POST", header.Get("Allow"))

	status, _, header = do(t, app, "GET", "/api/products/p1/soldout")
	assert.Equal(t, 405, status)
	assert.Equal(t, "OPTIONS, PATCH", header.Get("Allow"))
}

func TestRouter_Options(t *testing.T) {
	guard := &countingGuard{}
	app := setup(guard)

	for _, target := range []string{"/api/products", "/api/products/p1/soldout", "/api/nowhere/at/all/really"} {
		status, body, _ := do(t, app, "OPTIONS", target)
		assert.Equal(t, 204, status, target)
		assert.Nil(t, body, target)
	}
	assert.Zero(t, guard.calls)
}

func TestRouter_AdminRoutesAreGuarded(t *testing.T) {
	guard := &countingGuard{}
	app := setup(guard)

	status, body, _ := do(t, app, "DELETE", "/api/products/p1")
	assert.Equal(t, 401, status)
	assert.Equal(t, "Missing Authorization token", body["error"])
	assert.Equal(t, 1, guard.calls)

	// Public routes never consult the guard.
	status, _, _ = do(t, app, "GET", "/api/products/p1")
	assert.Equal(t, 200, status)
	assert.Equal(t, 1, guard.calls)
}

func TestRouter_InvalidPatternPanics(t *testing.T) {
	r := router.New("/api", &countingGuard{})
	assert.Panics(t, func() { r.Get("/products/id/x", router.Public, echo("bad")) })
	assert.Panics(t, func() { r.Get("/a/:id/b/c", router.Public, echo("bad")) })
}
