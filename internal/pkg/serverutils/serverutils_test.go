package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"context-retriever-be/pkg/orchestrator"
	"context-retriever-be/pkg/session"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func newTestApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Use(OptionalJwtMiddleware(testSecret))
	app.Get("/", handler)
	return app
}

func decode(t *testing.T, body io.Reader) Response {
	t.Helper()
	var res Response
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid input", orchestrator.ErrEmptyQuery, fiber.StatusBadRequest},
		{"session down", fmt.Errorf("%w: dial tcp", session.ErrUnavailable), fiber.StatusServiceUnavailable},
		{"validation", &ValidationError{Fields: []FieldError{{Field: "Query", Rule: "required"}}}, fiber.StatusUnprocessableEntity},
		{"fiber error", fiber.ErrNotFound, fiber.StatusNotFound},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			body := decode(t, resp.Body)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Query string `validate:"required"`
	}

	assert.NoError(t, ValidateRequest(req{Query: "hello"}))

	err := ValidateRequest(req{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Query", ve.Fields[0].Field)
	assert.Equal(t, "required", ve.Fields[0].Rule)
}

func TestOptionalJwtMiddleware(t *testing.T) {
	handler := func(c *fiber.Ctx) error {
		return c.SendString(ResolveUserID(c, c.Query("user_id"), "default_user"))
	}

	t.Run("no token falls back", func(t *testing.T) {
		app := newTestApp(handler)
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "default_user", string(body))
	})

	t.Run("explicit user without token", func(t *testing.T) {
		app := newTestApp(handler)
		resp, err := app.Test(httptest.NewRequest("GET", "/?user_id=bob", nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "bob", string(body))
	})

	t.Run("token claim wins", func(t *testing.T) {
		app := newTestApp(handler)
		req := httptest.NewRequest("GET", "/?user_id=bob", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"user_id": "alice"}))
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "alice", string(body))
	})

	t.Run("bad token rejected", func(t *testing.T) {
		app := newTestApp(handler)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
