package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"bizmail_server/pkg/apperr"
	"bizmail_server/pkg/logger"
)

func newApp(handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(Recover())
	app.Use(RequestID())
	app.Use(RequestLogger())
	app.Get("/", handler)
	return app
}

func call(t *testing.T, app *fiber.App, path string, header map[string]string) (int, ErrorResponse, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	var body ErrorResponse
	if resp.StatusCode >= 400 {
		if err := json.Unmarshal(data, &body); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
	}
	return resp.StatusCode, body, resp.Header.Get("X-Request-ID")
}

func TestErrorHandlerMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantCause  string
	}{
		{"missing field", apperr.MissingField("subject"), 400, apperr.CodeValidationFailed, apperr.CodeMissingField},
		{"invalid input", apperr.InvalidInput("tone", "bad"), 400, apperr.CodeValidationFailed, apperr.CodeInvalidInput},
		{"bad request kept", apperr.BadRequest("invalid request body"), 400, apperr.CodeBadRequest, ""},
		{"not found", apperr.NotFound("thread"), 404, apperr.CodeNotFound, ""},
		{"gateway timeout", apperr.GatewayTimeout(3, errors.New("slow")), 504, apperr.CodeGatewayTimeout, ""},
		{"gateway unavailable", apperr.GatewayUnavailable(3, errors.New("refused")), 503, apperr.CodeGatewayUnavailable, ""},
		{"config", apperr.ConfigError("llm gateway is not configured"), 500, apperr.CodeConfigError, ""},
		{"fiber error", fiber.ErrMethodNotAllowed, 405, "METHOD_NOT_ALLOWED", ""},
		{"plain error", errors.New("boom"), 500, apperr.CodeInternalError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(func(c *fiber.Ctx) error { return tt.err })

			status, body, _ := call(t, app, "/", nil)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.wantCode)
			}
			if tt.wantCause != "" && body.Error.Details["cause"] != tt.wantCause {
				t.Errorf("cause = %v, want %s", body.Error.Details["cause"], tt.wantCause)
			}
			if body.Success || body.Timestamp == "" || body.RequestID == "" {
				t.Errorf("envelope = %+v", body)
			}
		})
	}
}

func TestErrorHandlerKeepsDetails(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error { return apperr.InvalidInput("length", "must be one of short, medium, long") })

	_, body, _ := call(t, app, "/", nil)
	if body.Error.Details["field"] != "length" {
		t.Errorf("details = %v", body.Error.Details)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	var seen any
	app := newApp(func(c *fiber.Ctx) error {
		seen = c.UserContext().Value(logger.RequestIDKey)
		return c.SendString("ok")
	})

	status, _, header := call(t, app, "/", map[string]string{"X-Request-ID": "req-42"})
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if header != "req-42" {
		t.Errorf("X-Request-ID = %q", header)
	}
	if seen != "req-42" {
		t.Errorf("context request id = %v", seen)
	}

	_, _, generated := call(t, app, "/", nil)
	if generated == "" || generated == "req-42" {
		t.Errorf("generated request id = %q", generated)
	}
}

func TestRecover(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error { panic("nil map") })

	status, body, _ := call(t, app, "/", nil)
	if status != fiber.StatusInternalServerError {
		t.Fatalf("status = %d", status)
	}
	if body.Error.Code != apperr.CodeInternalError {
		t.Errorf("code = %s", body.Error.Code)
	}
}
