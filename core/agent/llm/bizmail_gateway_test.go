package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"bizmail_server/core/port/out"
	"bizmail_server/pkg/apperr"
)

var testMessages = []out.Message{
	{Role: out.RoleSystem, Content: "system prompt"},
	{Role: out.RoleUser, Content: "first"},
	{Role: out.RoleUser, Content: "second"},
}

// newTestGateway points a gateway at srv and records retry delays instead of sleeping.
func newTestGateway(srv *httptest.Server, delays *[]time.Duration) *Gateway {
	g := NewGateway(GatewayConfig{
		APIKey:     "key",
		FolderID:   "folder",
		URL:        srv.URL,
		HTTPClient: srv.Client(),
	})
	g.retry.sleep = func(_ context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	}
	return g
}

func jsonHandler(payload string, calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, payload)
	}
}

func TestGatewayRequestShape(t *testing.T) {
	var got responsesRequest
	var headers http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		io.WriteString(w, `{"output_text": "  Тема: Ответ  "}`)
	}))
	defer srv.Close()

	text, err := newTestGateway(srv, nil).Complete(context.Background(), testMessages, 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Тема: Ответ" {
		t.Errorf("expected trimmed output_text, got %q", text)
	}

	if got.Model != "gpt://folder/yandexgpt/latest" {
		t.Errorf("unexpected model uri %q", got.Model)
	}
	if got.Instructions != "system prompt" {
		t.Errorf("unexpected instructions %q", got.Instructions)
	}
	if got.Input != "first\n\nsecond" {
		t.Errorf("unexpected input %q", got.Input)
	}
	if headers.Get("Authorization") != "Api-Key key" || headers.Get("x-folder-id") != "folder" {
		t.Errorf("unexpected headers %v", headers)
	}
}

func TestGatewayDefaultInstructions(t *testing.T) {
	g := NewGateway(GatewayConfig{FolderID: "f"})
	req := g.buildRequest([]out.Message{{Role: out.RoleUser, Content: "x"}}, 0.3)
	if req.Instructions != defaultInstructions {
		t.Errorf("expected default instructions, got %q", req.Instructions)
	}
}

func TestGatewayResponseShapes(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
		wantCode string
		wantKind string
	}{
		{
			name:     "output list",
			payload:  `{"output": [{"content": [{"text": "Тема: A"}, {"text": "Тело: B"}]}, {"role": "x"}]}`,
			expected: "Тема: A\nТело: B",
		},
		{
			name:     "top-level text",
			payload:  `{"text": " ответ "}`,
			expected: "ответ",
		},
		{
			name:     "output_text wins over output",
			payload:  `{"output_text": "first", "output": [{"content": [{"text": "second"}]}]}`,
			expected: "first",
		},
		{
			name:     "empty payload",
			payload:  `{"id": "resp-1"}`,
			wantCode: apperr.CodeMalformedResponse,
			wantKind: apperr.KindEmptyResponse,
		},
		{
			name:     "not json",
			payload:  `<html>`,
			wantCode: apperr.CodeMalformedResponse,
			wantKind: apperr.KindEmptyResponse,
		},
		{
			name:     "model unavailable",
			payload:  `{"status": "failed", "error": {"code": "x", "message": "Failed to get model yandexgpt"}}`,
			wantCode: apperr.CodeModelUnavailable,
			wantKind: apperr.KindModelUnavailable,
		},
		{
			name:     "model call error code",
			payload:  `{"error": {"code": "model_call_error", "message": "boom"}}`,
			wantCode: apperr.CodeModelUnavailable,
			wantKind: apperr.KindModelUnavailable,
		},
		{
			name:     "provider error",
			payload:  `{"error": {"code": "quota", "message": "quota exceeded"}}`,
			wantCode: apperr.CodeGatewayError,
			wantKind: apperr.KindProviderError,
		},
		{
			name:     "failed status without error object",
			payload:  `{"status": "failed"}`,
			wantCode: apperr.CodeGatewayError,
			wantKind: apperr.KindProviderError,
		},
		{
			name:     "null error is ignored",
			payload:  `{"error": null, "output_text": "ok"}`,
			expected: "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(jsonHandler(tt.payload, &calls))
			defer srv.Close()

			text, err := newTestGateway(srv, nil).CompleteStructured(context.Background(), testMessages, 0.3)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if text != tt.expected {
					t.Errorf("expected %q, got %q", tt.expected, text)
				}
				return
			}

			var appErr *apperr.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.wantCode || appErr.Kind() != tt.wantKind {
				t.Errorf("expected %s/%s, got %s/%s", tt.wantCode, tt.wantKind, appErr.Code, appErr.Kind())
			}
			if calls != 1 {
				t.Errorf("provider errors must not be retried, got %d calls", calls)
			}
		})
	}
}

func TestGatewayHTTPStatusIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestGateway(srv, nil).Complete(context.Background(), testMessages, 0.4)

	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Kind() != apperr.KindHTTPStatus {
		t.Fatalf("expected http_status error, got %v", err)
	}
	if appErr.Details["http_status"] != http.StatusUnauthorized {
		t.Errorf("expected status 401 in details, got %v", appErr.Details["http_status"])
	}
	if !strings.Contains(appErr.Message, "unauthorized") {
		t.Errorf("expected provider body in message, got %q", appErr.Message)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// dropConnection closes the client connection without a response.
func dropConnection(t *testing.T, w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		t.Error("response writer does not support hijacking")
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		t.Errorf("hijack: %v", err)
		return
	}
	conn.Close()
}

func TestGatewayRetriesTransientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			dropConnection(t, w)
			return
		}
		io.WriteString(w, `{"output_text": "готово"}`)
	}))
	defer srv.Close()

	var delays []time.Duration
	text, err := newTestGateway(srv, &delays).Complete(context.Background(), testMessages, 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "готово" {
		t.Errorf("unexpected text %q", text)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) || delays[0] != want[0] || delays[1] != want[1] {
		t.Errorf("expected backoff %v, got %v", want, delays)
	}
}

func TestGatewayExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		dropConnection(t, w)
	}))
	defer srv.Close()

	_, err := newTestGateway(srv, nil).Complete(context.Background(), testMessages, 0.4)

	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperr.CodeGatewayUnavailable {
		t.Errorf("expected %s, got %s", apperr.CodeGatewayUnavailable, appErr.Code)
	}
	if appErr.Details["attempts"] != 3 {
		t.Errorf("expected 3 attempts, got %v", appErr.Details["attempts"])
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestGatewayTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	client := srv.Client()
	client.Timeout = 50 * time.Millisecond

	g := NewGateway(GatewayConfig{URL: srv.URL, HTTPClient: client, MaxAttempts: 2})
	g.retry.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := g.Complete(context.Background(), testMessages, 0.4)

	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperr.CodeGatewayTimeout || appErr.Kind() != apperr.KindTimeout {
		t.Errorf("expected timeout error, got %s/%s", appErr.Code, appErr.Kind())
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "unexpected eof", err: io.ErrUnexpectedEOF, expected: true},
		{name: "deadline", err: context.DeadlineExceeded, expected: true},
		{name: "canceled", err: context.Canceled, expected: false},
		{name: "opaque ssl text", err: errors.New("SSL: UNEXPECTED_EOF_WHILE_READING"), expected: true},
		{name: "opaque connection reset", err: errors.New("read: connection reset by peer"), expected: true},
		{name: "classified", err: apperr.GatewayHTTPStatus(500, "timeout"), expected: false},
		{name: "plain", err: errors.New("invalid argument"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
