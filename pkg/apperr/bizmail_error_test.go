package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassification(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatus     int
		wantCode       string
		wantValidation bool
		wantGateway    bool
	}{
		{"bad request", BadRequest("invalid request body"), http.StatusBadRequest, CodeBadRequest, true, false},
		{"missing field", MissingField("subject"), http.StatusBadRequest, CodeMissingField, true, false},
		{"wrapped invalid input", fmt.Errorf("handler: %w", InvalidInput("tone", "bad")), http.StatusBadRequest, CodeInvalidInput, true, false},
		{"not found", NotFound("thread"), http.StatusNotFound, CodeNotFound, false, false},
		{"gateway timeout", GatewayTimeout(3, errors.New("slow")), http.StatusGatewayTimeout, CodeGatewayTimeout, false, true},
		{"model unavailable", ModelUnavailable("gpt-x", "no access"), http.StatusBadGateway, CodeModelUnavailable, false, true},
		{"database", DatabaseError("get thread", errors.New("conn reset")), http.StatusInternalServerError, CodeDatabaseError, false, false},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, CodeInternalError, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetHTTPStatus(tt.err); got != tt.wantStatus {
				t.Errorf("GetHTTPStatus() = %d, want %d", got, tt.wantStatus)
			}
			if got := AsAppError(tt.err).Code; got != tt.wantCode {
				t.Errorf("AsAppError().Code = %s, want %s", got, tt.wantCode)
			}
			if got := IsValidation(tt.err); got != tt.wantValidation {
				t.Errorf("IsValidation() = %v, want %v", got, tt.wantValidation)
			}
			if got := IsGateway(tt.err); got != tt.wantGateway {
				t.Errorf("IsGateway() = %v, want %v", got, tt.wantGateway)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := GatewayUnavailable(3, cause)

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through errors.Is")
	}
	if err.Kind() != KindTransport {
		t.Errorf("Kind() = %q, want %q", err.Kind(), KindTransport)
	}
	if NotFound("thread").Kind() != "" {
		t.Error("non-gateway error reported a kind")
	}

	detailed := BadRequest("invalid request body").WithDetail("field", "tone")
	if detailed.Details["field"] != "tone" {
		t.Errorf("details = %v", detailed.Details)
	}
}
