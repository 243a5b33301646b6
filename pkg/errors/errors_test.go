package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "invalid input", detailsOK: true},
		{code: CodeUnprocessable, status: http.StatusUnprocessableEntity, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeInvalidOTP, status: http.StatusBadRequest, publicMsg: "invalid or expired otp"},
		{code: CodeTokenExpired, status: http.StatusUnauthorized, publicMsg: "token expired"},
		{code: CodeInvalidToken, status: http.StatusBadRequest, publicMsg: "invalid token"},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeTransaction, status: http.StatusInternalServerError, publicMsg: "internal server error"},
		{code: CodeConfiguration, status: http.StatusInternalServerError, publicMsg: "internal server error"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
	if IsClientCode("SOMETHING_UNKNOWN") {
		t.Fatalf("unknown codes must not be treated as client errors")
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeTransaction, cause, "commit")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Message() != "commit" {
		t.Fatalf("unexpected message %q", wrapped.Message())
	}
}

func TestPassthroughKeepsTypedErrors(t *testing.T) {
	typed := New(CodeNotFound, "product not found")
	got := Passthrough(CodeTransaction, fmt.Errorf("ctx: %w", typed), "tx")
	if !IsCode(got, CodeNotFound) {
		t.Fatalf("expected not found to survive, got %v", got)
	}

	plain := Passthrough(CodeTransaction, stdErrors.New("disk full"), "tx")
	if !IsCode(plain, CodeTransaction) {
		t.Fatalf("expected transaction code, got %v", plain)
	}

	if Passthrough(CodeInternal, nil, "noop") != nil {
		t.Fatalf("nil error should stay nil")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestLogFieldsCollectsChain(t *testing.T) {
	err := Wrap(CodeTransaction, stdErrors.New("deadlock"), "commit order")
	fields := LogFields(err)
	if fields["error_code"] != string(CodeTransaction) {
		t.Fatalf("expected code in fields, got %v", fields["error_code"])
	}
	if chain, _ := fields["error_chain"].([]string); len(chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %v", fields["error_chain"])
	}
	if _, ok := fields["pg_code"]; ok {
		t.Fatalf("plain errors carry no pg fields")
	}
}

func TestLogFieldsReadsPostgresDiagnostics(t *testing.T) {
	err := Wrap(CodeConflict, &pgconn.PgError{Code: "23505", ConstraintName: "ux_principals_role_email", TableName: "principals"}, "insert principal")
	fields := LogFields(err)
	if fields["pg_code"] != "23505" || fields["pg_constraint"] != "ux_principals_role_email" {
		t.Fatalf("unexpected pg fields: %v", fields)
	}
	if _, ok := fields["pg_detail"]; ok {
		t.Fatalf("empty detail should be omitted")
	}
}
