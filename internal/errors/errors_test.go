package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := NotFound("election not found")
	if err.Error() != "election not found" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if err.Kind != ErrNotFound {
		t.Errorf("unexpected kind: %v", err.Kind)
	}
}

func TestErrorWithUnderlying(t *testing.T) {
	inner := fmt.Errorf("disk full")
	err := Internal(inner)
	if err.Error() != "internal error: disk full" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !stderrors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err  *Error
		kind Kind
	}{
		{NotFound("x"), ErrNotFound},
		{NotFoundf("x %d", 1), ErrNotFound},
		{Validation("x"), ErrValidation},
		{Validationf("x %d", 1), ErrValidation},
		{Conflict("x"), ErrConflict},
		{Conflictf("x %d", 1), ErrConflict},
		{Forbidden("x"), ErrForbidden},
		{InvalidInput("x"), ErrInvalidInput},
		{InvalidInputf("x %d", 1), ErrInvalidInput},
		{Internalf("x %d", 1), ErrInternal},
	}
	for i, tt := range tests {
		if tt.err.Kind != tt.kind {
			t.Errorf("case %d: kind = %v, want %v", i, tt.err.Kind, tt.kind)
		}
	}
}

func TestWrap(t *testing.T) {
	inner := fmt.Errorf("boom")
	err := Wrap(inner, ErrConflict, "certification conflict")
	if err.Kind != ErrConflict {
		t.Errorf("unexpected kind: %v", err.Kind)
	}
	if stderrors.Unwrap(err) != inner {
		t.Error("expected Unwrap to return the inner error")
	}
}

func TestAsTarget(t *testing.T) {
	var appErr *Error
	var err error = Conflict("busy")
	if !stderrors.As(err, &appErr) {
		t.Fatal("expected errors.As to match *Error")
	}
	if appErr.Kind != ErrConflict {
		t.Errorf("unexpected kind: %v", appErr.Kind)
	}
}
