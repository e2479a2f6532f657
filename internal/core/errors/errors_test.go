package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "root not found")
		if err.Error() != "[NOT_FOUND] root not found" {
			t.Errorf("expected [NOT_FOUND] root not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("permission denied")
		err := Wrap(original, CodeIO, "read failed")
		expected := "[IO_ERROR] read failed: permission denied"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to the original")
		}
	})

	t.Run("ContextIsSorted", func(t *testing.T) {
		err := AddContext(New(CodeAborted, "interrupted"), CtxPhase, "extract")
		err = AddContext(err, CtxPath, "A.java")
		expected := "[ABORTED] interrupted (path=A.java phase=extract)"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("CodeOfForeignError", func(t *testing.T) {
		if got := CodeOf(fmt.Errorf("plain")); got != CodeInternal {
			t.Errorf("expected INTERNAL_ERROR, got %s", got)
		}
		if got := CodeOf(fmt.Errorf("outer: %w", New(CodeNoInput, "empty"))); got != CodeNoInput {
			t.Errorf("expected NO_INPUT, got %s", got)
		}
	})
}
