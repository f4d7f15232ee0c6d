package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
)

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("list media: %w", Wrap(context.DeadlineExceeded, "request failed"))

	if got := CodeOf(err); got != ALBUM_GATEWAY {
		t.Errorf("CodeOf() = %v, want %v", got, ALBUM_GATEWAY)
	}
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Error("wrapped cause is not reachable through errors.Is")
	}
	if got := MessageOf(err); got != "request failed" {
		t.Errorf("MessageOf() = %q, want %q", got, "request failed")
	}
}

func TestValidationHelpers(t *testing.T) {
	err := Validation("tag name must not be blank")
	if !IsValidation(err) {
		t.Error("IsValidation() = false, want true")
	}
	if IsNotFound(err) {
		t.Error("IsNotFound() = true, want false")
	}
	if IsValidation(nil) {
		t.Error("IsValidation(nil) = true, want false")
	}
	if got := CodeOf(stderrors.New("plain")); got != ALBUM_INTERNAL {
		t.Errorf("CodeOf(plain) = %v, want %v", got, ALBUM_INTERNAL)
	}
}
