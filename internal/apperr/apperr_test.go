package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/nightcity/redsheet/internal/apperr"
)

func TestIsMatchesByCode(t *testing.T) {
	err := apperr.New(apperr.CodeInviteInvalid, "code ABC123 expired")
	wrapped := fmt.Errorf("joining campaign: %w", err)

	if !errors.Is(wrapped, apperr.ErrInviteInvalid) {
		t.Error("errors.Is(wrapped, ErrInviteInvalid) = false, want true")
	}
	if errors.Is(wrapped, apperr.ErrAlreadyMember) {
		t.Error("errors.Is(wrapped, ErrAlreadyMember) = true, want false")
	}
}

func TestUnwrapCause(t *testing.T) {
	cause := errors.New("disk full")
	err := apperr.Wrap(apperr.CodeConcurrentModification, "saving character", cause)

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if got, want := err.Error(), "saving character: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code apperr.Code
		want int
	}{
		{apperr.CodeNotFound, http.StatusNotFound},
		{apperr.CodeForbidden, http.StatusForbidden},
		{apperr.CodeNotCharacterOwner, http.StatusForbidden},
		{apperr.CodeInsufficientLuck, http.StatusBadRequest},
		{apperr.CodeInviteInvalid, http.StatusBadRequest},
		{apperr.CodeAlreadyLinked, http.StatusBadRequest},
		{apperr.CodeEmailTaken, http.StatusConflict},
		{apperr.CodeInvalidCredentials, http.StatusUnauthorized},
		{apperr.Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if _, ok := apperr.CodeOf(errors.New("plain")); ok {
		t.Error("CodeOf(plain error) reported a code")
	}

	code, ok := apperr.CodeOf(fmt.Errorf("ctx: %w", apperr.ErrForbidden))
	if !ok || code != apperr.CodeForbidden {
		t.Errorf("CodeOf = %q, %v; want %q, true", code, ok, apperr.CodeForbidden)
	}
}
