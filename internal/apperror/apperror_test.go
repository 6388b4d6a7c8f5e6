package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds(t *testing.T) {
	tests := map[string]struct {
		err  *AppError
		kind error
	}{
		"not found":    {NotFound("Snippet not found."), ErrNotFound},
		"validation":   {ValidationFailed("title", "title is required"), ErrValidation},
		"conflict":     {Conflict("username", "username already taken"), ErrConflict},
		"forbidden":    {Forbidden("Unauthorized to delete this snippet."), ErrForbidden},
		"unauthorized": {Unauthorized("Invalid token"), ErrUnauthorized},
	}

	all := []error{ErrNotFound, ErrValidation, ErrConflict, ErrForbidden, ErrUnauthorized}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tc.err)

			for _, other := range all {
				assert.Equal(t, other == tc.kind, errors.Is(wrapped, other), "errors.Is(%v)", other)
			}
			assert.Equal(t, tc.kind, Kind(wrapped))
		})
	}
}

func TestMessageIsVerbatim(t *testing.T) {
	assert.Equal(t, "Snippet not found.", NotFound("Snippet not found.").Error())
	assert.Equal(t, "Unauthorized to update this snippet.", Forbidden("Unauthorized to update this snippet.").Error())
}

func TestKind_PlainError(t *testing.T) {
	assert.Nil(t, Kind(errors.New("disk full")))
	assert.Nil(t, Kind(nil))
}

func TestAsExtractsField(t *testing.T) {
	err := fmt.Errorf("service: %w", Conflict("email", "email already registered"))

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "email", appErr.Field)
	assert.Equal(t, "email already registered", appErr.Message)
}
