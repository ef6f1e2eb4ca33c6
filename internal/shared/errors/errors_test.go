package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kislikjeka/userdir/internal/shared/errors"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{code: apperrors.ErrCodeValidation, want: http.StatusUnprocessableEntity},
		{code: apperrors.ErrCodeNotFound, want: http.StatusNotFound},
		{code: apperrors.ErrCodeConflict, want: http.StatusConflict},
		{code: apperrors.ErrCodeBadRequest, want: http.StatusBadRequest},
		{code: apperrors.ErrCodeDatabaseError, want: http.StatusInternalServerError},
		{code: apperrors.ErrCodeInternal, want: http.StatusInternalServerError},
		{code: "SOMETHING_ELSE", want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.HTTPStatus(tt.code))
		})
	}
}

func TestGetAppError(t *testing.T) {
	cause := errors.New("duplicate key")
	wrapped := fmt.Errorf("seeding: %w", apperrors.Conflict("username taken", cause))

	appErr := apperrors.GetAppError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeConflict, appErr.Code)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "CONFLICT: username taken: duplicate key", appErr.Error())

	assert.Nil(t, apperrors.GetAppError(cause))
	assert.Equal(t, "BAD_REQUEST: invalid request body", apperrors.BadRequest("invalid request body").Error())
}
