package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindAndStatus(t *testing.T) {
	tests := []struct {
		err    error
		kind   string
		status int
	}{
		{fmt.Errorf("%w: no session", ErrUnauthenticated), "Unauthenticated", http.StatusUnauthorized},
		{fmt.Errorf("%w: not your engagement", ErrForbidden), "Forbidden", http.StatusForbidden},
		{fmt.Errorf("%w: engagement eng_1", ErrNotFound), "NotFound", http.StatusNotFound},
		{fmt.Errorf("%w: week of 2026-10-12", ErrDuplicatePulse), "DuplicatePulse", http.StatusConflict},
		{ErrEditWindowClosed, "EditWindowClosed", http.StatusConflict},
		{ErrConflictingAssignment, "ConflictingAssignment", http.StatusConflict},
		{ErrValidation, "ValidationError", http.StatusBadRequest},
		{errors.New("connection refused"), "Internal", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.Equal(t, tt.kind, Kind(tt.err))
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestBody(t *testing.T) {
	body := Body(fmt.Errorf("%w: pulse pulse_1", ErrNotFound))
	assert.Equal(t, "NotFound", body["error"])
	assert.Equal(t, "not found: pulse pulse_1", body["detail"])

	body = Body(errors.New("pq: password authentication failed"))
	assert.Equal(t, "Internal", body["error"])
	assert.Equal(t, "internal server error", body["detail"])
}
