// Package apperr описывает виды ошибок, которые видит клиент API.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrDuplicatePulse        = errors.New("duplicate pulse")
	ErrEditWindowClosed      = errors.New("edit window closed")
	ErrConflictingAssignment = errors.New("conflicting assignment")
	ErrValidation            = errors.New("validation error")
)

var kinds = []struct {
	err    error
	kind   string
	status int
}{
	{ErrUnauthenticated, "Unauthenticated", http.StatusUnauthorized},
	{ErrForbidden, "Forbidden", http.StatusForbidden},
	{ErrNotFound, "NotFound", http.StatusNotFound},
	{ErrDuplicatePulse, "DuplicatePulse", http.StatusConflict},
	{ErrEditWindowClosed, "EditWindowClosed", http.StatusConflict},
	{ErrConflictingAssignment, "ConflictingAssignment", http.StatusConflict},
	{ErrValidation, "ValidationError", http.StatusBadRequest},
}

// Kind возвращает имя вида ошибки или "Internal" для всего остального.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}

// Status: HTTP-код ответа для err.
func Status(err error) int {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// Body: тело JSON-ответа с ошибкой. Текст внутренних ошибок наружу не отдаётся.
func Body(err error) map[string]string {
	kind := Kind(err)
	detail := "internal server error"
	if kind != "Internal" {
		detail = err.Error()
	}
	return map[string]string{"error": kind, "detail": detail}
}
