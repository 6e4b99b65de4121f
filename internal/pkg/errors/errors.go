package errors

import (
	"errors"
	"net/http"
)

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken используется, когда токен (например, refresh) истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict используется для конфликтов состояния (например, попытка запланировать уже запущенную викторину).
	ErrConflict = errors.New("resource state conflict")

	// ErrRateLimited surfaces a breached rate-limit window.
	ErrRateLimited = errors.New("rate limited")

	// ErrUpstreamFailure marks an oracle/remote-provider failure. The oracle
	// recovers from remote failures locally (fallback pool) and does not
	// return it; Registry.CreateRoom returns it only when a full deck still
	// cannot be built, and StatusCode then maps it to 500.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrTransientSocket marks a dropped peer connection. The room
	// continues; this is logged, never surfaced to a client.
	ErrTransientSocket = errors.New("transient socket error")
)

// StatusCode maps a domain error to the HTTP status it should produce,
// per SPEC_FULL.md §7's propagation policy. Errors are checked with
// errors.Is so wrapped instances still resolve correctly.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
