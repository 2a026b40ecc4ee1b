package errors

import (
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Domain sentinels. Services return these; the HTTP layer maps them to
// status codes, and the consumer loop uses them to classify failures.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrLikeExists          = errors.New("like already exists")
	ErrSelfLike            = errors.New("cannot like yourself")
	ErrMatchExists         = errors.New("match already exists")
	ErrProfileNotCompleted = errors.New("profile is not completed")
	ErrInvalidTelegramData = errors.New("invalid telegram auth data")
	ErrInvalidToken        = errors.New("token is not valid")
	ErrMalformedEvent      = errors.New("malformed event payload")
	ErrNotFound            = errors.New("not found")
)

// HTTPStatus maps domain and infra errors to HTTP status codes.
// Centralized here so handlers stay free of error-type switches.
func HTTPStatus(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrLikeExists):
		return http.StatusConflict, ErrLikeExists.Error()
	case errors.Is(err, ErrMatchExists):
		return http.StatusConflict, ErrMatchExists.Error()
	case errors.Is(err, ErrSelfLike):
		return http.StatusBadRequest, ErrSelfLike.Error()
	case errors.Is(err, ErrProfileNotCompleted):
		return http.StatusBadRequest, ErrProfileNotCompleted.Error()
	case errors.Is(err, ErrInvalidTelegramData):
		return http.StatusBadRequest, ErrInvalidTelegramData.Error()
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized, ErrInvalidToken.Error()
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, ErrUserNotFound.Error()
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, ErrNotFound.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// IsDuplicate reports whether err is a relational uniqueness violation.
// The store constraint is the concurrency arbiter for likes and matches,
// so callers treat this as a signal, not a failure.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
