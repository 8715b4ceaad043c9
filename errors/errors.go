package errors

import (
	goerrors "errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Error is an error that carries the HTTP status it should be reported with.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

var (
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrNotFound            = New("not found", http.StatusNotFound)

	// ErrValidation marks a frame or request missing required fields. Never persisted.
	ErrValidation = New("validation error", http.StatusBadRequest)
	// ErrDuplicateKey is absorbed by idempotent inserts and only escapes from lower layers.
	ErrDuplicateKey = New("duplicate key", http.StatusConflict)
	ErrPersistence  = New("persistence error", http.StatusInternalServerError)
	ErrDelivery     = New("delivery error", http.StatusInternalServerError)
	ErrNotification = New("notification error", http.StatusBadGateway)
)

// pgUniqueViolation is the SQLSTATE postgres reports for unique index conflicts.
const pgUniqueViolation = "23505"

// IsDuplicateKey reports whether err is a unique constraint violation, either
// translated by gorm or raw from the postgres driver.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, gorm.ErrDuplicatedKey) || goerrors.Is(err, ErrDuplicateKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// StatusOf returns the HTTP status attached to the first *Error in err's chain.
func StatusOf(err error) int {
	var e *Error
	if goerrors.As(err, &e) {
		return e.Status
	}
	if goerrors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
