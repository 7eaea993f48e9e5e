package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Error carries an HTTP status alongside the wrapped cause so handlers can
// convert broker failures into JSON responses at the boundary.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(msg string) error {
	return errors.New(msg)
}

func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// NotFound marks err as a 404-class error.
func NotFound(err error, msg string) error {
	return &Error{Code: http.StatusNotFound, Err: errors.Wrap(err, msg)}
}

// BadRequest marks err as a 400-class error.
func BadRequest(err error, msg string) error {
	return &Error{Code: http.StatusBadRequest, Err: errors.Wrap(err, msg)}
}

// Forbidden marks err as a 403-class error.
func Forbidden(err error, msg string) error {
	return &Error{Code: http.StatusForbidden, Err: errors.Wrap(err, msg)}
}

// BadGateway marks err as a 502-class error.
func BadGateway(err error, msg string) error {
	return &Error{Code: http.StatusBadGateway, Err: errors.Wrap(err, msg)}
}

func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == http.StatusNotFound
}

// Response writes err to the gin context as a one-line JSON error. Typed
// errors keep their status code, everything else is a 500. Raw error chains
// never reach the client beyond the message text.
func Response(ctx *gin.Context, err error) {
	code := http.StatusInternalServerError
	var e *Error
	if errors.As(err, &e) {
		code = e.Code
	}
	ctx.JSON(code, gin.H{"error": err.Error()})
}
