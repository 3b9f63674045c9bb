package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status and stable code a handler should report.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Resolve returns the status and code carried by err, or fallback values when
// err is not an *Error.
func Resolve(err error, fallbackStatus int, fallbackCode string) (int, string) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		status := e.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, e.Code
	}
	return fallbackStatus, fallbackCode
}
