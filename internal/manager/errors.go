package manager

import (
	"errors"
	"net/http"
)

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ backend string }

func (e tooBusyError) Error() string   { return "too busy: backend " + e.backend }
func (e tooBusyError) StatusCode() int { return http.StatusTooManyRequests }
func (e tooBusyError) Code() string    { return "too_busy" }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var tb tooBusyError
	return errors.As(err, &tb)
}
