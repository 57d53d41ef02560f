package embedding

import (
	"errors"
	"fmt"
)

// ErrService marks failures of the upstream embedding backend, as opposed to
// bad input on our side.
var ErrService = errors.New("embedding service error")

type ServiceError struct {
	Provider string
	Code     int
	Body     string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s embedding error: code %d, body %s", e.Provider, e.Code, e.Body)
}

func (e *ServiceError) Unwrap() error {
	return ErrService
}
