package api

import (
	"errors"
	"fmt"
)

// ErrNetworkDisabled is returned by every operation when network access is
// turned off.
var ErrNetworkDisabled = errors.New("network access disabled: functionality that contacts the open internet has been removed in this version of asciinema")

// ConfigError reports that the server URL or install id could not be
// obtained. Its message is the underlying error's message, unchanged.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransportError reports that the server could not be reached at all.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError is a rejection by the server: a non-2xx status with either
// the server-supplied message or a fixed fallback.
type ApplicationError struct {
	StatusCode int
	Message    string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// DecodeError reports a 2xx response whose body did not match the expected
// payload.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
