package domain

import (
	"errors"
	"fmt"
)

// ErrTransportAbort marks a stream that ended because the client went away.
// It is a normal outcome, not a failure.
var ErrTransportAbort = errors.New("client disconnected")

// ConfigError is returned before any provider call when a required setting
// is missing.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Setting)
}

// ProviderError wraps a failure of the remote model call or stream.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ValidationError is a malformed chat request. It never reaches the gateway.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
