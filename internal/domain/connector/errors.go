package connector

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderNotFound signals that no descriptor is registered under the
	// requested provider name.
	ErrProviderNotFound = errors.New("connector: provider not found")
	// ErrNotConfigured indicates a registered provider is missing its client
	// id, secret, or redirect URI. Surfaced on first use, never skipped.
	ErrNotConfigured = errors.New("connector: provider not configured")
	// ErrStateMismatch covers expired, replayed, or forged callbacks. The
	// single CSRF defense; always fails closed.
	ErrStateMismatch = errors.New("connector: state mismatch")
	// ErrNotConnected means no credential bundle exists for the key, either
	// because the user never connected or the refresh token was revoked.
	ErrNotConnected = errors.New("connector: not connected")
)

// ProviderError carries an error the provider itself reported on the
// authorization callback. The description is surfaced verbatim to the user;
// it is a user-facing failure, not a server fault.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("connector: provider error %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("connector: provider error %s", e.Code)
}

// ExchangeErrorKind classifies token endpoint failures.
type ExchangeErrorKind string

const (
	// ExchangeNetwork covers transport errors and timeouts; retryable by the
	// user re-initiating the flow.
	ExchangeNetwork ExchangeErrorKind = "network"
	// ExchangeHTTP is a non-2xx status from the token endpoint.
	ExchangeHTTP ExchangeErrorKind = "http"
	// ExchangeProvider is a 2xx body with an embedded error field.
	ExchangeProvider ExchangeErrorKind = "provider"
	// ExchangeMalformed is a 2xx body missing the access token.
	ExchangeMalformed ExchangeErrorKind = "malformed"
)

// ExchangeError is the classified result of a failed token exchange. The raw
// provider body is preserved for diagnostics but never surfaced to callers.
type ExchangeError struct {
	Kind    ExchangeErrorKind
	Code    string
	Message string
	Status  int
	Body    string
	Err     error
}

func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("connector: token exchange failed (%s/%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("connector: token exchange failed (%s): %s", e.Kind, e.Message)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// InvalidGrant reports whether the provider permanently rejected the grant,
// meaning the refresh token is revoked and the connection is gone.
func (e *ExchangeError) InvalidGrant() bool {
	return e.Code == "invalid_grant"
}
