// Package mailerr defines the error kinds surfaced by the service.
package mailerr

import "errors"

// Sentinel errors for the failure classes the service can surface.
// Callers classify failures with errors.Is; wrapped causes stay
// reachable through the chain.
var (
	// ErrConfiguration means a required setting is missing or invalid.
	// It is raised before any connection attempt.
	ErrConfiguration = errors.New("configuration error")

	// ErrAuthentication means the SMTP or IMAP server rejected the
	// configured credentials.
	ErrAuthentication = errors.New("authentication failed")

	// ErrConnection covers network, timeout and TLS failures.
	ErrConnection = errors.New("connection failed")

	// ErrValidation means the caller supplied malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means an email or contact id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrProtocol means the server returned an unexpected response.
	ErrProtocol = errors.New("protocol error")
)

// Code maps an error chain to a stable machine-readable code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "CONFIGURATION_ERROR"
	case errors.Is(err, ErrAuthentication):
		return "AUTHENTICATION_ERROR"
	case errors.Is(err, ErrConnection):
		return "CONNECTION_ERROR"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrProtocol):
		return "PROTOCOL_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
