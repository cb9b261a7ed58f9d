// Package shared holds the cross-cutting HTTP state used by every handler:
// the browser cookie session, flash messages and CSRF protection.
package shared

import "errors"

var (
	// ErrInvalidCredentials indicates an email/password pair that matched no identity.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrBrowserMissing means no browser session was attached to the request.
	ErrBrowserMissing = errors.New("browser session missing")
	// ErrCSRFTokenMissing occurs when the CSRF token is absent.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
