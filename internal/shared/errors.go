package shared

import "errors"

var (
	// ErrNotSignedIn indicates the request has no upstream credentials.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
