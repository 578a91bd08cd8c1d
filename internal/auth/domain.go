// Package auth signs operators in against the upstream API and keeps the
// issued bearer token in the server-side session.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/shared"
)

var (
	// ErrTokenExpired is returned when the upstream hands out a token that is already expired.
	ErrTokenExpired = fmt.Errorf("%w: issued token already expired", httpx.ErrUpstream)
	// ErrNoRole is returned when the upstream user carries no role.
	ErrNoRole = errors.New("user has no role")
)

// LoginRequest is the JSON body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionView is what the browser learns about its session.
type SessionView struct {
	SignedIn  bool              `json:"signedIn"`
	User      *shared.Principal `json:"user,omitempty"`
	ExpiresAt *time.Time        `json:"expiresAt,omitempty"`
	CSRFToken string            `json:"csrfToken"`
}
