package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fruitline/fruitline/internal/platform/httpx"
)

// ErrInvalidCredentials is returned when the upstream refuses a login.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", httpx.ErrUnauthorized)

// User is the operator returned by the upstream at login.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult carries the issued token and the operator.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Credentials returns the token with its expiry read from the JWT.
func (r LoginResult) Credentials() Credentials {
	return Credentials{Token: r.Token, ExpiresAt: TokenExpiry(r.Token)}
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	err := c.send(ctx, http.MethodPost, "/auth/login", nil, loginBody{Email: email, Password: password}, &out, false)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) || IsStatus(err, http.StatusBadRequest, http.StatusNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if out.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: login response carried no token", httpx.ErrUpstream)
	}
	return out, nil
}
