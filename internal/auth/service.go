package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/rbac"
	"github.com/fruitline/fruitline/internal/shared"
	"github.com/fruitline/fruitline/internal/upstream"
)

// Authenticator exchanges email and password for upstream credentials.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (upstream.LoginResult, error)
}

// Service wraps authentication business rules.
type Service struct {
	authn Authenticator
	now   func() time.Time
}

// NewService constructs a new Service.
func NewService(authn Authenticator) *Service {
	return &Service{authn: authn, now: time.Now}
}

// Authenticate signs in upstream and returns the operator with its credentials.
func (s *Service) Authenticate(ctx context.Context, req LoginRequest) (shared.Principal, upstream.Credentials, error) {
	ve := shared.NewValidationError()
	if err := shared.ValidateStruct(ve, req); err != nil {
		return shared.Principal{}, upstream.Credentials{}, err
	}
	if err := ve.Err(); err != nil {
		return shared.Principal{}, upstream.Credentials{}, err
	}

	res, err := s.authn.Login(ctx, req.Email, req.Password)
	if err != nil {
		return shared.Principal{}, upstream.Credentials{}, err
	}
	creds := res.Credentials()
	if creds.Expired(s.now()) {
		return shared.Principal{}, upstream.Credentials{}, ErrTokenExpired
	}
	role := rbac.NormalizeRole(res.User.Role)
	if role == "" {
		return shared.Principal{}, upstream.Credentials{}, fmt.Errorf("%w: %v", httpx.ErrForbidden, ErrNoRole)
	}
	name := res.User.Name
	if name == "" {
		name = res.User.Email
	}
	return shared.Principal{UserID: res.User.ID, Name: name, Role: role}, creds, nil
}
