package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/shared"
)

// Fallback messages when the API does not say why auth failed.
const (
	RegistrationFailed = "Registration failed"
	LoginFailed        = "Login failed"
)

// AuthGateway wraps the register and login endpoints.
//
// It never touches the session; callers store the returned token themselves.
type AuthGateway struct {
	api *APIService
}

// NewAuthGateway creates an [AuthGateway] on top of api.
func NewAuthGateway(api *APIService) *AuthGateway {
	return &AuthGateway{api: api}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns its {user, token}.
func (g *AuthGateway) Register(ctx context.Context, username, email, password string) (*models.AuthResult, error) {
	var result models.AuthResult
	err := g.api.Do(ctx, http.MethodPost, "/auth/register", registerRequest{Username: username, Email: email, Password: password}, &result)
	if err != nil {
		return nil, authError(err, RegistrationFailed)
	}
	return &result, nil
}

// Login exchanges credentials for {user, token}.
func (g *AuthGateway) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	var result models.AuthResult
	err := g.api.Do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &result)
	if err != nil {
		return nil, authError(err, LoginFailed)
	}
	return &result, nil
}

// authError reclassifies any failure as [shared.ErrAuth], keeping the server's message or
// falling back to a generic one. The original failure stays reachable through errors.Is.
func authError(err error, fallback string) error {
	re := &shared.RemoteError{Kind: shared.ErrAuth, Message: shared.DisplayMessage(err, fallback), Err: err}

	var cause *shared.RemoteError
	if errors.As(err, &cause) {
		re.Status = cause.Status
	}
	return re
}
