package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/services"
	"github.com/desertthunder/tracklist/internal/shared"
)

// Sessions is the write side of the session store used by the auth flow.
type Sessions interface {
	SetSession(user models.UserSummary, token string)
	ClearSession()
}

// AuthState is a snapshot of the login and register forms.
type AuthState struct {
	Submitting bool
	Error      string
}

// AuthController submits credentials and writes the resulting session.
type AuthController struct {
	mu       sync.Mutex
	auth     services.Authenticator
	sessions Sessions
	logger   *log.Logger
	state    AuthState
}

// NewAuthController creates an AuthController. A nil logger uses the default logger.
func NewAuthController(auth services.Authenticator, sessions Sessions, logger *log.Logger) *AuthController {
	if logger == nil {
		logger = log.Default()
	}
	return &AuthController{auth: auth, sessions: sessions, logger: logger}
}

// State returns the current form state.
func (c *AuthController) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Login authenticates and, on success, replaces the session.
//
// On failure the session is untouched and State().Error holds the server's message or "Login failed".
func (c *AuthController) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		c.fail(MsgCredentialsNeeded)
		return fmt.Errorf("%w: email and password are required", shared.ErrInvalidInput)
	}

	c.begin()
	result, err := c.auth.Login(ctx, email, password)
	return c.finish(result, err, services.LoginFailed)
}

// Register creates an account and signs the user in with the returned token.
func (c *AuthController) Register(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		c.fail(MsgRegisterNeeded)
		return fmt.Errorf("%w: username, email and password are required", shared.ErrInvalidInput)
	}

	c.begin()
	result, err := c.auth.Register(ctx, username, email, password)
	return c.finish(result, err, services.RegistrationFailed)
}

// Logout clears the session and any stale form error.
func (c *AuthController) Logout() {
	c.sessions.ClearSession()

	c.mu.Lock()
	c.state = AuthState{}
	c.mu.Unlock()
}

func (c *AuthController) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = AuthState{Submitting: true}
}

func (c *AuthController) fail(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = AuthState{Error: msg}
}

func (c *AuthController) finish(result *models.AuthResult, err error, fallback string) error {
	if err != nil {
		c.logger.Debug("authentication failed", "err", err)
		c.fail(shared.DisplayMessage(err, fallback))
		return err
	}

	c.sessions.SetSession(result.User, result.Token)
	c.logger.Info("signed in", "user", result.User.Username)

	c.mu.Lock()
	c.state = AuthState{}
	c.mu.Unlock()
	return nil
}
