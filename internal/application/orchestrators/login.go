package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"dtcteamcrm/internal/domain/user"
)

// UserStoreForLogin defines the store interface needed by Login.
type UserStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Save(ctx context.Context, u user.User) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	UserStore UserStoreForLogin
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserLocked         = errors.New("user is locked due to too many failed attempts")
)

// ExecuteLogin validates credentials and returns user info for session creation.
// PRE: Valid email and password provided
// POST: Returns user info on success, records failed login on failure
// INVARIANT: User must not be locked
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	now := timeNow()

	u, err := deps.UserStore.GetByEmail(ctx, input.Email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}

	// Check if user is locked
	if u.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", input.Email, "reason", "locked")
		return LoginResult{}, ErrUserLocked
	}

	// Verify password
	if err := u.CheckPassword(input.Password); err != nil {
		u.RecordFailedLogin(now)
		_ = deps.UserStore.Save(ctx, u)
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "wrong_password", "failed_logins", u.FailedLogins)
		return LoginResult{}, ErrInvalidCredentials
	}

	// Successful login resets the failed-attempt counter
	u.ResetFailedLogins()
	_ = deps.UserStore.Save(ctx, u)

	slog.Info("auth_event", "event", "login_success", "email", input.Email, "role", u.Role)

	return LoginResult{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
	}, nil
}
