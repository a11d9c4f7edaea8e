package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"dtcteamcrm/internal/domain/user"

	"github.com/google/uuid"
)

// SeedUsersDeps holds stores needed for user seeding.
type SeedUsersDeps struct {
	UserStore seedUserStore
}

type seedUserStore interface {
	Save(ctx context.Context, u user.User) error
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// SeedOwnerInput carries the bootstrap owner credentials, usually taken
// from the environment on first start.
type SeedOwnerInput struct {
	Name     string
	Email    string
	Password string
}

// ExecuteSeedOwner creates the owner user if it does not already exist.
// It is idempotent and skips when the email is already registered.
// PRE: Database schema exists.
// POST: An OWNER user with the given email exists.
func ExecuteSeedOwner(ctx context.Context, input SeedOwnerInput, deps SeedUsersDeps) error {
	if input.Email == "" || input.Password == "" {
		return fmt.Errorf("owner email and password are required for seeding")
	}

	if _, err := deps.UserStore.GetByEmail(ctx, input.Email); err == nil {
		return nil // already exists
	}

	name := input.Name
	if name == "" {
		name = "Owner"
	}

	u := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     input.Email,
		Role:      user.RoleOwner,
		CreatedAt: timeNow(),
	}
	if err := u.SetPassword(input.Password); err != nil {
		return fmt.Errorf("seed owner: set password: %w", err)
	}
	if err := u.Validate(); err != nil {
		return fmt.Errorf("seed owner: %w", err)
	}
	if err := deps.UserStore.Save(ctx, u); err != nil {
		return fmt.Errorf("seed owner: save: %w", err)
	}

	slog.Info("seed_event", "event", "owner_created", "email", input.Email)
	return nil
}

// demoUsers are the fixed development logins, one per non-owner role.
var demoUsers = []struct {
	name  string
	email string
	role  string
}{
	{"Demo Coach", "coach@demo.local", user.RoleCoach},
	{"Demo Renewals", "renewals@demo.local", user.RoleRenewals},
	{"Demo Support", "support@demo.local", user.RoleSupport},
}

// DemoPassword is the shared password for the demo logins.
const DemoPassword = "demo1234"

// ExecuteSeedDemoUsers creates one demo login per non-owner role so every
// permission path can be exercised in development. Idempotent.
func ExecuteSeedDemoUsers(ctx context.Context, deps SeedUsersDeps) error {
	for _, d := range demoUsers {
		if _, err := deps.UserStore.GetByEmail(ctx, d.email); err == nil {
			continue
		}
		u := user.User{
			ID:        uuid.New().String(),
			Name:      d.name,
			Email:     d.email,
			Role:      d.role,
			CreatedAt: timeNow(),
		}
		if err := u.SetPassword(DemoPassword); err != nil {
			return fmt.Errorf("seed demo users: %w", err)
		}
		if err := deps.UserStore.Save(ctx, u); err != nil {
			return fmt.Errorf("seed demo users: save %s: %w", d.email, err)
		}
		slog.Info("seed_event", "event", "demo_user_created", "email", d.email, "role", d.role)
	}
	return nil
}

// CreateUserInput carries input for creating a team member.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// ExecuteCreateUser registers a coach, renewals or support user.
// PRE: Email is not yet registered
// POST: User persisted with a bcrypt password hash
func ExecuteCreateUser(ctx context.Context, input CreateUserInput, deps SeedUsersDeps) (string, error) {
	if _, err := deps.UserStore.GetByEmail(ctx, input.Email); err == nil {
		return "", fmt.Errorf("email already registered: %s", input.Email)
	}

	u := user.User{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Email:     input.Email,
		Role:      input.Role,
		CreatedAt: timeNow(),
	}
	if err := u.SetPassword(input.Password); err != nil {
		return "", err
	}
	if err := u.Validate(); err != nil {
		return "", err
	}
	if err := deps.UserStore.Save(ctx, u); err != nil {
		return "", err
	}

	slog.Info("seed_event", "event", "user_created", "email", input.Email, "role", input.Role)
	return u.ID, nil
}
