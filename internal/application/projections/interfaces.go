package projections

import (
	"context"

	studentStore "dtcteamcrm/internal/adapters/storage/student"
	userStore "dtcteamcrm/internal/adapters/storage/user"
	domainStudent "dtcteamcrm/internal/domain/student"
	domainUser "dtcteamcrm/internal/domain/user"
)

// StudentStore interface for student queries.
type StudentStore interface {
	GetByID(ctx context.Context, id string) (domainStudent.Student, error)
	List(ctx context.Context, filter studentStore.ListFilter) ([]domainStudent.Student, error)
	Count(ctx context.Context, filter studentStore.ListFilter) (int, error)
}

// UserStore interface for user queries.
type UserStore interface {
	GetByID(ctx context.Context, id string) (domainUser.User, error)
	List(ctx context.Context, filter userStore.ListFilter) ([]domainUser.User, error)
}
