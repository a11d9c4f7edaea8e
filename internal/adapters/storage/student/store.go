package student

import (
	"context"
	"time"

	domain "dtcteamcrm/internal/domain/student"
)

// Store persists Student state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Student, error)
	Save(ctx context.Context, value domain.Student) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Student, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit   int
	Offset  int
	Status  string
	CoachID string
	Package string
	Search  string
	Sort    string
	Dir     string

	// EndBefore keeps only students whose end date is set and earlier
	// than the given instant. Used by the expiration sweep.
	EndBefore time.Time
}
