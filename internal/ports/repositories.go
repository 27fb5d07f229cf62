package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/splitcrew/splitcrew/internal/domain"
)

// CreateUserParams captures registration inputs after hashing.
// The plain password never crosses this boundary.
type CreateUserParams struct {
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	RegisteredAt time.Time
}

// UserRepository defines persistence operations for account identities.
type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string, at time.Time) error
}

// SessionCreateParams captures metadata required to create a session record.
type SessionCreateParams struct {
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionRepository manages persistent session lifecycle. Revocation writes
// here are mirrored into the cache store for cheap per-request checks.
type SessionRepository interface {
	Create(ctx context.Context, params SessionCreateParams) (domain.Session, error)
	GetByID(ctx context.Context, sessionID uuid.UUID) (domain.Session, error)
	RevokeByID(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time) error
}

// ExpenseListFilter narrows expense listings. Deleted expenses are always
// excluded; ExcludePaid implements the default outstanding-only listing and
// Status wins over it when both are set.
type ExpenseListFilter struct {
	Status      *domain.ExpenseStatus
	ExcludePaid bool
}

// ExpensePatch carries the partial-update fields; nil pointers leave the
// column untouched. Amount and debts are deliberately absent: updates never
// re-split an expense.
type ExpensePatch struct {
	Title       *string
	Description *string
	OccurredAt  *time.Time
	Status      *domain.ExpenseStatus
}

// ExpenseRepository supports the lifecycle manager and the settlement
// engine. CreateWithDebts and SaveSettlement run inside one transaction each
// so expense status and debt rows can never be observed out of step.
type ExpenseRepository interface {
	CreateWithDebts(ctx context.Context, expense domain.Expense) (domain.Expense, error)
	GetByID(ctx context.Context, expenseID uuid.UUID) (domain.Expense, error)
	List(ctx context.Context, filter ExpenseListFilter) ([]domain.Expense, error)
	UpdateFields(ctx context.Context, expenseID uuid.UUID, patch ExpensePatch, at time.Time) (domain.Expense, error)
	SaveSettlement(ctx context.Context, expense domain.Expense, at time.Time) error
	SoftDelete(ctx context.Context, expenseID uuid.UUID, at time.Time) (bool, error)
}
