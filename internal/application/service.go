package application

import (
	"time"

	"github.com/splitcrew/splitcrew/internal/ports"
)

// Config carries the tunables the use-case layer needs.
// Everything else stays in bootstrap.
type Config struct {
	TokenTTL             time.Duration
	SessionTTL           time.Duration
	FailedLoginThreshold int
	LockoutDuration      time.Duration
}

type Service struct {
	cfg         Config
	users       ports.UserRepository
	sessions    ports.SessionRepository
	expenses    ports.ExpenseRepository
	lockouts    ports.LockoutStore
	revocations ports.SessionRevocationStore
	hasher      ports.PasswordHasher
	tokenSigner ports.TokenSigner
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Users       ports.UserRepository
	Sessions    ports.SessionRepository
	Expenses    ports.ExpenseRepository
	Lockouts    ports.LockoutStore
	Revocations ports.SessionRevocationStore
	Hasher      ports.PasswordHasher
	TokenSigner ports.TokenSigner
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:         deps.Config,
		users:       deps.Users,
		sessions:    deps.Sessions,
		expenses:    deps.Expenses,
		lockouts:    deps.Lockouts,
		revocations: deps.Revocations,
		hasher:      deps.Hasher,
		tokenSigner: deps.TokenSigner,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}
