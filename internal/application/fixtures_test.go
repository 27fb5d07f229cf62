package application_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/splitcrew/splitcrew/internal/application"
	"github.com/splitcrew/splitcrew/internal/domain"
	"github.com/splitcrew/splitcrew/internal/ports"
)

type fixture struct {
	service     *application.Service
	users       *fakeUsers
	sessions    *fakeSessions
	expenses    *fakeExpenses
	lockouts    *fakeLockouts
	revocations *fakeRevocations
	signer      *fakeSigner
}

func defaultTestConfig() application.Config {
	return application.Config{
		TokenTTL:             24 * time.Hour,
		SessionTTL:           30 * 24 * time.Hour,
		FailedLoginThreshold: 5,
		LockoutDuration:      30 * time.Minute,
	}
}

func newFixture() *fixture {
	users := &fakeUsers{
		byUsername: make(map[string]domain.User),
		byID:       make(map[uuid.UUID]domain.User),
	}
	sessions := &fakeSessions{byID: make(map[uuid.UUID]domain.Session)}
	expenses := &fakeExpenses{byID: make(map[uuid.UUID]domain.Expense)}
	lockouts := &fakeLockouts{state: map[string]ports.LockoutState{}}
	revocations := &fakeRevocations{revoked: map[uuid.UUID]bool{}}
	signer := &fakeSigner{tokens: map[string]ports.AuthClaims{}}

	svc := application.NewService(application.Dependencies{
		Config:      defaultTestConfig(),
		Users:       users,
		Sessions:    sessions,
		Expenses:    expenses,
		Lockouts:    lockouts,
		Revocations: revocations,
		Hasher:      &fakeHasher{},
		TokenSigner: signer,
	})

	return &fixture{
		service:     svc,
		users:       users,
		sessions:    sessions,
		expenses:    expenses,
		lockouts:    lockouts,
		revocations: revocations,
		signer:      signer,
	}
}

// registerAndLogin provisions an account and returns its claims and id,
// mirroring what the auth middleware would hand to a handler.
func (f *fixture) registerAndLogin(ctx context.Context, username string) (ports.AuthClaims, uuid.UUID, error) {
	_, err := f.service.Register(ctx, application.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: "SecurePass123!",
	})
	if err != nil {
		return ports.AuthClaims{}, uuid.Nil, err
	}
	loginRes, err := f.service.Login(ctx, application.LoginRequest{
		Username: username,
		Password: "SecurePass123!",
	})
	if err != nil {
		return ports.AuthClaims{}, uuid.Nil, err
	}
	claims, err := f.service.ValidateToken(ctx, loginRes.Token)
	if err != nil {
		return ports.AuthClaims{}, uuid.Nil, err
	}
	return claims, claims.UserID, nil
}

type fakeUsers struct {
	mu         sync.Mutex
	byUsername map[string]domain.User
	byID       map[uuid.UUID]domain.User
}

func (f *fakeUsers) Create(_ context.Context, params ports.CreateUserParams) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byUsername[params.Username]; ok {
		return domain.User{}, domain.ErrConflict
	}
	u := domain.User{
		UserID:       uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		FullName:     params.FullName,
		PasswordHash: params.PasswordHash,
		IsActive:     true,
		CreatedAt:    params.RegisteredAt,
		UpdatedAt:    params.RegisteredAt,
	}
	f.byUsername[u.Username] = u
	f.byID[u.UserID] = u
	return u, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byUsername[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, userID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	loginAt := at
	u.LastLoginAt = &loginAt
	u.UpdatedAt = at
	f.byID[userID] = u
	f.byUsername[u.Username] = u
	return nil
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, userID uuid.UUID, passwordHash string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = at
	f.byID[userID] = u
	f.byUsername[u.Username] = u
	return nil
}

type fakeSessions struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Session
}

func (f *fakeSessions) Create(_ context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := domain.Session{
		SessionID: uuid.New(),
		UserID:    params.UserID,
		IPAddress: params.IPAddress,
		UserAgent: params.UserAgent,
		CreatedAt: params.CreatedAt,
		ExpiresAt: params.ExpiresAt,
	}
	f.byID[s.SessionID] = s
	return s, nil
}

func (f *fakeSessions) GetByID(_ context.Context, sessionID uuid.UUID) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessions) RevokeByID(_ context.Context, sessionID uuid.UUID, revokedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.RevokedAt = &revokedAt
	f.byID[sessionID] = s
	return nil
}

type fakeExpenses struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Expense
}

func copyExpense(e domain.Expense) domain.Expense {
	cp := e
	cp.Debts = make([]domain.Debt, len(e.Debts))
	copy(cp.Debts, e.Debts)
	return cp
}

func (f *fakeExpenses) CreateWithDebts(_ context.Context, expense domain.Expense) (domain.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[expense.ExpenseID]; ok {
		return domain.Expense{}, domain.ErrConflict
	}
	f.byID[expense.ExpenseID] = copyExpense(expense)
	return copyExpense(expense), nil
}

func (f *fakeExpenses) GetByID(_ context.Context, expenseID uuid.UUID) (domain.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[expenseID]
	if !ok {
		return domain.Expense{}, domain.ErrNotFound
	}
	return copyExpense(e), nil
}

func (f *fakeExpenses) List(_ context.Context, filter ports.ExpenseListFilter) ([]domain.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Expense, 0, len(f.byID))
	for _, e := range f.byID {
		if e.IsDeleted {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.Status == nil && filter.ExcludePaid && e.Status == domain.StatusPaid {
			continue
		}
		out = append(out, copyExpense(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out, nil
}

func (f *fakeExpenses) UpdateFields(_ context.Context, expenseID uuid.UUID, patch ports.ExpensePatch, at time.Time) (domain.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[expenseID]
	if !ok {
		return domain.Expense{}, domain.ErrNotFound
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Description != nil {
		e.Description = patch.Description
	}
	if patch.OccurredAt != nil {
		e.OccurredAt = *patch.OccurredAt
	}
	if patch.Status != nil {
		e.Status = *patch.Status
	}
	e.UpdatedAt = at
	f.byID[expenseID] = e
	return copyExpense(e), nil
}

func (f *fakeExpenses) SaveSettlement(_ context.Context, expense domain.Expense, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[expense.ExpenseID]; !ok {
		return domain.ErrNotFound
	}
	stored := copyExpense(expense)
	stored.UpdatedAt = at
	f.byID[expense.ExpenseID] = stored
	return nil
}

func (f *fakeExpenses) SoftDelete(_ context.Context, expenseID uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[expenseID]
	if !ok || e.IsDeleted {
		return false, nil
	}
	e.IsDeleted = true
	e.UpdatedAt = at
	f.byID[expenseID] = e
	return true, nil
}

type fakeLockouts struct {
	mu    sync.Mutex
	state map[string]ports.LockoutState
}

func (f *fakeLockouts) Get(_ context.Context, key string) (ports.LockoutState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state[key], nil
}

func (f *fakeLockouts) RecordFailure(_ context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.state[key]
	st.FailedCount++
	if st.FailedCount >= threshold {
		lockUntil := now.Add(lockoutWindow)
		st.LockedUntil = &lockUntil
	}
	f.state[key] = st
	return st, nil
}

func (f *fakeLockouts) Clear(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.state, key)
	return nil
}

type fakeRevocations struct {
	mu      sync.Mutex
	revoked map[uuid.UUID]bool
}

func (f *fakeRevocations) MarkRevoked(_ context.Context, sessionID uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[sessionID] = true
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, sessionID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[sessionID], nil
}

type fakeHasher struct{}

func (f *fakeHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (f *fakeHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("hash mismatch")
	}
	return nil
}

type fakeSigner struct {
	mu     sync.Mutex
	tokens map[string]ports.AuthClaims
}

func (f *fakeSigner) Sign(claims ports.AuthClaims) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := uuid.NewString()
	f.tokens[token] = claims
	return token, nil
}

func (f *fakeSigner) ParseAndValidate(token string) (ports.AuthClaims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claims, ok := f.tokens[token]
	if !ok {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	return claims, nil
}
