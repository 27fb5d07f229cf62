package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	httpadapter "github.com/splitcrew/splitcrew/internal/adapters/http"
	"github.com/splitcrew/splitcrew/internal/application"
	"github.com/splitcrew/splitcrew/internal/domain"
	"github.com/splitcrew/splitcrew/internal/ports"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			TokenTTL:             time.Hour,
			SessionTTL:           24 * time.Hour,
			FailedLoginThreshold: 5,
			LockoutDuration:      time.Minute,
		},
		Users:       &memUsers{byUsername: map[string]domain.User{}, byID: map[uuid.UUID]domain.User{}},
		Sessions:    &memSessions{byID: map[uuid.UUID]domain.Session{}},
		Expenses:    &memExpenses{byID: map[uuid.UUID]domain.Expense{}},
		Lockouts:    &memLockouts{state: map[string]ports.LockoutState{}},
		Revocations: &memRevocations{revoked: map[uuid.UUID]bool{}},
		Hasher:      memHasher{},
		TokenSigner: &memSigner{tokens: map[string]ports.AuthClaims{}},
	})

	srv := httptest.NewServer(httpadapter.NewRouter(httpadapter.NewHandler(svc)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return res, decoded
}

func registerAndLoginHTTP(t *testing.T, baseURL, username string) string {
	t.Helper()

	res, _ := doJSON(t, http.MethodPost, baseURL+"/accounts/v1/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "SecurePass123!",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d", username, res.StatusCode)
	}

	res, body := doJSON(t, http.MethodPost, baseURL+"/accounts/v1/login", "", map[string]any{
		"username": username,
		"password": "SecurePass123!",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", username, res.StatusCode)
	}
	data := body["data"].(map[string]any)
	token, _ := data["access_token"].(string)
	if token == "" {
		t.Fatalf("login %s: empty access token", username)
	}
	return token
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		res, body := doJSON(t, http.MethodGet, srv.URL+path, "", nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, res.StatusCode)
		}
		if body["status"] != "success" {
			t.Fatalf("%s: unexpected body %v", path, body)
		}
	}
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	res, body := doJSON(t, http.MethodGet, srv.URL+"/expenses/v1/", "", nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.StatusCode)
	}
	if body["code"] != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED code, got %v", body["code"])
	}

	res, _ = doJSON(t, http.MethodGet, srv.URL+"/accounts/v1/me", "garbage-token", nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bogus token, got %d", res.StatusCode)
	}
}

func TestExpenseFlowOverHTTP(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	creatorToken := registerAndLoginHTTP(t, srv.URL, "creator")
	payerToken := registerAndLoginHTTP(t, srv.URL, "payer")

	res, body := doJSON(t, http.MethodGet, srv.URL+"/accounts/v1/me", payerToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", res.StatusCode)
	}
	payerID := body["data"].(map[string]any)["user_id"].(string)

	res, body = doJSON(t, http.MethodPost, srv.URL+"/expenses/v1/", creatorToken, map[string]any{
		"title":           "Team dinner",
		"amount":          100,
		"participant_ids": []string{payerID},
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create expense: expected 201, got %d: %v", res.StatusCode, body)
	}
	expense := body["data"].(map[string]any)
	expenseID := expense["expense_id"].(string)
	debts := expense["debts"].([]any)
	if len(debts) != 1 {
		t.Fatalf("expected 1 debt, got %d", len(debts))
	}
	if amount := debts[0].(map[string]any)["amount"].(float64); amount != 50 {
		t.Fatalf("expected split of 50, got %v", amount)
	}

	// Creator holds no debt on this expense, so paying is forbidden.
	res, body = doJSON(t, http.MethodPost, srv.URL+"/expenses/v1/"+expenseID+"/pay", creatorToken, nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("creator pay: expected 403, got %d: %v", res.StatusCode, body)
	}

	res, body = doJSON(t, http.MethodPost, srv.URL+"/expenses/v1/"+expenseID+"/pay", payerToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("pay: expected 200, got %d: %v", res.StatusCode, body)
	}
	settle := body["data"].(map[string]any)
	if settle["status"] != string(domain.StatusPaid) {
		t.Fatalf("expected paid expense, got %v", settle["status"])
	}

	// Paid expenses drop out of the default listing.
	res, body = doJSON(t, http.MethodGet, srv.URL+"/expenses/v1/", creatorToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", res.StatusCode)
	}
	if listed := body["data"].(map[string]any)["expenses"].([]any); len(listed) != 0 {
		t.Fatalf("default listing must exclude paid expenses, got %d", len(listed))
	}

	res, _ = doJSON(t, http.MethodGet, srv.URL+"/expenses/v1/?status=Paid", creatorToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("paid list: expected 200, got %d", res.StatusCode)
	}

	// Deletes stay 200 on repeat and on unknown ids.
	for _, id := range []string{expenseID, expenseID, uuid.NewString()} {
		res, _ = doJSON(t, http.MethodDelete, srv.URL+"/expenses/v1/"+id, creatorToken, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("delete %s: expected 200, got %d", id, res.StatusCode)
		}
	}

	res, body = doJSON(t, http.MethodGet, srv.URL+"/expenses/v1/"+uuid.NewString(), creatorToken, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("get unknown: expected 404, got %d: %v", res.StatusCode, body)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token := registerAndLoginHTTP(t, srv.URL, "leaver")

	res, _ := doJSON(t, http.MethodPost, srv.URL+"/accounts/v1/logout", token, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", res.StatusCode)
	}

	res, _ = doJSON(t, http.MethodGet, srv.URL+"/accounts/v1/me", token, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", res.StatusCode)
	}
}

type memUsers struct {
	mu         sync.Mutex
	byUsername map[string]domain.User
	byID       map[uuid.UUID]domain.User
}

func (m *memUsers) Create(_ context.Context, params ports.CreateUserParams) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUsername[params.Username]; ok {
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
	m.byUsername[u.Username] = u
	m.byID[u.UserID] = u
	return u, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byUsername[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, userID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	loginAt := at
	u.LastLoginAt = &loginAt
	m.byID[userID] = u
	m.byUsername[u.Username] = u
	return nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, userID uuid.UUID, passwordHash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = at
	m.byID[userID] = u
	m.byUsername[u.Username] = u
	return nil
}

type memSessions struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Session
}

func (m *memSessions) Create(_ context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := domain.Session{
		SessionID: uuid.New(),
		UserID:    params.UserID,
		IPAddress: params.IPAddress,
		UserAgent: params.UserAgent,
		CreatedAt: params.CreatedAt,
		ExpiresAt: params.ExpiresAt,
	}
	m.byID[s.SessionID] = s
	return s, nil
}

func (m *memSessions) GetByID(_ context.Context, sessionID uuid.UUID) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) RevokeByID(_ context.Context, sessionID uuid.UUID, revokedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.RevokedAt = &revokedAt
	m.byID[sessionID] = s
	return nil
}

type memExpenses struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Expense
}

func copyExpense(e domain.Expense) domain.Expense {
	cp := e
	cp.Debts = make([]domain.Debt, len(e.Debts))
	copy(cp.Debts, e.Debts)
	return cp
}

func (m *memExpenses) CreateWithDebts(_ context.Context, expense domain.Expense) (domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[expense.ExpenseID] = copyExpense(expense)
	return copyExpense(expense), nil
}

func (m *memExpenses) GetByID(_ context.Context, expenseID uuid.UUID) (domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[expenseID]
	if !ok {
		return domain.Expense{}, domain.ErrNotFound
	}
	return copyExpense(e), nil
}

func (m *memExpenses) List(_ context.Context, filter ports.ExpenseListFilter) ([]domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Expense, 0, len(m.byID))
	for _, e := range m.byID {
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
	return out, nil
}

func (m *memExpenses) UpdateFields(_ context.Context, expenseID uuid.UUID, patch ports.ExpensePatch, at time.Time) (domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[expenseID]
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
	m.byID[expenseID] = e
	return copyExpense(e), nil
}

func (m *memExpenses) SaveSettlement(_ context.Context, expense domain.Expense, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[expense.ExpenseID]; !ok {
		return domain.ErrNotFound
	}
	stored := copyExpense(expense)
	stored.UpdatedAt = at
	m.byID[expense.ExpenseID] = stored
	return nil
}

func (m *memExpenses) SoftDelete(_ context.Context, expenseID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[expenseID]
	if !ok || e.IsDeleted {
		return false, nil
	}
	e.IsDeleted = true
	e.UpdatedAt = at
	m.byID[expenseID] = e
	return true, nil
}

type memLockouts struct {
	mu    sync.Mutex
	state map[string]ports.LockoutState
}

func (m *memLockouts) Get(_ context.Context, key string) (ports.LockoutState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state[key], nil
}

func (m *memLockouts) RecordFailure(_ context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state[key]
	st.FailedCount++
	if st.FailedCount >= threshold {
		lockUntil := now.Add(lockoutWindow)
		st.LockedUntil = &lockUntil
	}
	m.state[key] = st
	return st, nil
}

func (m *memLockouts) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, key)
	return nil
}

type memRevocations struct {
	mu      sync.Mutex
	revoked map[uuid.UUID]bool
}

func (m *memRevocations) MarkRevoked(_ context.Context, sessionID uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[sessionID] = true
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, sessionID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[sessionID], nil
}

type memHasher struct{}

type memSigner struct {
	mu     sync.Mutex
	tokens map[string]ports.AuthClaims
}

func (memHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (memHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("hash mismatch")
	}
	return nil
}

func (m *memSigner) Sign(claims ports.AuthClaims) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	m.tokens[token] = claims
	return token, nil
}

func (m *memSigner) ParseAndValidate(token string) (ports.AuthClaims, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	claims, ok := m.tokens[token]
	if !ok {
		return ports.AuthClaims{}, fmt.Errorf("%w: unknown token", domain.ErrUnauthorized)
	}
	return claims, nil
}
