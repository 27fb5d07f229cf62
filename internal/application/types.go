package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/splitcrew/splitcrew/internal/domain"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID uuid.UUID `json:"user_id"`
}

type LoginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

type LoginResponse struct {
	Token     string      `json:"access_token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserProfile `json:"user"`
}

// UserProfile is the externally visible account shape.
// The password hash never leaves the application layer.
type UserProfile struct {
	UserID      uuid.UUID  `json:"user_id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type CreateExpenseRequest struct {
	Title          string      `json:"title"`
	Description    *string     `json:"description,omitempty"`
	Amount         int64       `json:"amount"`
	OccurredAt     *time.Time  `json:"occurred_at,omitempty"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
}

type UpdateExpenseRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

type DebtView struct {
	UserID uuid.UUID  `json:"user_id"`
	Amount int64      `json:"amount"`
	PaidOn *time.Time `json:"paid_on,omitempty"`
}

type ExpenseView struct {
	ExpenseID   uuid.UUID            `json:"expense_id"`
	Title       string               `json:"title"`
	Description *string              `json:"description,omitempty"`
	OccurredAt  time.Time            `json:"occurred_at"`
	Amount      int64                `json:"amount"`
	Status      domain.ExpenseStatus `json:"status"`
	IsDeleted   bool                 `json:"is_deleted"`
	CreatedBy   uuid.UUID            `json:"created_by"`
	CreatedAt   time.Time            `json:"created_at"`
	Debts       []DebtView           `json:"debts"`
}

// SettleResponse confirms a settlement pass. SettledDebts is zero when the
// caller's debt was already paid, which is still a success.
type SettleResponse struct {
	ExpenseID    uuid.UUID            `json:"expense_id"`
	SettledDebts int                  `json:"settled_debts"`
	Status       domain.ExpenseStatus `json:"status"`
}

func toUserProfile(u domain.User) UserProfile {
	return UserProfile{
		UserID:      u.UserID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func toExpenseView(e domain.Expense) ExpenseView {
	debts := make([]DebtView, 0, len(e.Debts))
	for _, d := range e.Debts {
		debts = append(debts, DebtView{
			UserID: d.UserID,
			Amount: d.Amount,
			PaidOn: d.PaidOn,
		})
	}
	return ExpenseView{
		ExpenseID:   e.ExpenseID,
		Title:       e.Title,
		Description: e.Description,
		OccurredAt:  e.OccurredAt,
		Amount:      e.Amount,
		Status:      e.Status,
		IsDeleted:   e.IsDeleted,
		CreatedBy:   e.CreatedByID,
		CreatedAt:   e.CreatedAt,
		Debts:       debts,
	}
}
