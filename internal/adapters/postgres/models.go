package postgres

import (
	"time"

	"github.com/google/uuid"
)

type userModel struct {
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string     `gorm:"column:username"`
	Email        string     `gorm:"column:email"`
	FullName     string     `gorm:"column:full_name"`
	PasswordHash string     `gorm:"column:password_hash"`
	IsActive     bool       `gorm:"column:is_active"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

type sessionModel struct {
	SessionID uuid.UUID  `gorm:"column:session_id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id"`
	IPAddress *string    `gorm:"column:ip_address"`
	UserAgent string     `gorm:"column:user_agent"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	ExpiresAt time.Time  `gorm:"column:expires_at"`
	RevokedAt *time.Time `gorm:"column:revoked_at"`
}

func (sessionModel) TableName() string { return "sessions" }

type expenseModel struct {
	ExpenseID   uuid.UUID `gorm:"column:expense_id;type:uuid;primaryKey"`
	Title       string    `gorm:"column:title"`
	Description *string   `gorm:"column:description"`
	OccurredAt  time.Time `gorm:"column:occurred_at"`
	Amount      int64     `gorm:"column:amount"`
	Status      string    `gorm:"column:status"`
	IsDeleted   bool      `gorm:"column:is_deleted"`
	CreatedByID uuid.UUID `gorm:"column:created_by_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (expenseModel) TableName() string { return "expenses" }

type debtModel struct {
	ExpenseID uuid.UUID  `gorm:"column:expense_id;type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;primaryKey"`
	Amount    int64      `gorm:"column:amount"`
	PaidOn    *time.Time `gorm:"column:paid_on"`
}

func (debtModel) TableName() string { return "debts" }
