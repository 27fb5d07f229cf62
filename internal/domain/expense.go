package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExpenseStatus is the derived lifecycle state of an expense.
type ExpenseStatus string

const (
	StatusPending  ExpenseStatus = "Pending"
	StatusPaid     ExpenseStatus = "Paid"
	StatusCanceled ExpenseStatus = "Canceled"
)

// ValidStatus reports whether s is one of the known expense statuses.
func ValidStatus(s ExpenseStatus) bool {
	switch s {
	case StatusPending, StatusPaid, StatusCanceled:
		return true
	}
	return false
}

// TitleMaxLength bounds expense titles, mirroring the varchar(64) column.
const TitleMaxLength = 64

// Expense is a shared cost event. It exclusively owns its Debts; the status
// field is derived from them and must only change through RecalculateStatus,
// except for the external Canceled transition.
type Expense struct {
	ExpenseID   uuid.UUID
	Title       string
	Description *string
	OccurredAt  time.Time
	Amount      int64
	Status      ExpenseStatus
	IsDeleted   bool
	CreatedByID uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Debts       []Debt
}

// RecalculateStatus derives the status from child debts: Paid iff at least
// one debt exists and every debt is settled, otherwise Pending. Canceled is
// an explicit external transition and is never overwritten here.
func (e *Expense) RecalculateStatus() {
	if e.Status == StatusCanceled {
		return
	}
	if len(e.Debts) == 0 {
		e.Status = StatusPending
		return
	}
	for i := range e.Debts {
		if !e.Debts[i].Paid() {
			e.Status = StatusPending
			return
		}
	}
	e.Status = StatusPaid
}

// DebtFor returns the caller's debt on this expense, if any.
func (e *Expense) DebtFor(userID uuid.UUID) (*Debt, bool) {
	for i := range e.Debts {
		if e.Debts[i].UserID == userID {
			return &e.Debts[i], true
		}
	}
	return nil, false
}

// Debt is one participant's obligation on one expense. Identity is the
// (ExpenseID, UserID) pair; Amount is set once at split time and zeroed on
// payment, so a settled debt reads as zero amount plus a non-nil PaidOn.
type Debt struct {
	ExpenseID uuid.UUID
	UserID    uuid.UUID
	Amount    int64
	PaidOn    *time.Time
}

// Paid reports whether this debt has been settled.
func (d *Debt) Paid() bool {
	return d.PaidOn != nil
}

// Settle marks the debt paid at now and zeroes the amount. Settling an
// already-paid debt is a no-op; the return value reports whether state changed.
func (d *Debt) Settle(now time.Time) bool {
	if d.PaidOn != nil {
		return false
	}
	paidOn := now
	d.PaidOn = &paidOn
	d.Amount = 0
	return true
}
