package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/splitcrew/splitcrew/internal/domain"
	"gorm.io/gorm"
)

func toDomainUser(row userModel) domain.User {
	return domain.User{
		UserID:       row.UserID,
		Username:     row.Username,
		Email:        row.Email,
		FullName:     row.FullName,
		PasswordHash: row.PasswordHash,
		IsActive:     row.IsActive,
		LastLoginAt:  row.LastLoginAt,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func toDomainSession(row sessionModel) domain.Session {
	ip := ""
	if row.IPAddress != nil {
		ip = *row.IPAddress
	}
	return domain.Session{
		SessionID: row.SessionID,
		UserID:    row.UserID,
		IPAddress: ip,
		UserAgent: row.UserAgent,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
		RevokedAt: row.RevokedAt,
	}
}

func toDomainExpense(row expenseModel, debtRows []debtModel) domain.Expense {
	debts := make([]domain.Debt, 0, len(debtRows))
	for _, d := range debtRows {
		debts = append(debts, domain.Debt{
			ExpenseID: d.ExpenseID,
			UserID:    d.UserID,
			Amount:    d.Amount,
			PaidOn:    d.PaidOn,
		})
	}
	return domain.Expense{
		ExpenseID:   row.ExpenseID,
		Title:       row.Title,
		Description: row.Description,
		OccurredAt:  row.OccurredAt,
		Amount:      row.Amount,
		Status:      domain.ExpenseStatus(row.Status),
		IsDeleted:   row.IsDeleted,
		CreatedByID: row.CreatedByID,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Debts:       debts,
	}
}

func toDebtModels(expenseID uuid.UUID, debts []domain.Debt) []debtModel {
	rows := make([]debtModel, 0, len(debts))
	for _, d := range debts {
		rows = append(rows, debtModel{
			ExpenseID: expenseID,
			UserID:    d.UserID,
			Amount:    d.Amount,
			PaidOn:    d.PaidOn,
		})
	}
	return rows
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// persistenceError marks storage failures distinctly from domain rejections,
// signaling the caller must not assume partial success.
func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}
