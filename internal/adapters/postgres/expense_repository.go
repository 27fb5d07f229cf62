package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/splitcrew/splitcrew/internal/domain"
	"github.com/splitcrew/splitcrew/internal/ports"
	"gorm.io/gorm"
)

type expenseRepository struct {
	db *gorm.DB
}

// CreateWithDebts inserts the expense and its debt rows in one transaction
// so a half-created expense can never be observed.
func (r *expenseRepository) CreateWithDebts(ctx context.Context, expense domain.Expense) (domain.Expense, error) {
	rec := expenseModel{
		ExpenseID:   expense.ExpenseID,
		Title:       expense.Title,
		Description: expense.Description,
		OccurredAt:  expense.OccurredAt,
		Amount:      expense.Amount,
		Status:      string(expense.Status),
		IsDeleted:   expense.IsDeleted,
		CreatedByID: expense.CreatedByID,
		CreatedAt:   expense.CreatedAt,
		UpdatedAt:   expense.UpdatedAt,
	}
	debtRows := toDebtModels(expense.ExpenseID, expense.Debts)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if len(debtRows) > 0 {
			if err := tx.Create(&debtRows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Expense{}, persistenceError("create expense with debts", err)
	}
	return toDomainExpense(rec, debtRows), nil
}

func (r *expenseRepository) GetByID(ctx context.Context, expenseID uuid.UUID) (domain.Expense, error) {
	var rec expenseModel
	if err := r.db.WithContext(ctx).Where("expense_id = ?", expenseID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Expense{}, domain.ErrNotFound
		}
		return domain.Expense{}, persistenceError("get expense", err)
	}
	debtRows, err := r.loadDebts(ctx, expenseID)
	if err != nil {
		return domain.Expense{}, err
	}
	return toDomainExpense(rec, debtRows), nil
}

func (r *expenseRepository) List(ctx context.Context, filter ports.ExpenseListFilter) ([]domain.Expense, error) {
	query := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("occurred_at DESC")
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	} else if filter.ExcludePaid {
		query = query.Where("status <> ?", string(domain.StatusPaid))
	}

	var rows []expenseModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, persistenceError("list expenses", err)
	}

	result := make([]domain.Expense, 0, len(rows))
	for _, rec := range rows {
		debtRows, err := r.loadDebts(ctx, rec.ExpenseID)
		if err != nil {
			return nil, err
		}
		result = append(result, toDomainExpense(rec, debtRows))
	}
	return result, nil
}

func (r *expenseRepository) UpdateFields(ctx context.Context, expenseID uuid.UUID, patch ports.ExpensePatch, at time.Time) (domain.Expense, error) {
	updates := map[string]any{"updated_at": at}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.OccurredAt != nil {
		updates["occurred_at"] = patch.OccurredAt.UTC()
	}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}

	res := r.db.WithContext(ctx).
		Model(&expenseModel{}).
		Where("expense_id = ?", expenseID).
		Updates(updates)
	if res.Error != nil {
		return domain.Expense{}, persistenceError("update expense", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Expense{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, expenseID)
}

// SaveSettlement persists the mutated debts and the recomputed expense
// status atomically. Either everything lands or the settlement is not
// visible at all.
func (r *expenseRepository) SaveSettlement(ctx context.Context, expense domain.Expense, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, debt := range expense.Debts {
			res := tx.Model(&debtModel{}).
				Where("expense_id = ? AND user_id = ?", debt.ExpenseID, debt.UserID).
				Updates(map[string]any{
					"amount":  debt.Amount,
					"paid_on": debt.PaidOn,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		res := tx.Model(&expenseModel{}).
			Where("expense_id = ?", expense.ExpenseID).
			Updates(map[string]any{
				"status":     string(expense.Status),
				"updated_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return persistenceError("save settlement", err)
	}
	return nil
}

// SoftDelete flags the expense as deleted. The bool reports whether a row
// actually changed; missing or already-deleted expenses are not an error.
func (r *expenseRepository) SoftDelete(ctx context.Context, expenseID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&expenseModel{}).
		Where("expense_id = ?", expenseID).
		Where("is_deleted = ?", false).
		Updates(map[string]any{
			"is_deleted": true,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, persistenceError("soft delete expense", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *expenseRepository) loadDebts(ctx context.Context, expenseID uuid.UUID) ([]debtModel, error) {
	var rows []debtModel
	if err := r.db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Order("user_id ASC").
		Find(&rows).Error; err != nil {
		return nil, persistenceError("load debts", err)
	}
	return rows, nil
}
