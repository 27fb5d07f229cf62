package application

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/splitcrew/splitcrew/internal/domain"
	"github.com/splitcrew/splitcrew/internal/ports"
)

// CreateExpense validates the draft, splits the cost across participants and
// persists the expense together with its debts in one transaction.
func (s *Service) CreateExpense(ctx context.Context, req CreateExpenseRequest, creatorID uuid.UUID) (ExpenseView, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return ExpenseView{}, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > domain.TitleMaxLength {
		return ExpenseView{}, fmt.Errorf("%w: title exceeds %d characters", domain.ErrInvalidInput, domain.TitleMaxLength)
	}

	debts, err := domain.SplitDebts(req.Amount, creatorID, req.ParticipantIDs)
	if err != nil {
		return ExpenseView{}, err
	}

	now := s.nowFn()
	occurredAt := now
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	expenseID := uuid.New()
	for i := range debts {
		debts[i].ExpenseID = expenseID
	}

	expense := domain.Expense{
		ExpenseID:   expenseID,
		Title:       title,
		Description: req.Description,
		OccurredAt:  occurredAt,
		Amount:      req.Amount,
		Status:      domain.StatusPending,
		CreatedByID: creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Debts:       debts,
	}

	created, err := s.expenses.CreateWithDebts(ctx, expense)
	if err != nil {
		return ExpenseView{}, err
	}
	return toExpenseView(created), nil
}

func (s *Service) GetExpense(ctx context.Context, expenseID uuid.UUID) (ExpenseView, error) {
	expense, err := s.expenses.GetByID(ctx, expenseID)
	if err != nil {
		return ExpenseView{}, err
	}
	return toExpenseView(expense), nil
}

// ListExpenses returns non-deleted expenses. Without a status filter the
// listing surfaces outstanding obligations only, so Paid expenses are
// excluded; callers wanting paid history request the status explicitly.
func (s *Service) ListExpenses(ctx context.Context, statusFilter *domain.ExpenseStatus) ([]ExpenseView, error) {
	if statusFilter != nil && !domain.ValidStatus(*statusFilter) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, *statusFilter)
	}
	filter := ports.ExpenseListFilter{Status: statusFilter}
	if statusFilter == nil {
		filter.ExcludePaid = true
	}
	expenses, err := s.expenses.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]ExpenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, toExpenseView(e))
	}
	return views, nil
}

// UpdateExpense partially updates title, description, occurrence time or
// applies the external Canceled transition. Amount and debts are never
// touched here; the split is fixed at creation.
func (s *Service) UpdateExpense(ctx context.Context, expenseID uuid.UUID, req UpdateExpenseRequest) (ExpenseView, error) {
	patch := ports.ExpensePatch{
		Description: req.Description,
		OccurredAt:  req.OccurredAt,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return ExpenseView{}, fmt.Errorf("%w: title must not be empty", domain.ErrInvalidInput)
		}
		if utf8.RuneCountInString(title) > domain.TitleMaxLength {
			return ExpenseView{}, fmt.Errorf("%w: title exceeds %d characters", domain.ErrInvalidInput, domain.TitleMaxLength)
		}
		patch.Title = &title
	}
	if req.Status != nil {
		status := domain.ExpenseStatus(*req.Status)
		if status != domain.StatusCanceled {
			return ExpenseView{}, fmt.Errorf("%w: only the %s transition may be requested", domain.ErrInvalidInput, domain.StatusCanceled)
		}
		patch.Status = &status
	}

	updated, err := s.expenses.UpdateFields(ctx, expenseID, patch, s.nowFn())
	if err != nil {
		return ExpenseView{}, err
	}
	return toExpenseView(updated), nil
}

// SettlePayment applies a payment from payingUserID against their debt on
// the expense. Only the caller's own debts are ever touched; debts owned by
// other participants are left alone rather than causing a wholesale
// rejection. Settling an already-paid debt is a confirming no-op.
func (s *Service) SettlePayment(ctx context.Context, expenseID, payingUserID uuid.UUID) (SettleResponse, error) {
	expense, err := s.expenses.GetByID(ctx, expenseID)
	if err != nil {
		return SettleResponse{}, err
	}
	if len(expense.Debts) == 0 {
		return SettleResponse{}, fmt.Errorf("%w: expense has no debts to settle", domain.ErrInvalidState)
	}
	if _, ok := expense.DebtFor(payingUserID); !ok {
		return SettleResponse{}, fmt.Errorf("%w: no debt on this expense", domain.ErrForbidden)
	}

	now := s.nowFn()
	settled := 0
	for i := range expense.Debts {
		if expense.Debts[i].UserID != payingUserID {
			continue
		}
		if expense.Debts[i].Settle(now) {
			settled++
		}
	}

	expense.RecalculateStatus()

	if settled > 0 {
		if err := s.expenses.SaveSettlement(ctx, expense, now); err != nil {
			return SettleResponse{}, err
		}
	}

	return SettleResponse{
		ExpenseID:    expense.ExpenseID,
		SettledDebts: settled,
		Status:       expense.Status,
	}, nil
}

// SoftDeleteExpense hides the expense from listings. It reports success even
// when the expense is already deleted or never existed; repeated deletes are
// observably identical on purpose, unlike the hard NotFound of lookups.
func (s *Service) SoftDeleteExpense(ctx context.Context, expenseID uuid.UUID) error {
	_, err := s.expenses.SoftDelete(ctx, expenseID, s.nowFn())
	return err
}
