package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/splitcrew/splitcrew/internal/application"
	"github.com/splitcrew/splitcrew/internal/domain"
)

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerFromRequest(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "create_expense")
		return
	}
	var req application.CreateExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_expense", err)
		return
	}

	res, err := h.service.CreateExpense(r.Context(), req, claims.UserID)
	if err != nil {
		writeMappedError(r.Context(), w, "create_expense", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuid.Parse(chi.URLParam(r, "expense_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid expense_id")
		return
	}
	res, err := h.service.GetExpense(r.Context(), expenseID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_expense", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	var statusFilter *domain.ExpenseStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := domain.ExpenseStatus(raw)
		statusFilter = &status
	}

	res, err := h.service.ListExpenses(r.Context(), statusFilter)
	if err != nil {
		writeMappedError(r.Context(), w, "list_expenses", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"expenses": res})
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuid.Parse(chi.URLParam(r, "expense_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid expense_id")
		return
	}
	var req application.UpdateExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_expense", err)
		return
	}

	res, err := h.service.UpdateExpense(r.Context(), expenseID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_expense", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

// deleteExpense soft-deletes and deliberately answers success for repeated
// or unknown ids, unlike the hard 404 of lookups.
func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := uuid.Parse(chi.URLParam(r, "expense_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid expense_id")
		return
	}
	if err := h.service.SoftDeleteExpense(r.Context(), expenseID); err != nil {
		writeMappedError(r.Context(), w, "delete_expense", err)
		return
	}
	writeMessage(w, http.StatusOK, "Expense deleted")
}

func (h *Handler) settleExpense(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerFromRequest(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "settle_expense")
		return
	}
	expenseID, err := uuid.Parse(chi.URLParam(r, "expense_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid expense_id")
		return
	}

	res, err := h.service.SettlePayment(r.Context(), expenseID, claims.UserID)
	if err != nil {
		writeMappedError(r.Context(), w, "settle_expense", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
