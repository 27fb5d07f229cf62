package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// SplitDebts computes the equal split of amount across the creator and the
// distinct non-creator participants, returning one unpaid Debt per
// non-creator. The divisor is n+1 because the creator always pays a share;
// integer division floors each share and the creator absorbs the remainder
// rather than it being redistributed. With no non-creator participants the
// result is empty and the creator implicitly bears the whole amount.
//
// Debts come back without an ExpenseID; the lifecycle manager assigns it
// once the expense identity exists.
func SplitDebts(amount int64, creatorID uuid.UUID, participantIDs []uuid.UUID) ([]Debt, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	seen := make(map[uuid.UUID]struct{}, len(participantIDs))
	payers := make([]uuid.UUID, 0, len(participantIDs))
	for _, id := range participantIDs {
		if id == creatorID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		payers = append(payers, id)
	}

	if len(payers) == 0 {
		return nil, nil
	}

	share := amount / int64(len(payers)+1)
	debts := make([]Debt, 0, len(payers))
	for _, userID := range payers {
		debts = append(debts, Debt{
			UserID: userID,
			Amount: share,
		})
	}
	return debts, nil
}
