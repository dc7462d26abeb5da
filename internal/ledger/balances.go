package ledger

import "github.com/shopspring/decimal"

// SplitRow is one member's owed portion of a single expense, joined with the
// expense's payer.
type SplitRow struct {
	ExpenseID int
	PayerID   int
	OwedBy    int
	Amount    decimal.Decimal
}

// SettlementRow is a recorded out-of-band payment between two members.
type SettlementRow struct {
	ID     int
	PaidBy int
	PaidTo int
	Amount decimal.Decimal
}

// ComputeBalances aggregates expense splits and settlements into one net
// balance per user. Positive means the group owes the user; negative means the
// user owes the group.
//
// Every current member gets a row, zero-valued if they have no activity.
// A split owned by the expense's own payer is self-cancelling and skipped.
// A settlement credits paid_by and debits paid_to, the same direction an
// expense payment moves the payer, so both event types fold into one pass.
//
// Rows may reference users who have since left the group (they could only
// leave at zero balance, but their historical rows remain); those users appear
// in the result too, and callers that render per-member views filter them out.
func ComputeBalances(memberIDs []int, splits []SplitRow, settlements []SettlementRow) map[int]decimal.Decimal {
	balances := make(map[int]decimal.Decimal, len(memberIDs))
	for _, id := range memberIDs {
		balances[id] = decimal.Zero
	}

	for _, s := range splits {
		if s.OwedBy == s.PayerID {
			continue
		}
		balances[s.OwedBy] = balances[s.OwedBy].Sub(s.Amount)
		balances[s.PayerID] = balances[s.PayerID].Add(s.Amount)
	}

	for _, s := range settlements {
		balances[s.PaidBy] = balances[s.PaidBy].Add(s.Amount)
		balances[s.PaidTo] = balances[s.PaidTo].Sub(s.Amount)
	}

	return balances
}
