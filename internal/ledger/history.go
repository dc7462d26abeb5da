package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ExpenseRecord is the read-model input to the history compiler.
type ExpenseRecord struct {
	ID          int
	Description string
	Amount      decimal.Decimal
	Date        string // YYYY-MM-DD, may be empty
	PaidBy      int
	Splits      []SplitRow
}

// HistorySplit reports one member's gross obligation on an expense. Paid is
// the split amount when the member is the payer, zero otherwise; Remaining is
// owed minus paid. Settlements are separate feed items and are never netted
// into these figures.
type HistorySplit struct {
	UserID    int             `json:"user_id"`
	Owed      decimal.Decimal `json:"owed"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
}

// HistoryItem is one entry in the unified group feed. Type is "expense" or
// "settlement"; settlement items carry PaidTo and no splits.
type HistoryItem struct {
	ID          int             `json:"id"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date,omitempty"`
	PaidBy      int             `json:"paid_by"`
	PaidTo      int             `json:"paid_to,omitempty"`
	Splits      []HistorySplit  `json:"splits,omitempty"`
}

const (
	HistoryTypeExpense    = "expense"
	HistoryTypeSettlement = "settlement"
)

// CompileHistory projects expenses and settlements into a single feed. Dated
// expenses come first, newest first (ties broken by id, newest first);
// expenses without a date follow, then all settlements. Settlements carry no
// date field on the wire, so they are appended rather than interleaved.
func CompileHistory(expenses []ExpenseRecord, settlements []SettlementRow) []HistoryItem {
	items := make([]HistoryItem, 0, len(expenses)+len(settlements))

	sorted := make([]ExpenseRecord, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Date == "" || b.Date == "" {
			return b.Date == "" && a.Date != ""
		}
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.ID > b.ID
	})

	for _, e := range sorted {
		item := HistoryItem{
			ID:          e.ID,
			Type:        HistoryTypeExpense,
			Description: e.Description,
			Amount:      e.Amount,
			Date:        e.Date,
			PaidBy:      e.PaidBy,
			Splits:      make([]HistorySplit, 0, len(e.Splits)),
		}
		for _, s := range e.Splits {
			paid := decimal.Zero
			if s.OwedBy == e.PaidBy {
				paid = s.Amount
			}
			item.Splits = append(item.Splits, HistorySplit{
				UserID:    s.OwedBy,
				Owed:      s.Amount,
				Paid:      paid,
				Remaining: s.Amount.Sub(paid),
			})
		}
		items = append(items, item)
	}

	for _, s := range settlements {
		items = append(items, HistoryItem{
			ID:     s.ID,
			Type:   HistoryTypeSettlement,
			Amount: s.Amount,
			PaidBy: s.PaidBy,
			PaidTo: s.PaidTo,
		})
	}

	return items
}
