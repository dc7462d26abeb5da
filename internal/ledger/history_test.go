package ledger

import (
	"testing"
)

func TestCompileHistoryExpenseFigures(t *testing.T) {
	expenses := []ExpenseRecord{
		{
			ID:          1,
			Description: "Dinner",
			Amount:      dec("30"),
			Date:        "2026-08-01",
			PaidBy:      1,
			Splits: []SplitRow{
				{ExpenseID: 1, PayerID: 1, OwedBy: 1, Amount: dec("10")},
				{ExpenseID: 1, PayerID: 1, OwedBy: 2, Amount: dec("10")},
				{ExpenseID: 1, PayerID: 1, OwedBy: 3, Amount: dec("10")},
			},
		},
	}

	items := CompileHistory(expenses, nil)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	item := items[0]
	if item.Type != HistoryTypeExpense {
		t.Errorf("type = %q, want expense", item.Type)
	}
	if len(item.Splits) != 3 {
		t.Fatalf("got %d splits, want 3", len(item.Splits))
	}

	for _, s := range item.Splits {
		if !s.Owed.Equal(dec("10")) {
			t.Errorf("user %d owed = %s, want 10", s.UserID, s.Owed)
		}
		if s.UserID == 1 {
			// Payer's own split reports as paid in full.
			if !s.Paid.Equal(dec("10")) || !s.Remaining.IsZero() {
				t.Errorf("payer split paid=%s remaining=%s, want 10/0", s.Paid, s.Remaining)
			}
		} else {
			if !s.Paid.IsZero() || !s.Remaining.Equal(dec("10")) {
				t.Errorf("user %d split paid=%s remaining=%s, want 0/10", s.UserID, s.Paid, s.Remaining)
			}
		}
	}
}

func TestCompileHistoryOrdering(t *testing.T) {
	expenses := []ExpenseRecord{
		{ID: 1, Description: "Groceries", Amount: dec("20"), Date: "2026-07-01", PaidBy: 1},
		{ID: 2, Description: "Cab", Amount: dec("15"), Date: "2026-08-15", PaidBy: 2},
		{ID: 3, Description: "Undated", Amount: dec("5"), PaidBy: 1},
		{ID: 4, Description: "Cab again", Amount: dec("15"), Date: "2026-08-15", PaidBy: 2},
	}
	settlements := []SettlementRow{
		{ID: 7, PaidBy: 2, PaidTo: 1, Amount: dec("10")},
		{ID: 8, PaidBy: 3, PaidTo: 1, Amount: dec("4")},
	}

	items := CompileHistory(expenses, settlements)
	if len(items) != 6 {
		t.Fatalf("got %d items, want 6", len(items))
	}

	// Dated expenses newest first (ties by id, newest first), undated after,
	// settlements always last.
	wantOrder := []struct {
		typ string
		id  int
	}{
		{HistoryTypeExpense, 4},
		{HistoryTypeExpense, 2},
		{HistoryTypeExpense, 1},
		{HistoryTypeExpense, 3},
		{HistoryTypeSettlement, 7},
		{HistoryTypeSettlement, 8},
	}
	for i, want := range wantOrder {
		if items[i].Type != want.typ || items[i].ID != want.id {
			t.Errorf("items[%d] = %s/%d, want %s/%d", i, items[i].Type, items[i].ID, want.typ, want.id)
		}
	}
}

func TestCompileHistorySettlementItems(t *testing.T) {
	settlements := []SettlementRow{{ID: 1, PaidBy: 2, PaidTo: 1, Amount: dec("12.50")}}

	items := CompileHistory(nil, settlements)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	s := items[0]
	if s.Type != HistoryTypeSettlement {
		t.Errorf("type = %q, want settlement", s.Type)
	}
	if s.PaidBy != 2 || s.PaidTo != 1 {
		t.Errorf("paid_by/paid_to = %d/%d, want 2/1", s.PaidBy, s.PaidTo)
	}
	if len(s.Splits) != 0 {
		t.Errorf("settlement items carry no splits, got %d", len(s.Splits))
	}
}

func TestCompileHistoryEmptyGroup(t *testing.T) {
	items := CompileHistory(nil, nil)
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}
