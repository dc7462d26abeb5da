package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeBalancesDinnerScenario(t *testing.T) {
	// Group with A=1, B=2, C=3. "Dinner" amount=30, payer=A, equal policy.
	members := []int{1, 2, 3}
	splits := []SplitRow{
		{ExpenseID: 1, PayerID: 1, OwedBy: 1, Amount: dec("10")},
		{ExpenseID: 1, PayerID: 1, OwedBy: 2, Amount: dec("10")},
		{ExpenseID: 1, PayerID: 1, OwedBy: 3, Amount: dec("10")},
	}

	balances := ComputeBalances(members, splits, nil)

	assertBalance(t, balances, 1, "20")
	assertBalance(t, balances, 2, "-10")
	assertBalance(t, balances, 3, "-10")

	// B pays A back 10.
	settlements := []SettlementRow{{ID: 1, PaidBy: 2, PaidTo: 1, Amount: dec("10")}}
	balances = ComputeBalances(members, splits, settlements)

	assertBalance(t, balances, 1, "10")
	assertBalance(t, balances, 2, "0")
	assertBalance(t, balances, 3, "-10")
}

func TestComputeBalancesZeroActivityMember(t *testing.T) {
	members := []int{1, 2, 3, 4}
	splits := []SplitRow{
		{ExpenseID: 1, PayerID: 1, OwedBy: 1, Amount: dec("5")},
		{ExpenseID: 1, PayerID: 1, OwedBy: 2, Amount: dec("5")},
	}

	balances := ComputeBalances(members, splits, nil)

	for _, id := range members {
		if _, ok := balances[id]; !ok {
			t.Errorf("member %d missing from balances", id)
		}
	}
	assertBalance(t, balances, 3, "0")
	assertBalance(t, balances, 4, "0")
}

func TestComputeBalancesEmptyGroup(t *testing.T) {
	balances := ComputeBalances(nil, nil, nil)
	if len(balances) != 0 {
		t.Errorf("expected empty balances, got %v", balances)
	}
}

func TestComputeBalancesClosedLedger(t *testing.T) {
	// Over any sequence of expenses and settlements the books stay closed:
	// total owed equals total owing within tolerance.
	members := []int{1, 2, 3, 4}

	splits := []SplitRow{
		// 100 paid by 1, split equally.
		{ExpenseID: 1, PayerID: 1, OwedBy: 1, Amount: dec("25")},
		{ExpenseID: 1, PayerID: 1, OwedBy: 2, Amount: dec("25")},
		{ExpenseID: 1, PayerID: 1, OwedBy: 3, Amount: dec("25")},
		{ExpenseID: 1, PayerID: 1, OwedBy: 4, Amount: dec("25")},
		// 60 paid by 2, unequal.
		{ExpenseID: 2, PayerID: 2, OwedBy: 1, Amount: dec("40")},
		{ExpenseID: 2, PayerID: 2, OwedBy: 3, Amount: dec("20")},
		// 99.99 paid by 3, percentage 50/30/20 rounded.
		{ExpenseID: 3, PayerID: 3, OwedBy: 2, Amount: dec("50.00")},
		{ExpenseID: 3, PayerID: 3, OwedBy: 3, Amount: dec("30.00")},
		{ExpenseID: 3, PayerID: 3, OwedBy: 4, Amount: dec("19.99")},
	}
	settlements := []SettlementRow{
		{ID: 1, PaidBy: 4, PaidTo: 1, Amount: dec("12.50")},
		{ID: 2, PaidBy: 3, PaidTo: 2, Amount: dec("20")},
	}

	for cut := 0; cut <= len(splits); cut++ {
		balances := ComputeBalances(members, splits[:cut], settlements)
		sum := decimal.Zero
		for _, b := range balances {
			sum = sum.Add(b)
		}
		if sum.Abs().GreaterThan(Tolerance) {
			t.Errorf("ledger not closed after %d splits: sum=%s", cut, sum)
		}
	}
}

func TestComputeBalancesSelfSplitSkipped(t *testing.T) {
	members := []int{1, 2}
	splits := []SplitRow{
		{ExpenseID: 1, PayerID: 1, OwedBy: 1, Amount: dec("15")},
		{ExpenseID: 1, PayerID: 1, OwedBy: 2, Amount: dec("15")},
	}

	balances := ComputeBalances(members, splits, nil)

	// The payer's own split nets to zero; only the other member's share moves.
	assertBalance(t, balances, 1, "15")
	assertBalance(t, balances, 2, "-15")
}

func TestComputeBalancesDepartedMemberRows(t *testing.T) {
	// User 9 left the group (at zero balance) but their historical rows remain.
	members := []int{1, 2}
	splits := []SplitRow{
		{ExpenseID: 1, PayerID: 1, OwedBy: 9, Amount: dec("10")},
	}
	settlements := []SettlementRow{
		{ID: 1, PaidBy: 9, PaidTo: 1, Amount: dec("10")},
	}

	balances := ComputeBalances(members, splits, settlements)

	assertBalance(t, balances, 9, "0")
	assertBalance(t, balances, 1, "0")
	assertBalance(t, balances, 2, "0")
}

func assertBalance(t *testing.T, balances map[int]decimal.Decimal, userID int, want string) {
	t.Helper()
	got, ok := balances[userID]
	if !ok {
		t.Fatalf("no balance for user %d", userID)
	}
	if !got.Sub(dec(want)).Abs().LessThanOrEqual(Tolerance) {
		t.Errorf("balance[%d] = %s, want %s", userID, got, want)
	}
}
