package ledger

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCheckRemoval(t *testing.T) {
	tests := []struct {
		name          string
		balances      map[int]decimal.Decimal
		userID        int
		memberCount   int
		adminCount    int
		targetIsAdmin bool
		removingSelf  bool
		wantReason    string
		wantMessage   string
	}{
		{
			name:        "zero balance member removed",
			balances:    map[int]decimal.Decimal{1: dec("0"), 2: dec("0")},
			userID:      2,
			memberCount: 2,
			adminCount:  1,
		},
		{
			name:        "balance within tolerance removed",
			balances:    map[int]decimal.Decimal{1: dec("0.01"), 2: dec("-0.01")},
			userID:      2,
			memberCount: 2,
			adminCount:  1,
		},
		{
			name:        "debtor blocked",
			balances:    map[int]decimal.Decimal{1: dec("10"), 2: dec("-10")},
			userID:      2,
			memberCount: 3,
			adminCount:  1,
			wantReason:  ReasonNonZeroBalance,
			wantMessage: "user owes $10.00",
		},
		{
			name:        "creditor blocked",
			balances:    map[int]decimal.Decimal{1: dec("25.50"), 2: dec("-25.50")},
			userID:      1,
			memberCount: 3,
			adminCount:  2,
			wantReason:  ReasonNonZeroBalance,
			wantMessage: "user is owed $25.50",
		},
		{
			name:         "sole member blocked",
			balances:     map[int]decimal.Decimal{1: dec("0")},
			userID:       1,
			memberCount:  1,
			adminCount:   1,
			removingSelf: true,
			wantReason:   ReasonSoleMember,
		},
		{
			name:          "sole admin blocked",
			balances:      map[int]decimal.Decimal{1: dec("0"), 2: dec("0")},
			userID:        1,
			memberCount:   2,
			adminCount:    1,
			targetIsAdmin: true,
			wantReason:    ReasonSoleAdmin,
		},
		{
			name:          "admin removable when another admin exists",
			balances:      map[int]decimal.Decimal{1: dec("0"), 2: dec("0")},
			userID:        1,
			memberCount:   2,
			adminCount:    2,
			targetIsAdmin: true,
		},
		{
			name:          "sole member gate wins over sole admin gate",
			balances:      map[int]decimal.Decimal{1: dec("5")},
			userID:        1,
			memberCount:   1,
			adminCount:    1,
			targetIsAdmin: true,
			removingSelf:  true,
			wantReason:    ReasonSoleMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRemoval(tt.balances, tt.userID, tt.memberCount, tt.adminCount, tt.targetIsAdmin, tt.removingSelf)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("CheckRemoval() unexpected refusal: %v", err)
				}
				return
			}
			var refusal *RefusalError
			if !errors.As(err, &refusal) {
				t.Fatalf("CheckRemoval() error = %v, want *RefusalError", err)
			}
			if refusal.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", refusal.Reason, tt.wantReason)
			}
			if tt.wantMessage != "" && !strings.Contains(refusal.Error(), tt.wantMessage) {
				t.Errorf("message = %q, want substring %q", refusal.Error(), tt.wantMessage)
			}
			if tt.wantReason == ReasonNonZeroBalance && refusal.Amount.IsZero() {
				t.Error("refusal should carry the blocking amount")
			}
		})
	}
}

func TestCheckAdminRevoke(t *testing.T) {
	if err := CheckAdminRevoke(1); err == nil {
		t.Error("revoking the last admin should be refused")
	}
	if err := CheckAdminRevoke(2); err != nil {
		t.Errorf("revoking one of two admins refused: %v", err)
	}
}

func TestCheckGroupDeletion(t *testing.T) {
	if err := CheckGroupDeletion(0, 0); err != nil {
		t.Errorf("empty group deletion refused: %v", err)
	}

	err := CheckGroupDeletion(3, 0)
	var refusal *RefusalError
	if !errors.As(err, &refusal) {
		t.Fatalf("expected *RefusalError, got %v", err)
	}
	if !strings.Contains(refusal.Error(), "3 expense(s)") {
		t.Errorf("message = %q, want expense count", refusal.Error())
	}

	if err := CheckGroupDeletion(0, 2); err == nil {
		t.Error("group with settlements should not be deletable")
	}
	if err := CheckGroupDeletion(1, 1); err == nil {
		t.Error("group with expenses and settlements should not be deletable")
	}
}

func TestCheckUserDeletion(t *testing.T) {
	if err := CheckUserDeletion(0, 0, 0); err != nil {
		t.Errorf("clean user deletion refused: %v", err)
	}
	if err := CheckUserDeletion(2, 0, 0); err == nil {
		t.Error("user with paid expenses should not be deletable")
	}
	if err := CheckUserDeletion(0, 4, 1); err == nil {
		t.Error("user with splits and memberships should not be deletable")
	}
}
