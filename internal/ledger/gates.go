package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CheckRemoval gates a membership removal. It must be evaluated against the
// latest committed balances inside the same transaction as the removal;
// balances mutate between checks, so the result is never cached.
//
// Gate order follows the original flow: sole-member and sole-admin protection
// first, then the balance check.
func CheckRemoval(balances map[int]decimal.Decimal, userID, memberCount, adminCount int, targetIsAdmin, removingSelf bool) error {
	if removingSelf && memberCount == 1 {
		return &RefusalError{
			Reason:  ReasonSoleMember,
			Message: "cannot remove yourself from group: you are the only member, delete the group instead",
		}
	}

	if targetIsAdmin && adminCount == 1 {
		return &RefusalError{
			Reason:  ReasonSoleAdmin,
			Message: "cannot remove the only admin from group: assign another admin first",
		}
	}

	balance := balances[userID]
	if balance.Abs().GreaterThan(Tolerance) {
		if balance.IsPositive() {
			return &RefusalError{
				Reason:  ReasonNonZeroBalance,
				Amount:  balance,
				Message: fmt.Sprintf("user is owed $%s", balance.StringFixed(2)),
			}
		}
		return &RefusalError{
			Reason:  ReasonNonZeroBalance,
			Amount:  balance,
			Message: fmt.Sprintf("user owes $%s", balance.Abs().StringFixed(2)),
		}
	}

	return nil
}

// CheckAdminRevoke gates demotion of an admin. At least one admin must remain
// reachable at all times.
func CheckAdminRevoke(adminCount int) error {
	if adminCount == 1 {
		return &RefusalError{
			Reason:  ReasonSoleAdmin,
			Message: "cannot revoke admin privileges: at least one admin must remain in the group",
		}
	}
	return nil
}

// CheckGroupDeletion refuses deletion while the group owns any financial
// activity. Deleting the group is the only path to zero members, so this is
// the counterpart of the sole-member removal gate.
func CheckGroupDeletion(expenseCount, settlementCount int) error {
	if expenseCount == 0 && settlementCount == 0 {
		return nil
	}

	msg := "cannot delete group: group"
	if expenseCount > 0 {
		msg += fmt.Sprintf(" has %d expense(s)", expenseCount)
	}
	if settlementCount > 0 {
		if expenseCount > 0 {
			msg += " and"
		}
		msg += fmt.Sprintf(" has %d settlement(s)", settlementCount)
	}
	msg += ", clear all financial activity first"

	return &RefusalError{Reason: ReasonFinancialActivity, Message: msg}
}

// CheckUserDeletion refuses account deletion while financial ties exist.
func CheckUserDeletion(paidExpenses, splitCount, groupCount int) error {
	if paidExpenses == 0 && splitCount == 0 && groupCount == 0 {
		return nil
	}

	var parts []string
	if paidExpenses > 0 {
		parts = append(parts, fmt.Sprintf("has paid for %d expense(s)", paidExpenses))
	}
	if splitCount > 0 {
		parts = append(parts, fmt.Sprintf("has %d outstanding expense split(s)", splitCount))
	}
	if groupCount > 0 {
		parts = append(parts, fmt.Sprintf("is a member of %d group(s)", groupCount))
	}

	msg := "cannot delete user: user"
	for i, p := range parts {
		if i > 0 {
			msg += ","
		}
		msg += " " + p
	}
	msg += ", resolve these obligations first"

	return &RefusalError{Reason: ReasonFinancialActivity, Message: msg}
}
