package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Tolerance is the acceptable rounding error, in currency units, when
// reconciling a set of splits against the expense amount.
var Tolerance = decimal.NewFromFloat(0.01)

var hundred = decimal.NewFromInt(100)

type PolicyKind int

const (
	PolicyEqual PolicyKind = iota
	PolicyUnequal
	PolicyPercentage
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyEqual:
		return "equal"
	case PolicyUnequal:
		return "unequal"
	case PolicyPercentage:
		return "percentage"
	}
	return "unknown"
}

// ParsePolicyKind maps the wire tag to a PolicyKind.
func ParsePolicyKind(s string) (PolicyKind, error) {
	switch s {
	case "equal":
		return PolicyEqual, nil
	case "unequal":
		return PolicyUnequal, nil
	case "percentage":
		return PolicyPercentage, nil
	}
	return 0, &ValidationError{Message: fmt.Sprintf("unknown split policy %q", s)}
}

// Policy is a closed variant: Kind selects the rule, and exactly one of
// Amounts (unequal) or Percentages (percentage) carries the parameters.
type Policy struct {
	Kind        PolicyKind
	Amounts     map[int]decimal.Decimal
	Percentages map[int]decimal.Decimal
}

// CalculateSplits turns an expense amount, payer, member set and policy into
// one owed amount per user. It is pure; persisting the result is the caller's
// job. Equal and percentage splits reconcile to the total exactly; unequal
// splits carry the caller's amounts, which may differ from the total by up to
// Tolerance.
func CalculateSplits(total decimal.Decimal, payerID int, memberIDs []int, p Policy) (map[int]decimal.Decimal, error) {
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, &ValidationError{Message: "amount must be greater than 0"}
	}
	if len(memberIDs) == 0 {
		return nil, &ValidationError{Message: "no users to split"}
	}

	members := make(map[int]bool, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = true
	}
	if !members[payerID] {
		return nil, &ValidationError{Message: "payer must be a member of the group"}
	}

	switch p.Kind {
	case PolicyEqual:
		return splitEqual(total, memberIDs), nil
	case PolicyUnequal:
		return splitUnequal(total, members, p.Amounts)
	case PolicyPercentage:
		return splitPercentage(total, members, p.Percentages)
	}
	return nil, &ValidationError{Message: fmt.Sprintf("unknown split policy %q", p.Kind)}
}

func splitEqual(total decimal.Decimal, memberIDs []int) map[int]decimal.Decimal {
	share := total.Div(decimal.NewFromInt(int64(len(memberIDs)))).Round(2)
	splits := make(map[int]decimal.Decimal, len(memberIDs))
	for _, id := range memberIDs {
		splits[id] = share
	}
	absorbRemainder(total, splits)
	return splits
}

// absorbRemainder folds the rounding remainder into one share so the splits
// always sum to the total exactly. The member with the highest id absorbs it,
// which keeps the result deterministic regardless of input order.
func absorbRemainder(total decimal.Decimal, splits map[int]decimal.Decimal) {
	sum := decimal.Zero
	ids := make([]int, 0, len(splits))
	for id, amount := range splits {
		sum = sum.Add(amount)
		ids = append(ids, id)
	}

	remainder := total.Sub(sum)
	if remainder.IsZero() {
		return
	}

	sort.Ints(ids)
	last := ids[len(ids)-1]
	splits[last] = splits[last].Add(remainder)
}

func splitUnequal(total decimal.Decimal, members map[int]bool, amounts map[int]decimal.Decimal) (map[int]decimal.Decimal, error) {
	if len(amounts) == 0 {
		return nil, &ValidationError{Message: "unequal split requires per-user amounts"}
	}

	sum := decimal.Zero
	splits := make(map[int]decimal.Decimal, len(amounts))
	for id, amount := range amounts {
		if !members[id] {
			return nil, &ValidationError{Message: fmt.Sprintf("user %d is not a member of the group", id)}
		}
		if amount.IsNegative() {
			return nil, &ValidationError{Message: fmt.Sprintf("split amount for user %d cannot be negative", id)}
		}
		sum = sum.Add(amount)
		splits[id] = amount.Round(2)
	}

	if sum.Sub(total).Abs().GreaterThan(Tolerance) {
		return nil, &ValidationError{
			Message: fmt.Sprintf("split amounts sum to %s, expected %s", sum.StringFixed(2), total.StringFixed(2)),
		}
	}
	return splits, nil
}

func splitPercentage(total decimal.Decimal, members map[int]bool, percentages map[int]decimal.Decimal) (map[int]decimal.Decimal, error) {
	if len(percentages) == 0 {
		return nil, &ValidationError{Message: "percentage split requires per-user percentages"}
	}

	sum := decimal.Zero
	for id, pct := range percentages {
		if !members[id] {
			return nil, &ValidationError{Message: fmt.Sprintf("user %d is not a member of the group", id)}
		}
		if pct.IsNegative() {
			return nil, &ValidationError{Message: fmt.Sprintf("percentage for user %d cannot be negative", id)}
		}
		sum = sum.Add(pct)
	}

	if sum.Sub(hundred).Abs().GreaterThan(Tolerance) {
		return nil, &ValidationError{
			Message: fmt.Sprintf("percentages sum to %s, expected 100", sum.StringFixed(2)),
		}
	}

	splits := make(map[int]decimal.Decimal, len(percentages))
	for id, pct := range percentages {
		splits[id] = pct.Div(hundred).Mul(total).Round(2)
	}
	absorbRemainder(total, splits)
	return splits, nil
}

// VerifySplitSum checks the per-expense invariant: splits must reconcile with
// the expense amount within Tolerance.
func VerifySplitSum(total decimal.Decimal, splits map[int]decimal.Decimal) error {
	sum := decimal.Zero
	for _, amount := range splits {
		sum = sum.Add(amount)
	}
	if sum.Sub(total).Abs().GreaterThan(Tolerance) {
		return &ValidationError{
			Message: fmt.Sprintf("splits sum to %s, expected %s", sum.StringFixed(2), total.StringFixed(2)),
		}
	}
	return nil
}
