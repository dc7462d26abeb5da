package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculateSplits(t *testing.T) {
	tests := []struct {
		name      string
		total     string
		payerID   int
		memberIDs []int
		policy    Policy
		wantErr   bool
		want      map[int]string
	}{
		{
			name:      "equal three-way split",
			total:     "30",
			payerID:   1,
			memberIDs: []int{1, 2, 3},
			policy:    Policy{Kind: PolicyEqual},
			want:      map[int]string{1: "10", 2: "10", 3: "10"},
		},
		{
			name:      "equal split with repeating decimal",
			total:     "100",
			payerID:   1,
			memberIDs: []int{1, 2, 3},
			policy:    Policy{Kind: PolicyEqual},
			want:      map[int]string{1: "33.33", 2: "33.33", 3: "33.33"},
		},
		{
			name:      "unequal split matching total",
			total:     "100",
			payerID:   1,
			memberIDs: []int{1, 2, 3},
			policy: Policy{
				Kind:    PolicyUnequal,
				Amounts: map[int]decimal.Decimal{1: dec("50"), 2: dec("30"), 3: dec("20")},
			},
			want: map[int]string{1: "50", 2: "30", 3: "20"},
		},
		{
			name:      "unequal split off by more than a cent",
			total:     "100",
			payerID:   1,
			memberIDs: []int{1, 2, 3},
			policy: Policy{
				Kind:    PolicyUnequal,
				Amounts: map[int]decimal.Decimal{1: dec("50"), 2: dec("30"), 3: dec("21")},
			},
			wantErr: true,
		},
		{
			name:      "unequal split within tolerance",
			total:     "100",
			payerID:   1,
			memberIDs: []int{1, 2, 3},
			policy: Policy{
				Kind:    PolicyUnequal,
				Amounts: map[int]decimal.Decimal{1: dec("33.33"), 2: dec("33.33"), 3: dec("33.33")},
			},
			want: map[int]string{1: "33.33", 2: "33.33", 3: "33.33"},
		},
		{
			name:      "unequal split with non-member",
			total:     "100",
			payerID:   1,
			memberIDs: []int{1, 2},
			policy: Policy{
				Kind:    PolicyUnequal,
				Amounts: map[int]decimal.Decimal{1: dec("50"), 99: dec("50")},
			},
			wantErr: true,
		},
		{
			name:      "percentage split 50-30-20",
			total:     "100",
			payerID:   1,
			memberIDs: []int{1, 2, 3},
			policy: Policy{
				Kind:        PolicyPercentage,
				Percentages: map[int]decimal.Decimal{1: dec("50"), 2: dec("30"), 3: dec("20")},
			},
			want: map[int]string{1: "50", 2: "30", 3: "20"},
		},
		{
			name:      "percentage split summing to 101 rejected",
			total:     "100",
			payerID:   1,
			memberIDs: []int{1, 2, 3},
			policy: Policy{
				Kind:        PolicyPercentage,
				Percentages: map[int]decimal.Decimal{1: dec("50"), 2: dec("30"), 3: dec("21")},
			},
			wantErr: true,
		},
		{
			name:      "percentage split with non-member",
			total:     "100",
			payerID:   1,
			memberIDs: []int{1, 2},
			policy: Policy{
				Kind:        PolicyPercentage,
				Percentages: map[int]decimal.Decimal{1: dec("50"), 99: dec("50")},
			},
			wantErr: true,
		},
		{
			name:      "payer not a member",
			total:     "30",
			payerID:   99,
			memberIDs: []int{1, 2, 3},
			policy:    Policy{Kind: PolicyEqual},
			wantErr:   true,
		},
		{
			name:      "empty member set",
			total:     "30",
			payerID:   1,
			memberIDs: nil,
			policy:    Policy{Kind: PolicyEqual},
			wantErr:   true,
		},
		{
			name:      "zero amount",
			total:     "0",
			payerID:   1,
			memberIDs: []int{1, 2},
			policy:    Policy{Kind: PolicyEqual},
			wantErr:   true,
		},
		{
			name:      "negative amount",
			total:     "-10",
			payerID:   1,
			memberIDs: []int{1, 2},
			policy:    Policy{Kind: PolicyEqual},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := CalculateSplits(dec(tt.total), tt.payerID, tt.memberIDs, tt.policy)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("CalculateSplits() expected error, got splits %v", splits)
				}
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("CalculateSplits() error = %T, want *ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CalculateSplits() unexpected error: %v", err)
			}
			if len(splits) != len(tt.want) {
				t.Fatalf("CalculateSplits() returned %d splits, want %d", len(splits), len(tt.want))
			}
			for id, wantStr := range tt.want {
				got, ok := splits[id]
				if !ok {
					t.Errorf("missing split for user %d", id)
					continue
				}
				if !got.Sub(dec(wantStr)).Abs().LessThanOrEqual(Tolerance) {
					t.Errorf("split for user %d = %s, want %s", id, got, wantStr)
				}
			}
		})
	}
}

func TestCalculateSplitsSumInvariant(t *testing.T) {
	// sum(splits) must equal the expense amount within tolerance for every
	// policy, including totals that do not divide evenly.
	totals := []string{"30", "100", "0.03", "99.99", "7"}
	memberIDs := []int{1, 2, 3}

	for _, total := range totals {
		splits, err := CalculateSplits(dec(total), 1, memberIDs, Policy{Kind: PolicyEqual})
		if err != nil {
			t.Fatalf("CalculateSplits(%s) unexpected error: %v", total, err)
		}
		if err := VerifySplitSum(dec(total), splits); err != nil {
			t.Errorf("VerifySplitSum(%s): %v", total, err)
		}
	}
}

func TestCalculateSplitsRoundingRemainder(t *testing.T) {
	// Rounding each share to cents accumulates drift as the member count
	// grows; the remainder must land on a single share so the sum still
	// reconciles with the amount exactly.
	tests := []struct {
		name      string
		total     string
		memberIDs []int
	}{
		{"one dollar six ways", "1.00", []int{1, 2, 3, 4, 5, 6}},
		{"ten cents four ways", "0.10", []int{1, 2, 3, 4}},
		{"hundred seven ways", "100", []int{1, 2, 3, 4, 5, 6, 7}},
		{"odd cents five ways", "33.37", []int{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := dec(tt.total)
			splits, err := CalculateSplits(total, tt.memberIDs[0], tt.memberIDs, Policy{Kind: PolicyEqual})
			if err != nil {
				t.Fatalf("CalculateSplits() unexpected error: %v", err)
			}

			sum := decimal.Zero
			for _, amount := range splits {
				sum = sum.Add(amount)
			}
			if !sum.Equal(total) {
				t.Errorf("splits sum to %s, want exactly %s", sum, total)
			}
			if err := VerifySplitSum(total, splits); err != nil {
				t.Errorf("VerifySplitSum(): %v", err)
			}

			// The absorbing share may differ from the others only by the
			// accumulated remainder, never by more than a cent per member.
			share := total.Div(decimal.NewFromInt(int64(len(tt.memberIDs)))).Round(2)
			for id, amount := range splits {
				drift := amount.Sub(share).Abs()
				limit := Tolerance.Mul(decimal.NewFromInt(int64(len(tt.memberIDs))))
				if drift.GreaterThan(limit) {
					t.Errorf("split for user %d = %s, drifts %s from the even share %s", id, amount, drift, share)
				}
			}
		})
	}
}

func TestCalculateSplitsPercentageRemainder(t *testing.T) {
	total := dec("0.10")
	splits, err := CalculateSplits(total, 1, []int{1, 2, 3}, Policy{
		Kind:        PolicyPercentage,
		Percentages: map[int]decimal.Decimal{1: dec("33.33"), 2: dec("33.33"), 3: dec("33.34")},
	})
	if err != nil {
		t.Fatalf("CalculateSplits() unexpected error: %v", err)
	}

	sum := decimal.Zero
	for _, amount := range splits {
		sum = sum.Add(amount)
	}
	if !sum.Equal(total) {
		t.Errorf("splits sum to %s, want exactly %s", sum, total)
	}
}

func TestParsePolicyKind(t *testing.T) {
	for _, tag := range []string{"equal", "unequal", "percentage"} {
		kind, err := ParsePolicyKind(tag)
		if err != nil {
			t.Fatalf("ParsePolicyKind(%q) unexpected error: %v", tag, err)
		}
		if kind.String() != tag {
			t.Errorf("ParsePolicyKind(%q).String() = %q", tag, kind.String())
		}
	}

	if _, err := ParsePolicyKind("weighted"); err == nil {
		t.Error("ParsePolicyKind(\"weighted\") expected error")
	}
}
