package groups

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"

	"splitledger/internal/ledger"

	"github.com/shopspring/decimal"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the loaders below can
// run inside or outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func groupIDFromPath(r *http.Request, key string) (int, error) {
	id, err := strconv.Atoi(r.PathValue(key))
	if err != nil || id <= 0 {
		return 0, &ledger.ValidationError{Message: "invalid group ID"}
	}
	return id, nil
}

// memberRole returns the caller's role in the group, or NotFoundError if they
// are not a member.
func memberRole(ctx context.Context, q querier, groupID, userID int) (string, error) {
	var role string
	err := q.QueryRowContext(ctx,
		"SELECT role FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", &ledger.NotFoundError{Message: "you are not a member of this group"}
	}
	if err != nil {
		return "", &ledger.PersistenceError{Message: "failed to check group membership", Err: err}
	}
	return role, nil
}

func requireAdmin(ctx context.Context, q querier, groupID, userID int) error {
	role, err := memberRole(ctx, q, groupID, userID)
	if err != nil {
		return err
	}
	if role != "admin" {
		return &ledger.ValidationError{Message: "only group admins can perform this action"}
	}
	return nil
}

func fetchMemberIDs(ctx context.Context, q querier, groupID int) ([]int, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ?", groupID)
	if err != nil {
		return nil, &ledger.PersistenceError{Message: "failed to fetch group members", Err: err}
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, &ledger.PersistenceError{Message: "failed to scan group member", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &ledger.PersistenceError{Message: "failed to read group members", Err: err}
	}
	return ids, nil
}

func countAdmins(ctx context.Context, q querier, groupID int) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM group_members WHERE group_id = ? AND role = 'admin'",
		groupID).Scan(&n)
	if err != nil {
		return 0, &ledger.PersistenceError{Message: "failed to count group admins", Err: err}
	}
	return n, nil
}

func fetchSplitRows(ctx context.Context, q querier, groupID int) ([]ledger.SplitRow, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT es.expense_id, e.paid_by, es.owed_by, es.amount
		FROM expense_splits es
		JOIN expenses e ON e.id = es.expense_id
		WHERE e.group_id = ?`, groupID)
	if err != nil {
		return nil, &ledger.PersistenceError{Message: "failed to fetch expense splits", Err: err}
	}
	defer rows.Close()

	var splits []ledger.SplitRow
	for rows.Next() {
		var s ledger.SplitRow
		if err := rows.Scan(&s.ExpenseID, &s.PayerID, &s.OwedBy, &s.Amount); err != nil {
			return nil, &ledger.PersistenceError{Message: "failed to scan expense split", Err: err}
		}
		splits = append(splits, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &ledger.PersistenceError{Message: "failed to read expense splits", Err: err}
	}
	return splits, nil
}

func fetchSettlementRows(ctx context.Context, q querier, groupID int) ([]ledger.SettlementRow, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, paid_by, paid_to, amount FROM settlements WHERE group_id = ?", groupID)
	if err != nil {
		return nil, &ledger.PersistenceError{Message: "failed to fetch settlements", Err: err}
	}
	defer rows.Close()

	var settlements []ledger.SettlementRow
	for rows.Next() {
		var s ledger.SettlementRow
		if err := rows.Scan(&s.ID, &s.PaidBy, &s.PaidTo, &s.Amount); err != nil {
			return nil, &ledger.PersistenceError{Message: "failed to scan settlement", Err: err}
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &ledger.PersistenceError{Message: "failed to read settlements", Err: err}
	}
	return settlements, nil
}

// groupBalances loads everything the balance pass needs and runs it.
func groupBalances(ctx context.Context, q querier, groupID int) (map[int]decimal.Decimal, []int, error) {
	memberIDs, err := fetchMemberIDs(ctx, q, groupID)
	if err != nil {
		return nil, nil, err
	}
	splits, err := fetchSplitRows(ctx, q, groupID)
	if err != nil {
		return nil, nil, err
	}
	settlements, err := fetchSettlementRows(ctx, q, groupID)
	if err != nil {
		return nil, nil, err
	}

	return ledger.ComputeBalances(memberIDs, splits, settlements), memberIDs, nil
}
