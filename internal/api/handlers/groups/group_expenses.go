package groups

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"splitledger/internal/api/handlers"
	"splitledger/internal/ledger"
	"splitledger/internal/models"
	"splitledger/internal/repositories/sqlconnect"
	"splitledger/pkg/utils"

	"github.com/shopspring/decimal"
)

// FUNC TO CREATE A GROUP EXPENSE
func CreateGroupExpenseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromRequest(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	type expenseRequest struct {
		GroupID     int                     `json:"group_id"`
		Description string                  `json:"description"`
		Amount      decimal.Decimal         `json:"amount"`
		PaidBy      int                     `json:"paid_by"`
		Date        string                  `json:"date"`
		SplitType   string                  `json:"split_type"`
		Splits      map[int]decimal.Decimal `json:"splits"`
	}

	var req expenseRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.GroupID <= 0 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "group_id is required", http.StatusBadRequest)
		return
	}
	if req.Description == "" {
		utils.WriteErrorCode(w, ledger.CodeValidation, "description is required", http.StatusBadRequest)
		return
	}
	if req.Date != "" {
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			utils.WriteErrorCode(w, ledger.CodeValidation, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	if req.SplitType == "" {
		req.SplitType = "equal"
	}
	if req.PaidBy == 0 {
		req.PaidBy = userID
	}

	kind, err := ledger.ParsePolicyKind(req.SplitType)
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	policy := ledger.Policy{Kind: kind}
	switch kind {
	case ledger.PolicyUnequal:
		policy.Amounts = req.Splits
	case ledger.PolicyPercentage:
		policy.Percentages = req.Splits
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := memberRole(ctx, db, req.GroupID, userID); err != nil {
		handlers.WriteDomainError(w, err)
		return
	}
	if req.PaidBy != userID {
		if _, err := memberRole(ctx, db, req.GroupID, req.PaidBy); err != nil {
			utils.WriteErrorCode(w, ledger.CodeValidation, "payer is not a member of this group", http.StatusBadRequest)
			return
		}
	}

	memberIDs, err := fetchMemberIDs(ctx, db, req.GroupID)
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	splits, err := ledger.CalculateSplits(req.Amount, req.PaidBy, memberIDs, policy)
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	// Nothing that fails to reconcile with the expense amount may be persisted.
	if err := ledger.VerifySplitSum(req.Amount, splits); err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	tx, err := db.Begin()
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Best-effort double-submit guard. Same description, amount, payer and
	// date in the same group looks like a duplicate.
	var dupe bool
	dupeQuery := `
		SELECT EXISTS(
			SELECT 1 FROM expenses
			WHERE group_id = ? AND description = ? AND amount = ? AND paid_by = ?
				AND ((date IS NULL AND ? = '') OR date = ?)
		)`
	err = tx.QueryRowContext(ctx, dupeQuery, req.GroupID, req.Description, req.Amount, req.PaidBy, req.Date, req.Date).Scan(&dupe)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to check duplicate expense: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if dupe {
		tx.Rollback()
		utils.WriteErrorCode(w, ledger.CodeConflict, "an identical expense already exists in this group", http.StatusConflict)
		return
	}

	var date any
	if req.Date != "" {
		date = req.Date
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (group_id, paid_by, description, amount, date, split_policy)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.GroupID, req.PaidBy, req.Description, req.Amount, date, kind.String())
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to insert expense: %v", err)
		utils.WriteError(w, "failed to create expense", http.StatusInternalServerError)
		return
	}

	expenseID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to get last insert ID: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO expense_splits (expense_id, owed_by, amount) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to prepare split statement: %v", err)
		utils.WriteError(w, "failed to create expense", http.StatusInternalServerError)
		return
	}
	defer stmt.Close()

	splitViews := []models.ExpenseSplit{}
	for owedBy, amount := range splits {
		if _, err := stmt.ExecContext(ctx, expenseID, owedBy, amount); err != nil {
			tx.Rollback()
			utils.Logger.Errorf("failed to insert expense split: %v", err)
			utils.WriteError(w, "failed to create expense", http.StatusInternalServerError)
			return
		}
		splitViews = append(splitViews, models.ExpenseSplit{
			ExpenseID: int(expenseID),
			OwedBy:    owedBy,
			Amount:    amount,
		})
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to commit transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "expense created successfully",
		"data": map[string]interface{}{
			"expense_id":   expenseID,
			"group_id":     req.GroupID,
			"description":  req.Description,
			"amount":       req.Amount,
			"paid_by":      req.PaidBy,
			"date":         req.Date,
			"split_policy": kind.String(),
			"splits":       splitViews,
		},
	})
}

// FUNC TO LIST A GROUP'S EXPENSES
func GetGroupExpensesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromRequest(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	groupID, err := groupIDFromPath(r, "id")
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := memberRole(ctx, db, groupID, userID); err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, group_id, paid_by, description, amount, date, split_policy, created_at
		FROM expenses
		WHERE group_id = ?
		ORDER BY date DESC, id DESC`, groupID)
	if err != nil {
		utils.Logger.Errorf("failed to fetch expenses: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.GroupID, &e.PaidBy, &e.Description, &e.Amount, &e.Date, &e.SplitPolicy, &e.CreatedAt); err != nil {
			utils.Logger.Errorf("failed to scan expense: %v", err)
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("failed to read expenses: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"count":  len(expenses),
		"data":   expenses,
	})
}

// FUNC TO GET ONE EXPENSE WITH ITS SPLITS
func GetExpenseByIdHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromRequest(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	expenseID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || expenseID <= 0 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "invalid expense ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var e models.Expense
	err = db.QueryRowContext(ctx, `
		SELECT id, group_id, paid_by, description, amount, date, split_policy, created_at
		FROM expenses WHERE id = ?`, expenseID).
		Scan(&e.ID, &e.GroupID, &e.PaidBy, &e.Description, &e.Amount, &e.Date, &e.SplitPolicy, &e.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteErrorCode(w, ledger.CodeNotFound, "expense not found", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("failed to fetch expense: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if _, err := memberRole(ctx, db, e.GroupID, userID); err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	rows, err := db.QueryContext(ctx,
		"SELECT id, expense_id, owed_by, amount FROM expense_splits WHERE expense_id = ?", expenseID)
	if err != nil {
		utils.Logger.Errorf("failed to fetch expense splits: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	splits := []models.ExpenseSplit{}
	for rows.Next() {
		var s models.ExpenseSplit
		if err := rows.Scan(&s.ID, &s.ExpenseID, &s.OwedBy, &s.Amount); err != nil {
			utils.Logger.Errorf("failed to scan expense split: %v", err)
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		splits = append(splits, s)
	}
	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("failed to read expense splits: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"expense": e,
			"splits":  splits,
		},
	})
}

// FUNC TO DELETE AN EXPENSE
// Settlements are never touched; the response carries a warning count so the
// client can tell the user existing settlements may now over- or under-pay.
func DeleteExpenseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromRequest(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	expenseID, err := strconv.Atoi(r.PathValue("expense_id"))
	if err != nil || expenseID <= 0 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "invalid expense ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var groupID, paidBy int
	err = db.QueryRowContext(ctx,
		"SELECT group_id, paid_by FROM expenses WHERE id = ?", expenseID).Scan(&groupID, &paidBy)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteErrorCode(w, ledger.CodeNotFound, "expense not found", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("failed to fetch expense: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	role, err := memberRole(ctx, db, groupID, userID)
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}
	if paidBy != userID && role != "admin" {
		utils.WriteErrorCode(w, ledger.CodeValidation, "only the payer or a group admin can delete this expense", http.StatusBadRequest)
		return
	}

	var settlementCount int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM settlements WHERE group_id = ?", groupID).Scan(&settlementCount); err != nil {
		utils.Logger.Errorf("failed to count settlements: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	tx, err := db.Begin()
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expenseID); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to delete expense splits: %v", err)
		utils.WriteError(w, "failed to delete expense", http.StatusInternalServerError)
		return
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to delete expense: %v", err)
		utils.WriteError(w, "failed to delete expense", http.StatusInternalServerError)
		return
	}
	if rows, err := res.RowsAffected(); err != nil || rows == 0 {
		tx.Rollback()
		utils.WriteErrorCode(w, ledger.CodeNotFound, "expense not found", http.StatusNotFound)
		return
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to commit transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":                   "success",
		"message":                  "expense deleted successfully",
		"settlement_warning_count": settlementCount,
	})
}
