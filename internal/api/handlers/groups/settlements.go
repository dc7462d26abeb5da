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

// FUNC TO RECORD A SETTLEMENT
func CreateSettlementHandler(w http.ResponseWriter, r *http.Request) {
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

	type settlementRequest struct {
		GroupID int             `json:"group_id"`
		PaidBy  int             `json:"paid_by"`
		PaidTo  int             `json:"paid_to"`
		Amount  decimal.Decimal `json:"amount"`
	}

	var req settlementRequest
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
	if req.PaidBy == 0 {
		req.PaidBy = userID
	}
	if req.PaidTo <= 0 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "paid_to is required", http.StatusBadRequest)
		return
	}
	if req.PaidBy == req.PaidTo {
		utils.WriteErrorCode(w, ledger.CodeValidation, "payer and payee must be different users", http.StatusBadRequest)
		return
	}
	if !req.Amount.IsPositive() {
		utils.WriteErrorCode(w, ledger.CodeValidation, "amount must be greater than zero", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := memberRole(ctx, db, req.GroupID, userID); err != nil {
		handlers.WriteDomainError(w, err)
		return
	}
	if _, err := memberRole(ctx, db, req.GroupID, req.PaidBy); err != nil {
		utils.WriteErrorCode(w, ledger.CodeValidation, "payer is not a member of this group", http.StatusBadRequest)
		return
	}
	if _, err := memberRole(ctx, db, req.GroupID, req.PaidTo); err != nil {
		utils.WriteErrorCode(w, ledger.CodeValidation, "payee is not a member of this group", http.StatusBadRequest)
		return
	}

	res, err := db.ExecContext(ctx,
		"INSERT INTO settlements (group_id, paid_by, paid_to, amount) VALUES (?, ?, ?, ?)",
		req.GroupID, req.PaidBy, req.PaidTo, req.Amount)
	if err != nil {
		utils.Logger.Errorf("failed to insert settlement: %v", err)
		utils.WriteError(w, "failed to record settlement", http.StatusInternalServerError)
		return
	}

	settlementID, err := res.LastInsertId()
	if err != nil {
		utils.Logger.Errorf("failed to get last insert ID: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "settlement recorded successfully",
		"data": map[string]interface{}{
			"settlement_id": settlementID,
			"group_id":      req.GroupID,
			"paid_by":       req.PaidBy,
			"paid_to":       req.PaidTo,
			"amount":        req.Amount,
		},
	})
}

// FUNC TO LIST A GROUP'S SETTLEMENTS
func GetSettlementsHandler(w http.ResponseWriter, r *http.Request) {
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
		SELECT id, group_id, paid_by, paid_to, amount, created_at
		FROM settlements
		WHERE group_id = ?
		ORDER BY created_at DESC, id DESC`, groupID)
	if err != nil {
		utils.Logger.Errorf("failed to fetch settlements: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	settlements := []models.Settlement{}
	for rows.Next() {
		var s models.Settlement
		if err := rows.Scan(&s.ID, &s.GroupID, &s.PaidBy, &s.PaidTo, &s.Amount, &s.CreatedAt); err != nil {
			utils.Logger.Errorf("failed to scan settlement: %v", err)
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("failed to read settlements: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"count":  len(settlements),
		"data":   settlements,
	})
}

// FUNC TO DELETE A SETTLEMENT
func DeleteSettlementHandler(w http.ResponseWriter, r *http.Request) {
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

	settlementID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || settlementID <= 0 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "invalid settlement ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var groupID, paidBy int
	err = db.QueryRowContext(ctx,
		"SELECT group_id, paid_by FROM settlements WHERE id = ?", settlementID).Scan(&groupID, &paidBy)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteErrorCode(w, ledger.CodeNotFound, "settlement not found", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("failed to fetch settlement: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	role, err := memberRole(ctx, db, groupID, userID)
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}
	if paidBy != userID && role != "admin" {
		utils.WriteErrorCode(w, ledger.CodeValidation, "only the payer or a group admin can delete this settlement", http.StatusBadRequest)
		return
	}

	res, err := db.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", settlementID)
	if err != nil {
		utils.Logger.Errorf("failed to delete settlement: %v", err)
		utils.WriteError(w, "failed to delete settlement", http.StatusInternalServerError)
		return
	}
	if rows, err := res.RowsAffected(); err != nil || rows == 0 {
		utils.WriteErrorCode(w, ledger.CodeNotFound, "settlement not found", http.StatusNotFound)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "settlement deleted successfully",
	})
}

// FUNC TO CLEAN UP SETTLEMENTS LEFT BY EX-MEMBERS
func CleanupSettlementsHandler(w http.ResponseWriter, r *http.Request) {
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

	groupID, err := groupIDFromPath(r, "id")
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := requireAdmin(ctx, db, groupID, userID); err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	res, err := db.ExecContext(ctx, `
		DELETE FROM settlements
		WHERE group_id = ?
			AND (paid_by NOT IN (SELECT user_id FROM group_members WHERE group_id = ?)
				OR paid_to NOT IN (SELECT user_id FROM group_members WHERE group_id = ?))`,
		groupID, groupID, groupID)
	if err != nil {
		utils.Logger.Errorf("failed to clean up settlements: %v", err)
		utils.WriteError(w, "failed to clean up settlements", http.StatusInternalServerError)
		return
	}

	removed, _ := res.RowsAffected()

	utils.WriteJSON(w, map[string]interface{}{
		"status":        "success",
		"message":       "settlement cleanup complete",
		"removed_count": removed,
	})
}

// FUNC TO GET NET BALANCES FOR A GROUP
// Rows for users who have since left the group are computed but not rendered.
func GetGroupBalancesHandler(w http.ResponseWriter, r *http.Request) {
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

	balances, memberIDs, err := groupBalances(ctx, db, groupID)
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	type balanceView struct {
		UserID  int             `json:"user_id"`
		Balance decimal.Decimal `json:"balance"`
	}

	views := make([]balanceView, 0, len(memberIDs))
	for _, id := range memberIDs {
		views = append(views, balanceView{UserID: id, Balance: balances[id]})
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"data":   views,
	})
}
