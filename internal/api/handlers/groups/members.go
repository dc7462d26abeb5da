package groups

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"splitledger/internal/api/handlers"
	"splitledger/internal/ledger"
	"splitledger/internal/repositories/sqlconnect"
	"splitledger/pkg/utils"
)

// FUNC TO ADD A MEMBER DIRECTLY (ADMIN ONLY)
func AddMemberHandler(w http.ResponseWriter, r *http.Request) {
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

	groupID, err := groupIDFromPath(r, "id")
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	type addRequest struct {
		UserID int `json:"user_id"`
	}

	var req addRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.UserID <= 0 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "user_id is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := requireAdmin(ctx, db, groupID, userID); err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", req.UserID).Scan(&exists); err != nil {
		utils.Logger.Errorf("failed to look up user: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !exists {
		utils.WriteErrorCode(w, ledger.CodeNotFound, "user not found", http.StatusNotFound)
		return
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, 'member')",
		groupID, req.UserID)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			utils.WriteErrorCode(w, ledger.CodeConflict, "user is already a member of this group", http.StatusConflict)
			return
		}
		utils.Logger.Errorf("failed to add group member: %v", err)
		utils.WriteError(w, "failed to add member", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "member added successfully",
	})
}

// FUNC TO REMOVE A MEMBER (ADMIN ONLY)
func RemoveGroupMemberHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
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

	type removeRequest struct {
		UserID int `json:"user_id"`
	}

	var req removeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.UserID <= 0 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "user_id is required", http.StatusBadRequest)
		return
	}

	removeMember(w, r, groupID, req.UserID, func(ctx context.Context, tx *sql.Tx) error {
		return requireAdmin(ctx, tx, groupID, userID)
	}, req.UserID == userID)
}

// FUNC TO LEAVE A GROUP
func LeaveGroupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
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

	removeMember(w, r, groupID, userID, func(ctx context.Context, tx *sql.Tx) error {
		_, err := memberRole(ctx, tx, groupID, userID)
		return err
	}, true)
}

// removeMember runs the shared removal flow. The gates read balances inside
// the same transaction as the delete; a stale balance must not let a debtor
// slip out of the group.
func removeMember(w http.ResponseWriter, r *http.Request, groupID, targetID int, authorize func(context.Context, *sql.Tx) error, removingSelf bool) {
	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tx, err := db.Begin()
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := authorize(ctx, tx); err != nil {
		tx.Rollback()
		handlers.WriteDomainError(w, err)
		return
	}

	targetRole, err := memberRole(ctx, tx, groupID, targetID)
	if err != nil {
		tx.Rollback()
		handlers.WriteDomainError(w, err)
		return
	}

	adminCount, err := countAdmins(ctx, tx, groupID)
	if err != nil {
		tx.Rollback()
		handlers.WriteDomainError(w, err)
		return
	}

	balances, memberIDs, err := groupBalances(ctx, tx, groupID)
	if err != nil {
		tx.Rollback()
		handlers.WriteDomainError(w, err)
		return
	}

	if err := ledger.CheckRemoval(balances, targetID, len(memberIDs), adminCount, targetRole == "admin", removingSelf); err != nil {
		tx.Rollback()
		handlers.WriteDomainError(w, err)
		return
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, targetID)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to remove group member: %v", err)
		utils.WriteError(w, "failed to remove member", http.StatusInternalServerError)
		return
	}
	if rows, err := res.RowsAffected(); err != nil || rows == 0 {
		tx.Rollback()
		utils.WriteErrorCode(w, ledger.CodeNotFound, "member not found in group", http.StatusNotFound)
		return
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to commit transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	message := "member removed successfully"
	if removingSelf {
		message = "you have left the group"
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": message,
	})
}

// FUNC TO PROMOTE A MEMBER TO ADMIN
func PromoteMemberHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
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

	type promoteRequest struct {
		UserID int `json:"user_id"`
	}

	var req promoteRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.UserID <= 0 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "user_id is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := requireAdmin(ctx, db, groupID, userID); err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	targetRole, err := memberRole(ctx, db, groupID, req.UserID)
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}
	if targetRole == "admin" {
		utils.WriteErrorCode(w, ledger.CodeConflict, "user is already an admin", http.StatusConflict)
		return
	}

	if _, err := db.ExecContext(ctx,
		"UPDATE group_members SET role = 'admin' WHERE group_id = ? AND user_id = ?",
		groupID, req.UserID); err != nil {
		utils.Logger.Errorf("failed to promote member: %v", err)
		utils.WriteError(w, "failed to promote member", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "member promoted to admin",
	})
}

// FUNC TO REVOKE ADMIN PRIVILEGES
func DemoteAdminHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
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

	type demoteRequest struct {
		UserID int `json:"user_id"`
	}

	var req demoteRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.UserID <= 0 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "user_id is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tx, err := db.Begin()
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := requireAdmin(ctx, tx, groupID, userID); err != nil {
		tx.Rollback()
		handlers.WriteDomainError(w, err)
		return
	}

	targetRole, err := memberRole(ctx, tx, groupID, req.UserID)
	if err != nil {
		tx.Rollback()
		handlers.WriteDomainError(w, err)
		return
	}
	if targetRole != "admin" {
		tx.Rollback()
		utils.WriteErrorCode(w, ledger.CodeValidation, "user is not an admin", http.StatusBadRequest)
		return
	}

	adminCount, err := countAdmins(ctx, tx, groupID)
	if err != nil {
		tx.Rollback()
		handlers.WriteDomainError(w, err)
		return
	}

	if err := ledger.CheckAdminRevoke(adminCount); err != nil {
		tx.Rollback()
		handlers.WriteDomainError(w, err)
		return
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE group_members SET role = 'member' WHERE group_id = ? AND user_id = ?",
		groupID, req.UserID); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to demote admin: %v", err)
		utils.WriteError(w, "failed to revoke admin privileges", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to commit transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "admin privileges revoked",
	})
}
