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
	"splitledger/internal/models"
	"splitledger/internal/repositories/sqlconnect"
	"splitledger/pkg/utils"
)

// inviteCodeAttempts bounds collision retries on the unique invite_code
// column.
const inviteCodeAttempts = 5

// FUNC TO CREATE A GROUP
func CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	var newGroup models.Group
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&newGroup); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	newGroup.Name = strings.TrimSpace(newGroup.Name)
	newGroup.Description = strings.TrimSpace(newGroup.Description)
	if newGroup.Name == "" {
		utils.WriteErrorCode(w, ledger.CodeValidation, "group name is required", http.StatusBadRequest)
		return
	}
	if len(newGroup.Name) > 100 || len(newGroup.Description) > 500 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "name or description too long", http.StatusBadRequest)
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

	var groupID int64
	insertQuery := `INSERT INTO groups (name, description, invite_code, is_public, created_by) VALUES (?, ?, ?, ?, ?)`
	for attempt := 0; ; attempt++ {
		code := utils.GenerateInviteCode()

		res, execErr := tx.ExecContext(ctx, insertQuery, newGroup.Name, newGroup.Description, code, newGroup.IsPublic, userID)
		if execErr == nil {
			newGroup.InviteCode = code
			groupID, err = res.LastInsertId()
			if err != nil {
				tx.Rollback()
				utils.Logger.Errorf("failed to get last inserted ID: %v", err)
				utils.WriteError(w, "internal server error", http.StatusInternalServerError)
				return
			}
			break
		}

		if strings.Contains(execErr.Error(), "Duplicate entry") && attempt < inviteCodeAttempts-1 {
			continue
		}
		tx.Rollback()
		utils.Logger.Errorf("failed to create group: %v", execErr)
		utils.WriteError(w, "failed to create group, try again later!", http.StatusInternalServerError)
		return
	}

	insertMemberQuery := `INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, 'admin')`
	if _, err := tx.ExecContext(ctx, insertMemberQuery, groupID, userID); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to assign group admin: %v", err)
		utils.WriteError(w, "failed to assign group admin", http.StatusInternalServerError)
		return
	}

	if err = tx.Commit(); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to commit transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "Group created successfully",
		"data": map[string]interface{}{
			"group_id":    groupID,
			"group_name":  newGroup.Name,
			"invite_code": newGroup.InviteCode,
			"is_public":   newGroup.IsPublic,
			"role":        "admin",
		},
	})
}

// FUNC TO GET ALL GROUPS THE USER BELONGS TO
func GetMyGroupsHandler(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := `
		SELECT g.id, g.name, g.description, g.invite_code, g.is_public, g.created_by, g.created_at, gm.role,
			(SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id) AS member_count
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = ?
		ORDER BY g.created_at DESC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		utils.Logger.Errorf("failed to fetch groups: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	type groupSummary struct {
		models.Group
		Role        string `json:"role"`
		MemberCount int    `json:"member_count"`
	}

	groupList := []groupSummary{}
	for rows.Next() {
		var g groupSummary
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.InviteCode, &g.IsPublic, &g.CreatedBy, &g.CreatedAt, &g.Role, &g.MemberCount); err != nil {
			utils.Logger.Errorf("failed to scan group: %v", err)
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		groupList = append(groupList, g)
	}
	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("failed to read groups: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"count":  len(groupList),
		"data":   groupList,
	})
}

// FUNC TO GET A GROUP WITH ITS MEMBERS
func GetGroupByIDHandler(w http.ResponseWriter, r *http.Request) {
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

	var group models.Group
	query := "SELECT id, name, description, invite_code, is_public, created_by, created_at FROM groups WHERE id = ?"
	err = db.QueryRowContext(ctx, query, groupID).Scan(&group.ID, &group.Name, &group.Description, &group.InviteCode, &group.IsPublic, &group.CreatedBy, &group.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteErrorCode(w, ledger.CodeNotFound, "group not found", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("failed to fetch group: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	memberQuery := `
		SELECT u.id, u.username, u.email, gm.role, gm.joined_at
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = ?
		ORDER BY gm.joined_at ASC`
	rows, err := db.QueryContext(ctx, memberQuery, groupID)
	if err != nil {
		utils.Logger.Errorf("failed to fetch group members: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	type memberView struct {
		ID       int            `json:"id"`
		Username string         `json:"username"`
		Email    string         `json:"email"`
		Role     string         `json:"role"`
		JoinedAt sql.NullString `json:"joined_at,omitempty"`
	}

	members := []memberView{}
	for rows.Next() {
		var m memberView
		if err := rows.Scan(&m.ID, &m.Username, &m.Email, &m.Role, &m.JoinedAt); err != nil {
			utils.Logger.Errorf("failed to scan group member: %v", err)
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("failed to read group members: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"group":   group,
			"members": members,
		},
	})
}

// FUNC TO UPDATE GROUP NAME/DESCRIPTION/VISIBILITY
func UpdateGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	type updateRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsPublic    *bool   `json:"is_public"`
	}

	var req updateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Name == nil && req.Description == nil && req.IsPublic == nil {
		utils.WriteErrorCode(w, ledger.CodeValidation, "nothing to update", http.StatusBadRequest)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		utils.WriteErrorCode(w, ledger.CodeValidation, "group name cannot be empty", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := requireAdmin(ctx, db, groupID, userID); err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	setClauses := []string{}
	args := []any{}
	if req.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, strings.TrimSpace(*req.Name))
	}
	if req.Description != nil {
		setClauses = append(setClauses, "description = ?")
		args = append(args, strings.TrimSpace(*req.Description))
	}
	if req.IsPublic != nil {
		setClauses = append(setClauses, "is_public = ?")
		args = append(args, *req.IsPublic)
	}
	args = append(args, groupID)

	query := "UPDATE groups SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		utils.Logger.Errorf("failed to update group: %v", err)
		utils.WriteError(w, "failed to update group", http.StatusInternalServerError)
		return
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		utils.WriteErrorCode(w, ledger.CodeNotFound, "group not found", http.StatusNotFound)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "group updated successfully",
	})
}

// FUNC TO DELETE A GROUP
func DeleteGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	// The deletion gate counts inside the same transaction as the delete so
	// a concurrent expense cannot slip between check and commit.
	var expenseCount, settlementCount int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM expenses WHERE group_id = ?", groupID).Scan(&expenseCount); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to count expenses: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM settlements WHERE group_id = ?", groupID).Scan(&settlementCount); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to count settlements: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := ledger.CheckGroupDeletion(expenseCount, settlementCount); err != nil {
		tx.Rollback()
		handlers.WriteDomainError(w, err)
		return
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_invitations WHERE group_id = ?", groupID); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to delete group invitations: %v", err)
		utils.WriteError(w, "failed to delete group", http.StatusInternalServerError)
		return
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM group_members WHERE group_id = ?", groupID); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to delete group members: %v", err)
		utils.WriteError(w, "failed to delete group", http.StatusInternalServerError)
		return
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to delete group: %v", err)
		utils.WriteError(w, "failed to delete group", http.StatusInternalServerError)
		return
	}
	if rows, err := res.RowsAffected(); err != nil || rows == 0 {
		tx.Rollback()
		utils.WriteErrorCode(w, ledger.CodeNotFound, "group not found", http.StatusNotFound)
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
		"message": "group deleted successfully",
	})
}

// FUNC TO JOIN A PUBLIC GROUP BY INVITE CODE
func JoinGroupByCodeHandler(w http.ResponseWriter, r *http.Request) {
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

	type joinRequest struct {
		InviteCode string `json:"invite_code"`
	}

	var req joinRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	req.InviteCode = strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if req.InviteCode == "" {
		utils.WriteErrorCode(w, ledger.CodeValidation, "invite code is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var group models.Group
	query := "SELECT id, name, is_public FROM groups WHERE invite_code = ?"
	err := db.QueryRowContext(ctx, query, req.InviteCode).Scan(&group.ID, &group.Name, &group.IsPublic)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteErrorCode(w, ledger.CodeNotFound, "no group found for that invite code", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("failed to look up invite code: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !group.IsPublic {
		utils.WriteErrorCode(w, ledger.CodeValidation, "this group is private, ask an admin for an email invitation", http.StatusBadRequest)
		return
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, 'member')",
		group.ID, userID)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			utils.WriteErrorCode(w, ledger.CodeConflict, "you are already a member of this group", http.StatusConflict)
			return
		}
		utils.Logger.Errorf("failed to join group: %v", err)
		utils.WriteError(w, "failed to join group", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "joined group successfully",
		"data": map[string]interface{}{
			"group_id":   group.ID,
			"group_name": group.Name,
			"role":       "member",
		},
	})
}

// FUNC TO PREVIEW A GROUP BY INVITE CODE
// Unauthenticated; exposes only what a would-be joiner needs to see.
func GroupCodePreviewHandler(w http.ResponseWriter, r *http.Request) {
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

	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))
	if code == "" {
		utils.WriteErrorCode(w, ledger.CodeValidation, "invite code is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var name, description string
	var memberCount int
	query := `
		SELECT g.name, g.description,
			(SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id)
		FROM groups g
		WHERE g.invite_code = ? AND g.is_public = TRUE`
	err := db.QueryRowContext(ctx, query, code).Scan(&name, &description, &memberCount)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteErrorCode(w, ledger.CodeNotFound, "no group found for that invite code", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("failed to preview invite code: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"name":         name,
			"description":  description,
			"member_count": memberCount,
		},
	})
}
