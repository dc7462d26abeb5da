package groups

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"splitledger/internal/api/handlers"
	"splitledger/internal/ledger"
	"splitledger/internal/models"
	"splitledger/internal/repositories/sqlconnect"
	"splitledger/pkg/utils"
)

func inviteExpiry() (time.Time, error) {
	days := 7
	if env := os.Getenv("INVITE_TOKEN_EXP_DURATION"); env != "" {
		parsed, err := strconv.Atoi(env)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid INVITE_TOKEN_EXP_DURATION: %w", err)
		}
		days = parsed
	}
	return time.Now().Add(time.Hour * 24 * time.Duration(days)), nil
}

// newInviteToken returns the raw token for the email link and the sha256 hash
// stored in the database. Only the hash ever touches disk.
func newInviteToken() (raw string, hashed string, err error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", "", err
	}
	hash := sha256.Sum256(tokenBytes)
	return hex.EncodeToString(tokenBytes), hex.EncodeToString(hash[:]), nil
}

func hashInviteToken(raw string) (string, error) {
	bytes, err := hex.DecodeString(raw)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(bytes)
	return hex.EncodeToString(hash[:]), nil
}

// FUNC TO INVITE MEMBERS TO GROUP
func InviteMembersHandler(w http.ResponseWriter, r *http.Request) {
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

	type inviteRequest struct {
		Email string `json:"email"`
	}

	var invites []inviteRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err = json.Unmarshal(body, &invites); err != nil {
		utils.WriteError(w, "invalid JSON array", http.StatusBadRequest)
		return
	}
	if len(invites) == 0 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "no invites provided", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
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

	var group models.Group
	err = tx.QueryRowContext(ctx, "SELECT name, description FROM groups WHERE id = ?", groupID).
		Scan(&group.Name, &group.Description)
	if err != nil {
		tx.Rollback()
		utils.WriteErrorCode(w, ledger.CodeNotFound, "group not found", http.StatusNotFound)
		return
	}

	expiryTime, err := inviteExpiry()
	if err != nil {
		tx.Rollback()
		utils.ErrorHandler(err, "invalid invite token duration")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	expiry := expiryTime.UTC().Format("2006-01-02 15:04:05")

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO group_invitations (group_id, email, token, status, invited_by, expires_at)
		VALUES (?, ?, ?, 'pending', ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		utils.ErrorHandler(err, "failed to prepare insert statement")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer stmt.Close()

	addedInvites := 0
	skippedInvites := 0
	var successfulInvites []string
	var skippedDetails []map[string]string

	for _, inv := range invites {
		email := strings.ToLower(strings.TrimSpace(inv.Email))
		if email == "" || !strings.Contains(email, "@") {
			skippedInvites++
			skippedDetails = append(skippedDetails, map[string]string{
				"email":  email,
				"reason": "email is empty or invalid",
			})
			continue
		}

		var exists bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM group_invitations WHERE group_id = ? AND email = ? AND status = 'pending'
			)
		`, groupID, email).Scan(&exists)
		if err == nil && exists {
			skippedInvites++
			skippedDetails = append(skippedDetails, map[string]string{
				"email":  email,
				"reason": "user already invited to this group, use the resend invite endpoint",
			})
			continue
		}

		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM group_members WHERE group_id = ? AND user_id = (
					SELECT id FROM users WHERE email = ?
				)
			)
		`, groupID, email).Scan(&exists)
		if err == nil && exists {
			skippedInvites++
			skippedDetails = append(skippedDetails, map[string]string{
				"email":  email,
				"reason": "user is already a group member",
			})
			continue
		}

		token, hashedToken, err := newInviteToken()
		if err != nil {
			tx.Rollback()
			utils.ErrorHandler(err, "failed to generate token")
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if _, err = stmt.ExecContext(ctx, groupID, email, hashedToken, userID, expiry); err != nil {
			tx.Rollback()
			utils.Logger.Errorf("failed to insert invitation for %s: %v", email, err)
			utils.WriteError(w, "failed to save invites", http.StatusInternalServerError)
			return
		}

		addedInvites++
		successfulInvites = append(successfulInvites, email)

		inviteLink := fmt.Sprintf("%s/groups/invite/%s", os.Getenv("APP_BASE_URL"), token)
		go func(email, link string) {
			if err := utils.SendGroupInviteEmail(email, group.Name, group.Description, link, expiryTime); err != nil {
				utils.Logger.Errorf("failed to send invite email to %s: %v", email, err)
			}
		}(email, inviteLink)
	}

	if err = tx.Commit(); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to commit transaction: %v", err)
		utils.WriteError(w, "failed to save invites", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":            "success",
		"added_invites":     addedInvites,
		"skipped_invites":   skippedInvites,
		"successful_emails": successfulInvites,
		"skipped_details":   skippedDetails,
		"message":           fmt.Sprintf("%d invites sent, %d skipped", addedInvites, skippedInvites),
	})
}

// FUNC TO ACCEPT GROUP INVITATION
func AcceptInvitationHandler(w http.ResponseWriter, r *http.Request) {
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

	hashedToken, err := hashInviteToken(r.PathValue("tokenCode"))
	if err != nil {
		utils.WriteErrorCode(w, ledger.CodeValidation, "invalid invite token", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var groupInvite models.GroupInvitation
	query := "SELECT id, group_id, email, status FROM group_invitations WHERE token = ? AND expires_at > ?"
	err = db.QueryRowContext(ctx, query, hashedToken, time.Now().UTC().Format("2006-01-02 15:04:05")).
		Scan(&groupInvite.ID, &groupInvite.GroupID, &groupInvite.Email, &groupInvite.Status)
	if err != nil {
		utils.WriteErrorCode(w, ledger.CodeValidation, "invite token expired or invalid", http.StatusBadRequest)
		return
	}

	switch groupInvite.Status {
	case "accepted":
		utils.WriteErrorCode(w, ledger.CodeConflict, "invitation already accepted", http.StatusConflict)
		return
	case "expired":
		utils.WriteErrorCode(w, ledger.CodeValidation, "invitation already expired", http.StatusBadRequest)
		return
	case "revoked":
		utils.WriteErrorCode(w, ledger.CodeValidation, "invitation revoked by admin", http.StatusBadRequest)
		return
	}

	tx, err := db.Begin()
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE group_invitations SET status = 'accepted' WHERE id = ?",
		groupInvite.ID); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("error updating invite: %v", err)
		utils.WriteError(w, "unable to join group at the moment, please try again later!", http.StatusInternalServerError)
		return
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, 'member')",
		groupInvite.GroupID, userID)
	if err != nil {
		tx.Rollback()
		if strings.Contains(err.Error(), "Duplicate entry") {
			utils.WriteErrorCode(w, ledger.CodeConflict, "you are already a member of this group", http.StatusConflict)
			return
		}
		utils.Logger.Errorf("failed to join group: %v", err)
		utils.WriteError(w, "failed to join group", http.StatusInternalServerError)
		return
	}

	if err = tx.Commit(); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to commit transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "invite accepted successfully",
		"data": map[string]interface{}{
			"group_id": groupInvite.GroupID,
			"role":     "member",
		},
	})
}

// FUNC TO LIST PENDING INVITES FOR ADMIN
func ListPendingInvitesHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := requireAdmin(ctx, db, groupID, userID); err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, email, status, invited_by, expires_at, created_at
		FROM group_invitations
		WHERE group_id = ? AND status = 'pending'
		ORDER BY created_at DESC`, groupID)
	if err != nil {
		utils.Logger.Errorf("failed to fetch pending invites: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	invites := []models.GroupInvitation{}
	for rows.Next() {
		var inv models.GroupInvitation
		inv.GroupID = groupID
		if err := rows.Scan(&inv.ID, &inv.Email, &inv.Status, &inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt); err != nil {
			utils.Logger.Errorf("failed to scan invite: %v", err)
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("failed to read invites: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"count":  len(invites),
		"data":   invites,
	})
}

// FUNC TO REVOKE INVITATION
func RevokeInvitationHandler(w http.ResponseWriter, r *http.Request) {
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

	inviteID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || inviteID <= 0 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "invalid invite ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var groupID int
	var status string
	err = db.QueryRowContext(ctx,
		"SELECT group_id, status FROM group_invitations WHERE id = ?", inviteID).
		Scan(&groupID, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteErrorCode(w, ledger.CodeNotFound, "invitation not found", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("failed to fetch invitation: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := requireAdmin(ctx, db, groupID, userID); err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	if status != "pending" {
		utils.WriteErrorCode(w, ledger.CodeConflict, "only pending invitations can be revoked", http.StatusConflict)
		return
	}

	if _, err := db.ExecContext(ctx,
		"UPDATE group_invitations SET status = 'revoked' WHERE id = ?", inviteID); err != nil {
		utils.Logger.Errorf("failed to revoke invitation: %v", err)
		utils.WriteError(w, "failed to revoke invitation", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "invitation revoked",
	})
}

// FUNC TO RESEND INVITATION
// A resend rotates the token; the old link stops working.
func ResendInviteHandler(w http.ResponseWriter, r *http.Request) {
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

	groupID, err := groupIDFromPath(r, "groupId")
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	inviteID, err := strconv.Atoi(r.PathValue("inviteId"))
	if err != nil || inviteID <= 0 {
		utils.WriteErrorCode(w, ledger.CodeValidation, "invalid invite ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := requireAdmin(ctx, db, groupID, userID); err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	var email, status string
	var groupName, groupDescription string
	err = db.QueryRowContext(ctx, `
		SELECT gi.email, gi.status, g.name, g.description
		FROM group_invitations gi
		JOIN groups g ON g.id = gi.group_id
		WHERE gi.id = ? AND gi.group_id = ?`, inviteID, groupID).
		Scan(&email, &status, &groupName, &groupDescription)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteErrorCode(w, ledger.CodeNotFound, "invitation not found", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("failed to fetch invitation: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if status != "pending" && status != "expired" {
		utils.WriteErrorCode(w, ledger.CodeConflict, "only pending or expired invitations can be resent", http.StatusConflict)
		return
	}

	expiryTime, err := inviteExpiry()
	if err != nil {
		utils.ErrorHandler(err, "invalid invite token duration")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	token, hashedToken, err := newInviteToken()
	if err != nil {
		utils.ErrorHandler(err, "failed to generate token")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	_, err = db.ExecContext(ctx, `
		UPDATE group_invitations
		SET token = ?, status = 'pending', expires_at = ?
		WHERE id = ?`,
		hashedToken, expiryTime.UTC().Format("2006-01-02 15:04:05"), inviteID)
	if err != nil {
		utils.Logger.Errorf("failed to refresh invitation: %v", err)
		utils.WriteError(w, "failed to resend invitation", http.StatusInternalServerError)
		return
	}

	inviteLink := fmt.Sprintf("%s/groups/invite/%s", os.Getenv("APP_BASE_URL"), token)
	go func(email, link string) {
		if err := utils.SendGroupInviteEmail(email, groupName, groupDescription, link, expiryTime); err != nil {
			utils.Logger.Errorf("failed to send invite email to %s: %v", email, err)
		}
	}(email, inviteLink)

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "invitation resent successfully",
	})
}
