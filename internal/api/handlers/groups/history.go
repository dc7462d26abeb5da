package groups

import (
	"context"
	"net/http"
	"time"

	"splitledger/internal/api/handlers"
	"splitledger/internal/ledger"
	"splitledger/internal/repositories/sqlconnect"
	"splitledger/pkg/utils"
)

// FUNC TO GET THE UNIFIED GROUP HISTORY FEED
func GetGroupHistoryHandler(w http.ResponseWriter, r *http.Request) {
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
		SELECT id, description, amount, COALESCE(date, ''), paid_by
		FROM expenses WHERE group_id = ?`, groupID)
	if err != nil {
		utils.Logger.Errorf("failed to fetch expenses: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	expenses := []ledger.ExpenseRecord{}
	index := map[int]int{}
	for rows.Next() {
		var e ledger.ExpenseRecord
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.Date, &e.PaidBy); err != nil {
			utils.Logger.Errorf("failed to scan expense: %v", err)
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		index[e.ID] = len(expenses)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("failed to read expenses: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	splits, err := fetchSplitRows(ctx, db, groupID)
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}
	for _, s := range splits {
		if i, ok := index[s.ExpenseID]; ok {
			expenses[i].Splits = append(expenses[i].Splits, s)
		}
	}

	settlements, err := fetchSettlementRows(ctx, db, groupID)
	if err != nil {
		handlers.WriteDomainError(w, err)
		return
	}

	history := ledger.CompileHistory(expenses, settlements)

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"count":  len(history),
		"data":   history,
	})
}
