package cron

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"splitledger/internal/auth"
	"splitledger/internal/ledger"
	"splitledger/pkg/utils"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

func StartCronJob(db *sql.DB, revocations auth.RevocationStore) *cron.Cron {
	c := cron.New()

	// Runs every 6 hours — mark expired invitations
	_, err := c.AddFunc("0 */6 * * *", func() {
		err := CheckAndUpdateExpiredInvitations(db)
		if err != nil {
			utils.Logger.Errorf("Cron job failed to update expired invitations: %v", err)
		}
	})
	if err != nil {
		utils.Logger.Errorf("Failed to schedule invitation expiration job: %v", err)
	}

	// Runs hourly — drop revoked tokens whose lifetime has passed
	_, err = c.AddFunc("0 * * * *", func() {
		err := PurgeExpiredRevocations(revocations)
		if err != nil {
			utils.Logger.Errorf("Cron job failed to purge revoked tokens: %v", err)
		}
	})
	if err != nil {
		utils.Logger.Errorf("Failed to schedule revoked token purge job: %v", err)
	}

	// Runs daily at midnight — remind members with negative balances
	_, err = c.AddFunc("0 0 * * *", func() {
		err := SendReminderEmailsToDebtors(db)
		if err != nil {
			utils.Logger.Errorf("Cron job failed to send reminder emails: %v", err)
		}
	})
	if err != nil {
		utils.Logger.Errorf("Failed to schedule debtor reminder job: %v", err)
	}

	c.Start()
	utils.Logger.Info("Cron jobs started (invitation expiry every 6h, token purge hourly, debtor reminders daily at midnight)")
	return c
}

// -------------------------------------------------------------
// Check and update expired group invitations
// -------------------------------------------------------------
func CheckAndUpdateExpiredInvitations(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := db.ExecContext(ctx, `
		UPDATE group_invitations
		SET status = 'expired'
		WHERE expires_at < ? AND status = 'pending'
	`, time.Now().UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected > 0 {
		utils.Logger.Infof("Updated %d expired invitations to status 'expired'", rowsAffected)
	}
	return nil
}

// -------------------------------------------------------------
// Purge expired entries from the token blocklist
// -------------------------------------------------------------
func PurgeExpiredRevocations(revocations auth.RevocationStore) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	purged, err := revocations.PurgeExpired(ctx)
	if err != nil {
		return err
	}

	if purged > 0 {
		utils.Logger.Infof("Purged %d expired token revocations", purged)
	}
	return nil
}

// -------------------------------------------------------------
// Send daily reminders to members with negative net balances
// -------------------------------------------------------------
func SendReminderEmailsToDebtors(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	groupRows, err := db.QueryContext(ctx, `
		SELECT DISTINCT g.id, g.name
		FROM groups g
		WHERE EXISTS (SELECT 1 FROM expenses e WHERE e.group_id = g.id)
			OR EXISTS (SELECT 1 FROM settlements s WHERE s.group_id = g.id)
	`)
	if err != nil {
		return err
	}
	defer groupRows.Close()

	type activeGroup struct {
		id   int
		name string
	}
	var groups []activeGroup
	for groupRows.Next() {
		var g activeGroup
		if err := groupRows.Scan(&g.id, &g.name); err != nil {
			utils.Logger.Errorf("Failed to scan group row: %v", err)
			continue
		}
		groups = append(groups, g)
	}
	if err := groupRows.Err(); err != nil {
		return err
	}

	var debtors []debtorNotice
	for _, g := range groups {
		balances, err := groupNetBalances(ctx, db, g.id)
		if err != nil {
			utils.Logger.Errorf("Failed to compute balances for group %d: %v", g.id, err)
			continue
		}

		for userID, balance := range balances {
			if balance.GreaterThanOrEqual(ledger.Tolerance.Neg()) {
				continue
			}

			var email, username string
			err := db.QueryRowContext(ctx,
				"SELECT email, username FROM users WHERE id = ?", userID).Scan(&email, &username)
			if err != nil {
				utils.Logger.Errorf("Failed to look up debtor %d: %v", userID, err)
				continue
			}

			debtors = append(debtors, debtorNotice{
				email:     email,
				username:  username,
				owed:      balance.Abs().StringFixed(2),
				groupName: g.name,
			})
		}
	}

	notifyDebtors(debtors)

	utils.Logger.Info("Finished sending debtor reminder emails")
	return nil
}

type debtorNotice struct {
	email     string
	username  string
	owed      string
	groupName string
}

// Swappable in tests; SMTP is the only implementation in production.
var sendReminder = utils.SendDebtorReminderEmail

// notifyDebtors fans out one send per debtor and waits for all of them. Each
// goroutine logs its own failure, so a send can never block on a shared
// channel no matter how many fail.
func notifyDebtors(debtors []debtorNotice) {
	var wg sync.WaitGroup
	for _, d := range debtors {
		wg.Add(1)
		go func(d debtorNotice) {
			defer wg.Done()

			if err := sendReminder(d.email, d.username, d.owed, d.groupName); err != nil {
				utils.Logger.Errorf("failed to send reminder email to %s: %v", d.email, err)
				return
			}
			utils.Logger.Infof("Sent reminder to %s (%s) — owes $%s in '%s'", d.username, d.email, d.owed, d.groupName)
		}(d)
	}
	wg.Wait()
}

// groupNetBalances loads one group's members, splits and settlements and runs
// the balance pass.
func groupNetBalances(ctx context.Context, db *sql.DB, groupID int) (map[int]decimal.Decimal, error) {
	memberRows, err := db.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ?", groupID)
	if err != nil {
		return nil, err
	}
	defer memberRows.Close()

	var memberIDs []int
	for memberRows.Next() {
		var id int
		if err := memberRows.Scan(&id); err != nil {
			return nil, err
		}
		memberIDs = append(memberIDs, id)
	}
	if err := memberRows.Err(); err != nil {
		return nil, err
	}

	splitRows, err := db.QueryContext(ctx, `
		SELECT es.expense_id, e.paid_by, es.owed_by, es.amount
		FROM expense_splits es
		JOIN expenses e ON e.id = es.expense_id
		WHERE e.group_id = ?`, groupID)
	if err != nil {
		return nil, err
	}
	defer splitRows.Close()

	var splits []ledger.SplitRow
	for splitRows.Next() {
		var s ledger.SplitRow
		if err := splitRows.Scan(&s.ExpenseID, &s.PayerID, &s.OwedBy, &s.Amount); err != nil {
			return nil, err
		}
		splits = append(splits, s)
	}
	if err := splitRows.Err(); err != nil {
		return nil, err
	}

	settlementRows, err := db.QueryContext(ctx,
		"SELECT id, paid_by, paid_to, amount FROM settlements WHERE group_id = ?", groupID)
	if err != nil {
		return nil, err
	}
	defer settlementRows.Close()

	var settlements []ledger.SettlementRow
	for settlementRows.Next() {
		var s ledger.SettlementRow
		if err := settlementRows.Scan(&s.ID, &s.PaidBy, &s.PaidTo, &s.Amount); err != nil {
			return nil, err
		}
		settlements = append(settlements, s)
	}
	if err := settlementRows.Err(); err != nil {
		return nil, err
	}

	return ledger.ComputeBalances(memberIDs, splits, settlements), nil
}
