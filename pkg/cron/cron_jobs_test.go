package cron

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestNotifyDebtorsReturnsWhenEverySendFails(t *testing.T) {
	orig := sendReminder
	defer func() { sendReminder = orig }()

	var calls int32
	sendReminder = func(to, username, amountOwed, groupName string) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("smtp unavailable")
	}

	// Well past any plausible internal buffering; a bounded error channel
	// would deadlock here.
	debtors := make([]debtorNotice, 50)
	for i := range debtors {
		debtors[i] = debtorNotice{
			email:     fmt.Sprintf("debtor%d@example.com", i),
			username:  fmt.Sprintf("debtor%d", i),
			owed:      "10.00",
			groupName: "Trip",
		}
	}

	done := make(chan struct{})
	go func() {
		notifyDebtors(debtors)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("notifyDebtors did not return with all sends failing")
	}

	if got := atomic.LoadInt32(&calls); got != int32(len(debtors)) {
		t.Errorf("sendReminder called %d times, want %d", got, len(debtors))
	}
}

func TestNotifyDebtorsNoDebtors(t *testing.T) {
	orig := sendReminder
	defer func() { sendReminder = orig }()

	sendReminder = func(to, username, amountOwed, groupName string) error {
		t.Error("sendReminder should not be called with no debtors")
		return nil
	}

	notifyDebtors(nil)
}
