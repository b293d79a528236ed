package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rumaak/bank-app/internal/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "bank.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return st
}

func TestUserRoundTrip(t *testing.T) {
	st := newStore(t)

	if _, err := st.GetUser("a@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := st.CreateUser(&domain.User{Email: "a@x.com", Password: "pw"}); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateAccount(&domain.Account{
		Email: "a@x.com", Name: "main", Balance: decimal.Zero, State: domain.StateOK,
	}); err != nil {
		t.Fatal(err)
	}

	user, err := st.GetUser("a@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if user.Password != "pw" || len(user.Accounts) != 1 || user.Accounts[0].Name != "main" {
		t.Fatalf("user=%+v", user)
	}
}

func TestRetryBusyBudget(t *testing.T) {
	busy := errors.New("database is locked")

	// Transient lock contention succeeds within the budget.
	calls := 0
	err := retry(func() error {
		calls++
		if calls < 3 {
			return busy
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if calls != 3 {
		t.Fatalf("calls=%d want=3", calls)
	}

	// A persistently locked file exhausts exactly busyAttempts tries and
	// surfaces the wrapped cause.
	calls = 0
	err = retry(func() error {
		calls++
		return busy
	})
	if !errors.Is(err, busy) {
		t.Fatalf("want wrapped busy error, got %v", err)
	}
	if calls != busyAttempts {
		t.Fatalf("calls=%d want=%d", calls, busyAttempts)
	}
}

func TestRetryNonBusyErrorNotRetried(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	if err := retry(func() error { calls++; return boom }); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if calls != 1 {
		t.Fatalf("calls=%d want=1", calls)
	}
}

func TestGetUserAccountsInsertionOrder(t *testing.T) {
	st := newStore(t)
	if err := st.CreateUser(&domain.User{Email: "a@x.com", Password: "pw"}); err != nil {
		t.Fatal(err)
	}
	// Insertion order, not alphabetical.
	for _, name := range []string{"savings", "checking", "bills"} {
		if err := st.CreateAccount(&domain.Account{
			Email: "a@x.com", Name: name, Balance: decimal.Zero, State: domain.StateOK,
		}); err != nil {
			t.Fatal(err)
		}
	}

	user, err := st.GetUser("a@x.com")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"savings", "checking", "bills"}
	if len(user.Accounts) != len(want) {
		t.Fatalf("accounts=%v", user.Accounts)
	}
	for i, name := range want {
		if user.Accounts[i].Name != name {
			t.Fatalf("accounts[%d]=%q want=%q", i, user.Accounts[i].Name, name)
		}
	}
}

func TestAccountUpdates(t *testing.T) {
	st := newStore(t)
	if err := st.CreateAccount(&domain.Account{
		Email: "a@x.com", Name: "main", Balance: decimal.Zero, State: domain.StateOK,
	}); err != nil {
		t.Fatal(err)
	}

	if err := st.UpdateAccountBalance("a@x.com", "main", decimal.NewFromInt(50)); err != nil {
		t.Fatal(err)
	}
	if err := st.UpdateAccountState("a@x.com", "main", domain.StateBlocked); err != nil {
		t.Fatal(err)
	}

	acc, err := st.GetAccount("a@x.com", "main")
	if err != nil {
		t.Fatal(err)
	}
	if !acc.Balance.Equal(decimal.NewFromInt(50)) || acc.State != domain.StateBlocked {
		t.Fatalf("acc=%+v", acc)
	}
}

func TestRecordsByAccountOrdered(t *testing.T) {
	st := newStore(t)
	day := func(d int) time.Time { return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC) }

	// Inserted out of order; the query sorts by date.
	for _, d := range []int{20, 10, 15} {
		if err := st.CreateRecord(&domain.Record{
			SourceEmail: "a@x.com", SourceName: "main",
			TargetEmail: "b@y.com", TargetName: "main",
			Amount: decimal.NewFromInt(1), Date: day(d),
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.CreateRecord(&domain.Record{
		SourceEmail: "c@z.com", SourceName: "other",
		TargetEmail: "d@w.com", TargetName: "other",
		Amount: decimal.NewFromInt(1), Date: day(1),
	}); err != nil {
		t.Fatal(err)
	}

	records, err := st.RecordsByAccount("a@x.com", "main")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("len=%d want=3", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Date.Before(records[i-1].Date) {
			t.Fatalf("records not ordered by date: %v", records)
		}
	}
}

func TestPreviousTargetDuplicateIgnored(t *testing.T) {
	st := newStore(t)
	pair := domain.PreviousTarget{
		SourceEmail: "a@x.com", TargetEmail: "b@y.com",
		SourceName: "main", TargetName: "main",
	}
	if err := st.CreatePreviousTarget(&pair); err != nil {
		t.Fatal(err)
	}
	dup := pair
	dup.ID = 0
	if err := st.CreatePreviousTarget(&dup); err != nil {
		t.Fatalf("duplicate insert should be silent, got %v", err)
	}

	pairs, err := st.PreviousTargetsBySource("a@x.com", "main")
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 {
		t.Fatalf("len=%d want=1", len(pairs))
	}
}

func TestRecurringPaymentLifecycle(t *testing.T) {
	st := newStore(t)
	next := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	rp := domain.RecurringPayment{
		SourceEmail: "a@x.com", SourceName: "main",
		TargetEmail: "b@y.com", TargetName: "main",
		NextPayment: next, Amount: decimal.NewFromInt(100),
		Interval: domain.IntervalWeek, Type: domain.DirectDebit,
	}
	if err := st.CreateRecurringPayment(&rp); err != nil {
		t.Fatal(err)
	}

	got, err := st.RecurringPaymentBySource("a@x.com", "main")
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != domain.DirectDebit || got.Interval != domain.IntervalWeek {
		t.Fatalf("payment=%+v", got)
	}

	advanced := next.AddDate(0, 0, 7)
	if err := st.UpdateNextPayment("a@x.com", "main", advanced); err != nil {
		t.Fatal(err)
	}
	got, err = st.RecurringPaymentBySource("a@x.com", "main")
	if err != nil {
		t.Fatal(err)
	}
	if got.NextPayment.Format(domain.DateFormat) != "2026-09-08" {
		t.Fatalf("next payment=%v", got.NextPayment)
	}

	all, err := st.AllRecurringPayments()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("len=%d want=1", len(all))
	}
}

func TestTxRollsBackOnError(t *testing.T) {
	st := newStore(t)
	if err := st.CreateAccount(&domain.Account{
		Email: "a@x.com", Name: "main", Balance: decimal.Zero, State: domain.StateOK,
	}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := st.Tx(func(tx *Store) error {
		if err := tx.UpdateAccountBalance("a@x.com", "main", decimal.NewFromInt(99)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}

	acc, err := st.GetAccount("a@x.com", "main")
	if err != nil {
		t.Fatal(err)
	}
	if !acc.Balance.Equal(decimal.Zero) {
		t.Fatalf("balance=%v want rollback to 0", acc.Balance)
	}
}
