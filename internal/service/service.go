// Package service implements the bank's business rules on top of the store.
package service

import (
	"log"
	"time"

	"github.com/rumaak/bank-app/internal/domain"
	"github.com/rumaak/bank-app/internal/notify"
	"github.com/rumaak/bank-app/internal/store"
	"github.com/rumaak/bank-app/internal/wire"
)

// Reject is a business-rule violation. Its reason is sent to the client
// verbatim; no state is mutated when a handler returns one.
type Reject struct {
	Reason string
}

func (r *Reject) Error() string { return r.Reason }

var (
	ErrUserExists       = &Reject{"User already exists"}
	ErrUserMissing      = &Reject{"User does not exist"}
	ErrWrongPassword    = &Reject{"Wrong password"}
	ErrAccountMissing   = &Reject{"Account does not exist"}
	ErrAccountPair      = &Reject{"One of the accounts does not exist"}
	ErrPayerBlocked     = &Reject{"Payers account is blocked"}
	ErrNoDirectDebit    = &Reject{"No direct debit present"}
	ErrDebitUnavailable = &Reject{"The direct debit has already been spent or it is too low"}
	ErrRecurringExists  = &Reject{"Number of recurring payments for user exceeded"}
	ErrUnknownInterval  = &Reject{"Internal error: unknown time interval"}

	// AddAccount reports user absence with a different apostrophe form;
	// the desktop client matches on the exact string.
	ErrUserMissingAlt = &Reject{"User doesn't exist"}
	ErrAccountExists  = &Reject{"Account already exists"}
)

type Service struct {
	store    *store.Store
	notifier notify.Notifier
	now      func() time.Time
}

func New(st *store.Store, n notify.Notifier) *Service {
	return &Service{store: st, notifier: n, now: time.Now}
}

// WithClock replaces the service's time source. Tests use this to pin
// authorization windows and ledger dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// notifyStateChanged fires a best-effort notice. Failures are logged and
// otherwise ignored.
func (s *Service) notifyStateChanged(email, account string, state domain.State) {
	if err := s.notifier.StateChanged(email, account, state); err != nil {
		log.Printf("notify %s: %v", email, err)
	}
}

// accountFields serializes an account list as count;name;balance;state...
func accountFields(accounts []domain.Account) []string {
	fields := []string{wire.FormatCount(len(accounts))}
	for _, acc := range accounts {
		fields = append(fields, acc.Name, wire.FormatAmount(acc.Balance), acc.State.String())
	}
	return fields
}

// accountStatus serializes the single-account success response of the
// add-money and transfer operations.
func accountStatus(acc *domain.Account) []string {
	return []string{acc.Email, acc.Name, wire.FormatAmount(acc.Balance), acc.State.String()}
}
