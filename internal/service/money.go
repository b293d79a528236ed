package service

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rumaak/bank-app/internal/domain"
	"github.com/rumaak/bank-app/internal/store"
)

// stateChange is a blocked/unblocked transition detected inside a
// transaction. Notices go out only after the transaction commits, so a
// rollback never leaves the owner informed of a state that was not kept.
type stateChange struct {
	email   string
	account string
	state   domain.State
}

// applyBalance writes a new balance, evaluating the blocking threshold in
// both directions. Crossing below BlockLimit from ok blocks the account;
// crossing back to at least BlockLimit from blocked unblocks it. Every
// transition is appended to changes exactly once.
func (s *Service) applyBalance(tx *store.Store, acc *domain.Account, balance decimal.Decimal, changes *[]stateChange) error {
	previous := acc.State
	switch {
	case balance.LessThan(domain.BlockLimit) && acc.State == domain.StateOK:
		acc.State = domain.StateBlocked
	case balance.GreaterThanOrEqual(domain.BlockLimit) && acc.State == domain.StateBlocked:
		acc.State = domain.StateOK
	}
	if acc.State != previous {
		if err := tx.UpdateAccountState(acc.Email, acc.Name, acc.State); err != nil {
			return err
		}
		*changes = append(*changes, stateChange{acc.Email, acc.Name, acc.State})
	}
	if err := tx.UpdateAccountBalance(acc.Email, acc.Name, balance); err != nil {
		return err
	}
	acc.Balance = balance
	return nil
}

// flushStateChanges fires one notice per committed transition.
func (s *Service) flushStateChanges(changes []stateChange) {
	for _, c := range changes {
		s.notifyStateChanged(c.email, c.account, c.state)
	}
}

// moveMoney debits src and credits dst by the same amount and appends the
// ledger entry, conserving the total.
func (s *Service) moveMoney(tx *store.Store, src, dst *domain.Account, amount decimal.Decimal, changes *[]stateChange) error {
	if err := s.applyBalance(tx, src, src.Balance.Sub(amount), changes); err != nil {
		return err
	}
	if err := s.applyBalance(tx, dst, dst.Balance.Add(amount), changes); err != nil {
		return err
	}
	return tx.CreateRecord(&domain.Record{
		SourceEmail: src.Email,
		TargetEmail: dst.Email,
		SourceName:  src.Name,
		TargetName:  dst.Name,
		Amount:      amount,
		Date:        domain.Day(s.now()),
	})
}

// AddMoney adds amount to an existing account. The amount is taken from the
// wire as-is; a negative delta can drive the account below the block limit.
func (s *Service) AddMoney(email, name string, amount decimal.Decimal) ([]string, error) {
	var fields []string
	var changes []stateChange
	err := s.store.Tx(func(tx *store.Store) error {
		acc, err := tx.GetAccount(email, name)
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountMissing
		}
		if err != nil {
			return err
		}
		if err := s.applyBalance(tx, acc, acc.Balance.Add(amount), &changes); err != nil {
			return err
		}
		if err := tx.CreateRecord(&domain.Record{
			SourceEmail: "-",
			TargetEmail: email,
			SourceName:  "-",
			TargetName:  name,
			Amount:      amount,
			Date:        domain.Day(s.now()),
		}); err != nil {
			return err
		}
		fields = accountStatus(acc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.flushStateChanges(changes)
	return fields, nil
}

// TransferTo pushes money from the caller's account to a target account.
// The success response reports the caller's (debited) account.
func (s *Service) TransferTo(srcEmail, dstEmail, srcName, dstName string, amount decimal.Decimal) ([]string, error) {
	var fields []string
	var changes []stateChange
	err := s.store.Tx(func(tx *store.Store) error {
		src, dst, err := s.transferAccounts(tx, srcEmail, srcName, dstEmail, dstName)
		if err != nil {
			return err
		}
		if err := s.moveMoney(tx, src, dst, amount, &changes); err != nil {
			return err
		}
		if err := tx.CreatePreviousTarget(&domain.PreviousTarget{
			SourceEmail: src.Email,
			TargetEmail: dst.Email,
			SourceName:  src.Name,
			TargetName:  dst.Name,
		}); err != nil {
			return err
		}
		fields = accountStatus(src)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.flushStateChanges(changes)
	return fields, nil
}

// TransferFrom pulls money from another user's account into the caller's.
// The debited account must carry a direct debit whose window is open: next
// payment date reached and requested amount within the per-period ceiling.
// A successful pull consumes the window by advancing the next payment date
// one interval immediately. The success response reports the caller's
// (credited) account.
func (s *Service) TransferFrom(dstEmail, srcEmail, dstName, srcName string, amount decimal.Decimal) ([]string, error) {
	var fields []string
	var changes []stateChange
	err := s.store.Tx(func(tx *store.Store) error {
		src, dst, err := s.transferAccounts(tx, srcEmail, srcName, dstEmail, dstName)
		if err != nil {
			return err
		}

		rp, err := tx.RecurringPaymentBySource(src.Email, src.Name)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoDirectDebit
		}
		if err != nil {
			return err
		}
		if rp.Type != domain.DirectDebit {
			return ErrNoDirectDebit
		}
		if rp.NextPayment.After(s.now()) || rp.Amount.LessThan(amount) {
			return ErrDebitUnavailable
		}
		next := rp.Interval.Next(rp.NextPayment)
		if err := tx.UpdateNextPayment(src.Email, src.Name, next); err != nil {
			return err
		}

		if err := s.moveMoney(tx, src, dst, amount, &changes); err != nil {
			return err
		}
		if err := tx.CreatePreviousTarget(&domain.PreviousTarget{
			SourceEmail: dst.Email,
			TargetEmail: src.Email,
			SourceName:  dst.Name,
			TargetName:  src.Name,
		}); err != nil {
			return err
		}
		fields = accountStatus(dst)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.flushStateChanges(changes)
	return fields, nil
}

// transferAccounts loads both sides of a transfer and enforces the common
// preconditions: both accounts exist and the payer is not blocked.
func (s *Service) transferAccounts(tx *store.Store, srcEmail, srcName, dstEmail, dstName string) (*domain.Account, *domain.Account, error) {
	src, err := tx.GetAccount(srcEmail, srcName)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrAccountPair
	}
	if err != nil {
		return nil, nil, err
	}
	dst, err := tx.GetAccount(dstEmail, dstName)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrAccountPair
	}
	if err != nil {
		return nil, nil, err
	}
	if src.State != domain.StateOK {
		return nil, nil, ErrPayerBlocked
	}
	return src, dst, nil
}
