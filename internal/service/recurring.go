package service

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rumaak/bank-app/internal/domain"
	"github.com/rumaak/bank-app/internal/store"
	"github.com/rumaak/bank-app/internal/wire"
)

// SetupRecurringPayment registers a direct debit or standing order. Only
// one recurring payment may exist per source account.
func (s *Service) SetupRecurringPayment(srcEmail, dstEmail, srcName, dstName string,
	amount decimal.Decimal, start time.Time, intervalIdx int, ptype domain.PaymentType) ([]string, error) {

	interval, ok := domain.IntervalFromWire(intervalIdx)
	if !ok {
		return nil, ErrUnknownInterval
	}

	_, err := s.store.RecurringPaymentBySource(srcEmail, srcName)
	if err == nil {
		return nil, ErrRecurringExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	rp := domain.RecurringPayment{
		SourceEmail: srcEmail,
		SourceName:  srcName,
		TargetEmail: dstEmail,
		TargetName:  dstName,
		NextPayment: domain.Day(start),
		Amount:      amount,
		Interval:    interval,
		Type:        ptype,
	}
	if err := s.store.CreateRecurringPayment(&rp); err != nil {
		return nil, err
	}
	if err := s.store.CreatePreviousTarget(&domain.PreviousTarget{
		SourceEmail: srcEmail,
		TargetEmail: dstEmail,
		SourceName:  srcName,
		TargetName:  dstName,
	}); err != nil {
		return nil, err
	}
	return nil, nil
}

// ExecuteStandingOrder performs one due standing-order transfer. A missing
// account or blocked source skips the movement silently; the caller still
// advances the schedule. Returns whether money actually moved.
func (s *Service) ExecuteStandingOrder(rp *domain.RecurringPayment) (bool, error) {
	executed := false
	var changes []stateChange
	err := s.store.Tx(func(tx *store.Store) error {
		src, err := tx.GetAccount(rp.SourceEmail, rp.SourceName)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		dst, err := tx.GetAccount(rp.TargetEmail, rp.TargetName)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if src.State != domain.StateOK {
			return nil
		}
		if err := s.moveMoney(tx, src, dst, rp.Amount, &changes); err != nil {
			return err
		}
		executed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	s.flushStateChanges(changes)
	return executed, nil
}

// TransactionHistory returns ledger entries touching the account within the
// date range, inclusive on both endpoints, ordered by date ascending.
func (s *Service) TransactionHistory(email, name string, from, to time.Time) ([]string, error) {
	records, err := s.store.RecordsByAccount(email, name)
	if err != nil {
		return nil, err
	}

	var matched []domain.Record
	for _, rec := range records {
		if rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		matched = append(matched, rec)
	}

	fields := []string{wire.FormatCount(len(matched))}
	for _, rec := range matched {
		fields = append(fields,
			rec.SourceEmail, rec.TargetEmail, rec.SourceName, rec.TargetName,
			wire.FormatAmount(rec.Amount), rec.Date.Format(domain.DateFormat))
	}
	return fields, nil
}

// PreviousTargets returns the suggestion pairs recorded for the account.
func (s *Service) PreviousTargets(email, name string) ([]string, error) {
	pairs, err := s.store.PreviousTargetsBySource(email, name)
	if err != nil {
		return nil, err
	}

	fields := []string{wire.FormatCount(len(pairs))}
	for _, p := range pairs {
		fields = append(fields, p.SourceEmail, p.TargetEmail, p.SourceName, p.TargetName)
	}
	return fields, nil
}
