// Package store persists bank state in a single SQLite file through gorm.
//
// Every mutating statement is retried a fixed number of times when SQLite
// reports the file locked by a concurrent writer (the accept loop and the
// scheduler share the file); once the retry budget is exhausted the error
// surfaces and the caller treats it as fatal.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/rumaak/bank-app/internal/domain"
)

// busyAttempts is the retry budget for statements hitting SQLITE_BUSY.
// There is no backoff between attempts.
const busyAttempts = 5

// ErrNotFound reports that a requested row does not exist. Callers treat it
// as a business condition, not a failure.
var ErrNotFound = errors.New("record not found")

type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite file at path, creating it and the schema on
// first use.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Account{},
		&domain.Record{},
		&domain.RecurringPayment{},
		&domain.PreviousTarget{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Tx runs fn against a store bound to a single transaction. Multi-step
// business operations (read balance, compute, write balance) go through
// here so the two execution contexts cannot interleave on one account.
func (s *Store) Tx(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func isBusy(err error) bool {
	return err != nil && strings.Contains(err.Error(), "database is locked")
}

// retry re-runs op while SQLite reports the file busy, up to busyAttempts.
func retry(op func() error) error {
	var err error
	for i := 0; i < busyAttempts; i++ {
		err = op()
		if !isBusy(err) {
			return err
		}
	}
	return fmt.Errorf("database busy after %d attempts: %w", busyAttempts, err)
}

func (s *Store) CreateUser(u *domain.User) error {
	if err := retry(func() error { return s.db.Create(u).Error }); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser loads a user and all accounts owned by it, in insertion order.
// The account list keeps one stable order across every response that
// carries it.
func (s *Store) GetUser(email string) (*domain.User, error) {
	var user domain.User
	err := retry(func() error {
		return s.db.Where("email = ?", email).First(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	err = retry(func() error {
		return s.db.Where("email = ?", email).Order("id").Find(&user.Accounts).Error
	})
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	return &user, nil
}

func (s *Store) CreateAccount(a *domain.Account) error {
	if err := retry(func() error { return s.db.Create(a).Error }); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(email, name string) (*domain.Account, error) {
	var acc domain.Account
	err := retry(func() error {
		return s.db.Where("email = ? AND name = ?", email, name).First(&acc).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	return &acc, nil
}

func (s *Store) UpdateAccountBalance(email, name string, balance decimal.Decimal) error {
	err := retry(func() error {
		return s.db.Model(&domain.Account{}).
			Where("email = ? AND name = ?", email, name).
			Update("balance", balance).Error
	})
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}

func (s *Store) UpdateAccountState(email, name string, state domain.State) error {
	err := retry(func() error {
		return s.db.Model(&domain.Account{}).
			Where("email = ? AND name = ?", email, name).
			Update("state", state).Error
	})
	if err != nil {
		return fmt.Errorf("update state: %w", err)
	}
	return nil
}

// CreateRecord appends a ledger entry. Entries are never updated or deleted.
func (s *Store) CreateRecord(r *domain.Record) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if err := retry(func() error { return s.db.Create(r).Error }); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// RecordsByAccount returns every ledger entry where the account appears as
// source or target, ordered by date ascending.
func (s *Store) RecordsByAccount(email, name string) ([]domain.Record, error) {
	var records []domain.Record
	err := retry(func() error {
		return s.db.
			Where("(source_email = ? AND source_name = ?) OR (target_email = ? AND target_name = ?)",
				email, name, email, name).
			Order("date").
			Find(&records).Error
	})
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	return records, nil
}

// CreatePreviousTarget records a source→target pair. A pair that already
// exists is left untouched.
func (s *Store) CreatePreviousTarget(p *domain.PreviousTarget) error {
	err := retry(func() error {
		return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(p).Error
	})
	if err != nil {
		return fmt.Errorf("insert previous target: %w", err)
	}
	return nil
}

func (s *Store) PreviousTargetsBySource(email, name string) ([]domain.PreviousTarget, error) {
	var pairs []domain.PreviousTarget
	err := retry(func() error {
		return s.db.Where("source_email = ? AND source_name = ?", email, name).Find(&pairs).Error
	})
	if err != nil {
		return nil, fmt.Errorf("select previous targets: %w", err)
	}
	return pairs, nil
}

func (s *Store) CreateRecurringPayment(rp *domain.RecurringPayment) error {
	if err := retry(func() error { return s.db.Create(rp).Error }); err != nil {
		return fmt.Errorf("insert recurring payment: %w", err)
	}
	return nil
}

func (s *Store) RecurringPaymentBySource(email, name string) (*domain.RecurringPayment, error) {
	var rp domain.RecurringPayment
	err := retry(func() error {
		return s.db.Where("source_email = ? AND source_name = ?", email, name).First(&rp).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select recurring payment: %w", err)
	}
	return &rp, nil
}

func (s *Store) UpdateNextPayment(email, name string, next time.Time) error {
	err := retry(func() error {
		return s.db.Model(&domain.RecurringPayment{}).
			Where("source_email = ? AND source_name = ?", email, name).
			Update("next_payment", next).Error
	})
	if err != nil {
		return fmt.Errorf("update next payment: %w", err)
	}
	return nil
}

// AllRecurringPayments returns every recurring payment; the scheduler scans
// this once per pass.
func (s *Store) AllRecurringPayments() ([]domain.RecurringPayment, error) {
	var payments []domain.RecurringPayment
	err := retry(func() error { return s.db.Find(&payments).Error })
	if err != nil {
		return nil, fmt.Errorf("select recurring payments: %w", err)
	}
	return payments, nil
}
