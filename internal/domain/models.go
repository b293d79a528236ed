package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DateFormat is the day-precision format used on the wire and for
// recurring payment schedules.
const DateFormat = "2006-01-02"

// BlockLimit is the balance threshold below which an account is blocked.
var BlockLimit = decimal.NewFromInt(-10000)

// User owns zero or more named accounts. Passwords are stored and compared
// in plaintext; the protocol carries no stronger authentication.
type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`

	// Accounts is filled by the store, not mapped as an association.
	Accounts []Account `gorm:"-"`
}

// Account is identified by its owner's email plus a per-user name.
type Account struct {
	gorm.Model
	Email   string          `gorm:"uniqueIndex:idx_account_owner;not null"`
	Name    string          `gorm:"uniqueIndex:idx_account_owner;not null"`
	Balance decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	State   State           `gorm:"not null"`
}

// Record is an immutable ledger entry. Add-money entries carry "-" as the
// source account and name.
type Record struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SourceEmail string          `gorm:"not null"`
	TargetEmail string          `gorm:"not null"`
	SourceName  string          `gorm:"not null"`
	TargetName  string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Date        time.Time       `gorm:"not null"`
}

// RecurringPayment authorizes periodic money movement from a source
// account. At most one may exist per source account.
type RecurringPayment struct {
	gorm.Model
	SourceEmail string          `gorm:"uniqueIndex:idx_recurring_source;not null"`
	SourceName  string          `gorm:"uniqueIndex:idx_recurring_source;not null"`
	TargetEmail string          `gorm:"not null"`
	TargetName  string          `gorm:"not null"`
	NextPayment time.Time       `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Interval    Interval        `gorm:"not null"`
	Type        PaymentType     `gorm:"not null"`
}

// PreviousTarget is a write-once suggestion cache entry recorded whenever a
// source account sends money (or sets up a recurring payment) to a target.
type PreviousTarget struct {
	gorm.Model
	SourceEmail string `gorm:"uniqueIndex:idx_previous_pair;not null"`
	TargetEmail string `gorm:"uniqueIndex:idx_previous_pair;not null"`
	SourceName  string `gorm:"uniqueIndex:idx_previous_pair;not null"`
	TargetName  string `gorm:"uniqueIndex:idx_previous_pair;not null"`
}

// Day returns t truncated to day precision, pinned to UTC so dates survive
// the database round trip unchanged.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
