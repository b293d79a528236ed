package domain

import "time"

// State of an account. The integer values are both the stored
// representation and part of the schema contract.
type State int

const (
	StateOK      State = 0
	StateBlocked State = 1
)

var stateNames = map[State]string{
	StateOK:      "OK",
	StateBlocked: "BLOCKED",
}

// String returns the wire representation of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return stateNames[StateBlocked]
}

// PaymentType distinguishes scheduler-driven standing orders from
// beneficiary-driven direct debits.
type PaymentType int

const (
	StandingOrder PaymentType = 0
	DirectDebit   PaymentType = 1
)

var paymentTypeNames = map[PaymentType]string{
	StandingOrder: "standing_order",
	DirectDebit:   "direct_debit",
}

func (p PaymentType) String() string {
	return paymentTypeNames[p]
}

// Interval is the period of a recurring payment. The integer values double
// as the wire encoding (interval index field of the setup requests).
type Interval int

const (
	IntervalDay   Interval = 0
	IntervalWeek  Interval = 1
	IntervalMonth Interval = 2
	IntervalYear  Interval = 3
)

var intervalNames = map[Interval]string{
	IntervalDay:   "day",
	IntervalWeek:  "week",
	IntervalMonth: "month",
	IntervalYear:  "year",
}

func (i Interval) String() string {
	return intervalNames[i]
}

// IntervalFromWire maps the 0-3 wire index to an interval.
func IntervalFromWire(idx int) (Interval, bool) {
	iv := Interval(idx)
	_, ok := intervalNames[iv]
	return iv, ok
}

// Next returns t advanced by one interval. Month and year arithmetic
// follows calendar rules, matching the schedule the client displays.
func (i Interval) Next(t time.Time) time.Time {
	switch i {
	case IntervalDay:
		return t.AddDate(0, 0, 1)
	case IntervalWeek:
		return t.AddDate(0, 0, 7)
	case IntervalMonth:
		return t.AddDate(0, 1, 0)
	case IntervalYear:
		return t.AddDate(1, 0, 0)
	}
	return t
}
