package domain

import (
	"testing"
	"time"
)

func TestIntervalFromWire(t *testing.T) {
	cases := []struct {
		idx  int
		want Interval
		ok   bool
	}{
		{0, IntervalDay, true},
		{1, IntervalWeek, true},
		{2, IntervalMonth, true},
		{3, IntervalYear, true},
		{4, 0, false},
		{-1, 0, false},
	}
	for _, c := range cases {
		got, ok := IntervalFromWire(c.idx)
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("IntervalFromWire(%d)=%v,%v want=%v,%v", c.idx, got, ok, c.want, c.ok)
		}
	}
}

func TestIntervalNext(t *testing.T) {
	base := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		iv   Interval
		want string
	}{
		{IntervalDay, "2026-02-01"},
		{IntervalWeek, "2026-02-07"},
		{IntervalMonth, "2026-03-03"}, // Jan 31 + 1 month normalizes past Feb
		{IntervalYear, "2027-01-31"},
	}
	for _, c := range cases {
		if got := c.iv.Next(base).Format(DateFormat); got != c.want {
			t.Fatalf("%v.Next=%s want=%s", c.iv, got, c.want)
		}
	}
}

func TestStateString(t *testing.T) {
	if StateOK.String() != "OK" || StateBlocked.String() != "BLOCKED" {
		t.Fatalf("state names: %s %s", StateOK, StateBlocked)
	}
	// Out-of-range values render as blocked rather than leaking an int.
	if State(7).String() != "BLOCKED" {
		t.Fatalf("unknown state=%s", State(7))
	}
}
