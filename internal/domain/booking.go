package domain

import "github.com/shopspring/decimal"

// Booking is one durable booking ledger row. It references a flight
// by its natural key only, never by pointer.
type Booking struct {
	PassengerName string
	FlightID      string
	Date          string
	Class         FareClass
	Fare          decimal.Decimal
}

// WaitlistEntry is one durable waitlist row. Entries are written when
// a class sells out and are never read back or promoted.
type WaitlistEntry struct {
	PassengerName string
	FlightID      string
	Date          string
	Class         FareClass
}
