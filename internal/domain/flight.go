package domain

import "github.com/shopspring/decimal"

// Flight is one scheduled flight instance. Identity is the
// (FlightID, Date) pair; the system never enforces it unique, so
// duplicates may coexist and callers must iterate, not index.
type Flight struct {
	FlightID    string
	Source      string
	Destination string
	Time        string
	BasePrice   decimal.Decimal
	Date        string

	// Seats is total capacity per class, fixed at creation.
	// Available starts equal to Seats and moves with bookings.
	Seats     map[FareClass]int
	Available map[FareClass]int

	// Waitlist holds passenger names FIFO for classes that sold out.
	// In-memory only; durable waitlist rows are append-only elsewhere.
	Waitlist []string
}

func NewFlight(flightID, source, destination, tm string, basePrice decimal.Decimal, date string, econSeats, businessSeats, firstClassSeats int) *Flight {
	seats := map[FareClass]int{
		Economy:    econSeats,
		Business:   businessSeats,
		FirstClass: firstClassSeats,
	}
	available := make(map[FareClass]int, len(seats))
	for class, n := range seats {
		available[class] = n
	}
	return &Flight{
		FlightID:    flightID,
		Source:      source,
		Destination: destination,
		Time:        tm,
		BasePrice:   basePrice,
		Date:        date,
		Seats:       seats,
		Available:   available,
	}
}

// Clone returns an independent copy. Callers outside the registry's
// critical section must only ever see clones: the live maps are
// mutated under its lock while handlers serve requests concurrently.
func (f *Flight) Clone() *Flight {
	c := *f
	c.Seats = make(map[FareClass]int, len(f.Seats))
	for class, n := range f.Seats {
		c.Seats[class] = n
	}
	c.Available = make(map[FareClass]int, len(f.Available))
	for class, n := range f.Available {
		c.Available[class] = n
	}
	c.Waitlist = append([]string(nil), f.Waitlist...)
	return &c
}

// Fare returns the final 2-decimal fare for the class:
// base × multiplier, plus 18% tax.
func (f *Flight) Fare(class FareClass) decimal.Decimal {
	total := f.BasePrice.Mul(classMultipliers[class])
	return total.Add(total.Mul(taxRate)).Round(2)
}

// Breakdown returns the itemized quote for the class.
func (f *Flight) Breakdown(class FareClass) FareBreakdown {
	total := f.BasePrice.Mul(classMultipliers[class])
	tax := total.Mul(taxRate)
	return FareBreakdown{
		BaseFare:   f.BasePrice,
		Multiplier: classMultipliers[class],
		Tax:        tax.Round(2),
		Total:      total.Add(tax).Round(2),
	}
}
