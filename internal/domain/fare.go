package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type FareClass string

const (
	Economy    FareClass = "Economy"
	Business   FareClass = "Business"
	FirstClass FareClass = "First Class"
)

// FareClasses returns the fixed cabin classes in pricing order.
func FareClasses() []FareClass {
	return []FareClass{Economy, Business, FirstClass}
}

var classMultipliers = map[FareClass]decimal.Decimal{
	Economy:    decimal.NewFromInt(1),
	Business:   decimal.RequireFromString("1.5"),
	FirstClass: decimal.NewFromInt(2),
}

// taxRate is the flat 18% tax applied on top of the class-adjusted fare.
var taxRate = decimal.RequireFromString("0.18")

// ParseFareClass maps user input onto the closed class enumeration.
// Unknown names are rejected rather than silently priced as Economy.
func ParseFareClass(s string) (FareClass, error) {
	switch FareClass(s) {
	case Economy, Business, FirstClass:
		return FareClass(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFareClass, s)
}

// FareBreakdown itemizes a quote. Tax and Total are rounded
// independently, so the parts may not sum to Total to the paisa.
type FareBreakdown struct {
	BaseFare   decimal.Decimal `json:"base_fare"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
}
