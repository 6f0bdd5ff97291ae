package domain

import "errors"

var (
	ErrFlightNotFound   = errors.New("flight not found")
	ErrNoBookings       = errors.New("no bookings found")
	ErrBookingNotFound  = errors.New("no matching booking found")
	ErrUnknownFareClass = errors.New("unknown fare class")
)
