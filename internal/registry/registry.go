package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/airvara/flightdesk/internal/domain"
	"github.com/airvara/flightdesk/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]*domain.Flight, error)
	Search(ctx context.Context, source, destination, date string) ([]*domain.Flight, error)
	Quote(ctx context.Context, flightID, date string, class domain.FareClass) (domain.FareBreakdown, error)
	Add(ctx context.Context, input AddFlightInput) (*domain.Flight, error)
	Delete(ctx context.Context, flightID string) error
}

type BookingUseCase interface {
	Book(ctx context.Context, input BookInput) (*BookResult, error)
	Cancel(ctx context.Context, input CancelInput) (*CancelResult, error)
	Bookings(ctx context.Context) ([]domain.Booking, error)
}

type AddFlightInput struct {
	FlightID        string          `json:"flight_id"`
	Source          string          `json:"source"`
	Destination     string          `json:"destination"`
	Time            string          `json:"time"`
	BasePrice       decimal.Decimal `json:"base_price"`
	Date            string          `json:"date"`
	EconSeats       int             `json:"econ_seats"`
	BusinessSeats   int             `json:"business_seats"`
	FirstClassSeats int             `json:"first_class_seats"`
}

type BookInput struct {
	FlightID      string
	PassengerName string
	Date          string
	Class         domain.FareClass
}

type BookStatus string

const (
	BookStatusConfirmed  BookStatus = "CONFIRMED"
	BookStatusWaitlisted BookStatus = "WAITLISTED"
)

type BookResult struct {
	Status    BookStatus
	Reference string
	Booking   *domain.Booking
	Message   string
}

type CancelInput struct {
	PassengerName string
	FlightID      string
	Date          string
}

type CancelResult struct {
	Removed       int
	RestoredClass domain.FareClass
	Message       string
}

// Registry owns the in-memory flight collection and is the sole
// writer of durable state. The collection preserves load order and
// may hold several flights with the same (flight_id, date); every
// operation iterates instead of indexing for exactly that reason.
//
// One mutex wraps each public operation. The three stores share no
// transaction boundary, so this is the only consistency guarantee:
// operations of a single process never interleave.
type Registry struct {
	mu      sync.Mutex
	flights []*domain.Flight

	flightStore   storage.FlightStore
	bookingStore  storage.BookingStore
	waitlistStore storage.WaitlistStore
}

func New(flights storage.FlightStore, bookings storage.BookingStore, waitlist storage.WaitlistStore) *Registry {
	return &Registry{
		flightStore:   flights,
		bookingStore:  bookings,
		waitlistStore: waitlist,
	}
}

// Load replaces the whole in-memory collection from the flights
// store. Availability always restarts at full capacity because the
// store only records capacity; prior seat consumption is lost on
// reload. That is inherited ledger behavior, kept deliberately.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	flights, skipped, err := r.flightStore.Load(ctx)
	if err != nil {
		return err
	}
	if skipped > 0 {
		logrus.WithField("rows", skipped).Warn("skipped malformed flight rows")
	}
	r.flights = flights
	return nil
}

// List returns a snapshot of the collection. Flights are cloned so
// handlers can read and sort them after the lock is released.
func (r *Registry) List(_ context.Context) ([]*domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Flight, 0, len(r.flights))
	for _, f := range r.flights {
		out = append(out, f.Clone())
	}
	return out, nil
}

func (r *Registry) Search(_ context.Context, source, destination, date string) ([]*domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]*domain.Flight, 0)
	for _, f := range r.flights {
		if strings.EqualFold(f.Source, source) &&
			strings.EqualFold(f.Destination, destination) &&
			f.Date == date {
			results = append(results, f.Clone())
		}
	}
	return results, nil
}

func (r *Registry) Quote(_ context.Context, flightID, date string, class domain.FareClass) (domain.FareBreakdown, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.flights {
		if f.FlightID == flightID && f.Date == date {
			return f.Breakdown(class), nil
		}
	}
	return domain.FareBreakdown{}, domain.ErrFlightNotFound
}

// Add appends unconditionally: no uniqueness check against existing
// (flight_id, date) pairs, duplicates are permitted.
func (r *Registry) Add(ctx context.Context, input AddFlightInput) (*domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flight := domain.NewFlight(
		input.FlightID, input.Source, input.Destination, input.Time,
		input.BasePrice, input.Date,
		input.EconSeats, input.BusinessSeats, input.FirstClassSeats,
	)
	r.flights = append(r.flights, flight)
	if err := r.persistLocked(ctx); err != nil {
		return nil, err
	}
	return flight.Clone(), nil
}

// Delete removes every flight with the given id across all dates.
// An unknown id is a no-op, not an error.
func (r *Registry) Delete(ctx context.Context, flightID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.flights[:0]
	for _, f := range r.flights {
		if f.FlightID != flightID {
			kept = append(kept, f)
		}
	}
	r.flights = kept
	return r.persistLocked(ctx)
}

func (r *Registry) Book(ctx context.Context, input BookInput) (*BookResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.flights {
		if f.FlightID != input.FlightID || f.Date != input.Date {
			continue
		}
		if f.Available[input.Class] > 0 {
			rec := domain.Booking{
				PassengerName: input.PassengerName,
				FlightID:      input.FlightID,
				Date:          input.Date,
				Class:         input.Class,
				Fare:          f.Fare(input.Class),
			}
			// The seat is consumed only once the booking row is durable,
			// so a failed append leaves availability untouched.
			if err := r.bookingStore.Append(ctx, rec); err != nil {
				return nil, fmt.Errorf("record booking: %w", err)
			}
			f.Available[input.Class]--
			if err := r.persistLocked(ctx); err != nil {
				return nil, err
			}
			return &BookResult{
				Status:    BookStatusConfirmed,
				Reference: uuid.NewString(),
				Booking:   &rec,
				Message:   fmt.Sprintf("Booking confirmed for %s (%s) on %s.", input.PassengerName, input.Class, input.FlightID),
			}, nil
		}

		f.Waitlist = append(f.Waitlist, input.PassengerName)
		entry := domain.WaitlistEntry{
			PassengerName: input.PassengerName,
			FlightID:      input.FlightID,
			Date:          input.Date,
			Class:         input.Class,
		}
		if err := r.waitlistStore.Append(ctx, entry); err != nil {
			return nil, fmt.Errorf("record waitlist entry: %w", err)
		}
		return &BookResult{
			Status:  BookStatusWaitlisted,
			Message: fmt.Sprintf("No seats available. %s added to waitlist for %s.", input.PassengerName, input.FlightID),
		}, nil
	}
	return nil, domain.ErrFlightNotFound
}

// Cancel removes every booking row matching the passenger
// (case-insensitive), flight id and date (exact, all trimmed). When
// duplicate rows match in different classes, the class of the last
// scanned match decides which seat pool is restored. One seat per
// removed row goes back to every flight sharing the (flight_id, date)
// key, capped at that flight's capacity.
func (r *Registry) Cancel(ctx context.Context, input CancelInput) (*CancelResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.bookingStore.Exists() {
		return nil, domain.ErrNoBookings
	}

	rows, err := r.bookingStore.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	wantName := strings.ToLower(strings.TrimSpace(input.PassengerName))
	wantID := strings.TrimSpace(input.FlightID)
	wantDate := strings.TrimSpace(input.Date)

	kept := make([]domain.Booking, 0, len(rows))
	removed := 0
	var lastClass domain.FareClass
	for _, row := range rows {
		if strings.ToLower(strings.TrimSpace(row.PassengerName)) == wantName &&
			strings.TrimSpace(row.FlightID) == wantID &&
			strings.TrimSpace(row.Date) == wantDate {
			removed++
			lastClass = row.Class
			continue
		}
		kept = append(kept, row)
	}

	if removed == 0 {
		return nil, domain.ErrBookingNotFound
	}

	if err := r.bookingStore.OverwriteAll(ctx, kept); err != nil {
		return nil, fmt.Errorf("rewrite bookings store: %w", err)
	}

	for _, f := range r.flights {
		if f.FlightID != wantID || f.Date != wantDate {
			continue
		}
		for i := 0; i < removed; i++ {
			if f.Available[lastClass] < f.Seats[lastClass] {
				f.Available[lastClass]++
			}
		}
	}

	if err := r.persistLocked(ctx); err != nil {
		return nil, err
	}
	return &CancelResult{
		Removed:       removed,
		RestoredClass: lastClass,
		Message:       fmt.Sprintf("Booking for %s on flight %s cancelled successfully.", input.PassengerName, input.FlightID),
	}, nil
}

func (r *Registry) Bookings(ctx context.Context) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookingStore.LoadAll(ctx)
}

func (r *Registry) persistLocked(ctx context.Context) error {
	if err := r.flightStore.SaveAll(ctx, r.flights); err != nil {
		return fmt.Errorf("persist flights: %w", err)
	}
	return nil
}

// SortByFare stably orders search results by the computed final fare
// for the given class, cheapest first.
func SortByFare(flights []*domain.Flight, class domain.FareClass) {
	sort.SliceStable(flights, func(i, j int) bool {
		return flights[i].Fare(class).LessThan(flights[j].Fare(class))
	})
}

var (
	_ FlightUseCase  = (*Registry)(nil)
	_ BookingUseCase = (*Registry)(nil)
)
