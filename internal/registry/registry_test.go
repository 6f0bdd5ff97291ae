package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/airvara/flightdesk/internal/domain"
	"github.com/airvara/flightdesk/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	r := New(
		storage.NewFlightStore(filepath.Join(dir, "flights.csv")),
		storage.NewBookingStore(filepath.Join(dir, "bookings.csv")),
		storage.NewWaitlistStore(filepath.Join(dir, "waitlist.csv")),
	)
	require.NoError(t, r.Load(context.Background()))
	return r
}

func addFlight(t *testing.T, r *Registry, id, date string, econ, business, first int) {
	t.Helper()
	_, err := r.Add(context.Background(), AddFlightInput{
		FlightID:        id,
		Source:          "Delhi",
		Destination:     "Mumbai",
		Time:            "10:00",
		BasePrice:       decimal.NewFromInt(1000),
		Date:            date,
		EconSeats:       econ,
		BusinessSeats:   business,
		FirstClassSeats: first,
	})
	require.NoError(t, err)
}

func currentFlights(t *testing.T, r *Registry) []*domain.Flight {
	t.Helper()
	flights, err := r.List(context.Background())
	require.NoError(t, err)
	return flights
}

func assertSeatInvariant(t *testing.T, r *Registry) {
	t.Helper()
	for _, f := range currentFlights(t, r) {
		for _, class := range domain.FareClasses() {
			assert.GreaterOrEqual(t, f.Available[class], 0)
			assert.LessOrEqual(t, f.Available[class], f.Seats[class])
		}
	}
}

func TestBook_DecrementsSeatAndRecordsFare(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 1, 1)

	result, err := r.Book(ctx, BookInput{FlightID: "AI101", PassengerName: "Asha", Date: "2025-01-01", Class: domain.Economy})
	require.NoError(t, err)
	assert.Equal(t, BookStatusConfirmed, result.Status)
	assert.NotEmpty(t, result.Reference)
	assert.Equal(t, 1, currentFlights(t, r)[0].Available[domain.Economy])

	bookings, err := r.Bookings(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "Asha", bookings[0].PassengerName)
	assert.Equal(t, domain.Economy, bookings[0].Class)
	assert.Equal(t, "1180.00", bookings[0].Fare.StringFixed(2))
	assertSeatInvariant(t, r)
}

func TestBook_UnknownFlight(t *testing.T) {
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 1, 1)

	_, err := r.Book(context.Background(), BookInput{FlightID: "AI999", PassengerName: "Asha", Date: "2025-01-01", Class: domain.Economy})
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)

	// Same id but wrong date is also not found: date matches exactly.
	_, err = r.Book(context.Background(), BookInput{FlightID: "AI101", PassengerName: "Asha", Date: "2025-01-02", Class: domain.Economy})
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
}

func TestBook_WaitlistsWhenSoldOut(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 1, 0, 0)

	first, err := r.Book(ctx, BookInput{FlightID: "AI101", PassengerName: "Asha", Date: "2025-01-01", Class: domain.Economy})
	require.NoError(t, err)
	assert.Equal(t, BookStatusConfirmed, first.Status)
	assert.Equal(t, 0, currentFlights(t, r)[0].Available[domain.Economy])

	second, err := r.Book(ctx, BookInput{FlightID: "AI101", PassengerName: "Ravi", Date: "2025-01-01", Class: domain.Economy})
	require.NoError(t, err)
	assert.Equal(t, BookStatusWaitlisted, second.Status)
	assert.Nil(t, second.Booking)

	f := currentFlights(t, r)[0]
	assert.Equal(t, 0, f.Available[domain.Economy])
	assert.Equal(t, []string{"Ravi"}, f.Waitlist)

	// The waitlisted attempt must not have produced a booking row.
	bookings, err := r.Bookings(ctx)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assertSeatInvariant(t, r)
}

// failingBookingStore refuses appends but delegates everything else.
type failingBookingStore struct {
	storage.BookingStore
}

func (s failingBookingStore) Append(context.Context, domain.Booking) error {
	return errors.New("disk full")
}

func TestBook_FailedAppendLeavesSeatAvailable(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r := New(
		storage.NewFlightStore(filepath.Join(dir, "flights.csv")),
		failingBookingStore{storage.NewBookingStore(filepath.Join(dir, "bookings.csv"))},
		storage.NewWaitlistStore(filepath.Join(dir, "waitlist.csv")),
	)
	require.NoError(t, r.Load(ctx))
	addFlight(t, r, "AI101", "2025-01-01", 2, 0, 0)

	_, err := r.Book(ctx, BookInput{FlightID: "AI101", PassengerName: "Asha", Date: "2025-01-01", Class: domain.Economy})
	require.Error(t, err)

	// No booking row was written, so no seat may be consumed.
	assert.Equal(t, 2, currentFlights(t, r)[0].Available[domain.Economy])
}

func TestCancel_RestoresSeatAndRemovesRow(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 1, 0, 0)

	_, err := r.Book(ctx, BookInput{FlightID: "AI101", PassengerName: "Asha", Date: "2025-01-01", Class: domain.Economy})
	require.NoError(t, err)
	_, err = r.Book(ctx, BookInput{FlightID: "AI101", PassengerName: "Ravi", Date: "2025-01-01", Class: domain.Economy})
	require.NoError(t, err)

	result, err := r.Cancel(ctx, CancelInput{PassengerName: "Asha", FlightID: "AI101", Date: "2025-01-01"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, domain.Economy, result.RestoredClass)

	f := currentFlights(t, r)[0]
	assert.Equal(t, 1, f.Available[domain.Economy])

	bookings, err := r.Bookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookings)

	// No promotion: Ravi stays waitlisted even though a seat freed up.
	assert.Equal(t, []string{"Ravi"}, f.Waitlist)
	assertSeatInvariant(t, r)
}

func TestCancel_MatchesCaseInsensitiveAndTrimmed(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 0, 0)

	_, err := r.Book(ctx, BookInput{FlightID: "AI101", PassengerName: "Asha", Date: "2025-01-01", Class: domain.Economy})
	require.NoError(t, err)

	result, err := r.Cancel(ctx, CancelInput{PassengerName: "  ASHA  ", FlightID: " AI101 ", Date: " 2025-01-01 "})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
}

func TestCancel_NoBookingsStore(t *testing.T) {
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 0, 0)

	_, err := r.Cancel(context.Background(), CancelInput{PassengerName: "Asha", FlightID: "AI101", Date: "2025-01-01"})
	assert.ErrorIs(t, err, domain.ErrNoBookings)
}

func TestCancel_NoMatchLeavesStoresUntouched(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 0, 0)

	_, err := r.Book(ctx, BookInput{FlightID: "AI101", PassengerName: "Asha", Date: "2025-01-01", Class: domain.Economy})
	require.NoError(t, err)

	_, err = r.Cancel(ctx, CancelInput{PassengerName: "Ravi", FlightID: "AI101", Date: "2025-01-01"})
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	bookings, err := r.Bookings(ctx)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Equal(t, 1, currentFlights(t, r)[0].Available[domain.Economy])
}

func TestCancel_RemovesAllMatchesLastClassWins(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 2, 0)

	// Duplicate bookings for the same passenger/flight/date in two
	// different classes. Cancellation removes both rows but restores
	// seats only in the class of the last-scanned match.
	_, err := r.Book(ctx, BookInput{FlightID: "AI101", PassengerName: "Asha", Date: "2025-01-01", Class: domain.Economy})
	require.NoError(t, err)
	_, err = r.Book(ctx, BookInput{FlightID: "AI101", PassengerName: "Asha", Date: "2025-01-01", Class: domain.Business})
	require.NoError(t, err)

	result, err := r.Cancel(ctx, CancelInput{PassengerName: "Asha", FlightID: "AI101", Date: "2025-01-01"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Removed)
	assert.Equal(t, domain.Business, result.RestoredClass)

	// Economy keeps its consumed seat; Business is restored and
	// capped at capacity despite two removed rows.
	f := currentFlights(t, r)[0]
	assert.Equal(t, 1, f.Available[domain.Economy])
	assert.Equal(t, 2, f.Available[domain.Business])
	assertSeatInvariant(t, r)
}

func TestCancel_RestoresEveryDuplicateFlight(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	// Two flights share the natural key; booking consumed a seat on
	// the first only, cancellation restores on both (capped).
	addFlight(t, r, "AI101", "2025-01-01", 2, 0, 0)
	addFlight(t, r, "AI101", "2025-01-01", 2, 0, 0)

	_, err := r.Book(ctx, BookInput{FlightID: "AI101", PassengerName: "Asha", Date: "2025-01-01", Class: domain.Economy})
	require.NoError(t, err)
	flights := currentFlights(t, r)
	assert.Equal(t, 1, flights[0].Available[domain.Economy])
	assert.Equal(t, 2, flights[1].Available[domain.Economy])

	_, err = r.Cancel(ctx, CancelInput{PassengerName: "Asha", FlightID: "AI101", Date: "2025-01-01"})
	require.NoError(t, err)
	flights = currentFlights(t, r)
	assert.Equal(t, 2, flights[0].Available[domain.Economy])
	assert.Equal(t, 2, flights[1].Available[domain.Economy])
	assertSeatInvariant(t, r)
}

func TestDelete_RemovesAllDatesForID(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 0, 0)
	addFlight(t, r, "AI101", "2025-02-01", 2, 0, 0)
	addFlight(t, r, "AI202", "2025-01-01", 2, 0, 0)

	require.NoError(t, r.Delete(ctx, "AI101"))

	flights := currentFlights(t, r)
	require.Len(t, flights, 1)
	assert.Equal(t, "AI202", flights[0].FlightID)

	// Deletion is durable, not just in-memory.
	require.NoError(t, r.Load(ctx))
	flights = currentFlights(t, r)
	require.Len(t, flights, 1)
	assert.Equal(t, "AI202", flights[0].FlightID)
}

func TestDelete_UnknownIDIsNoOp(t *testing.T) {
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 0, 0)

	require.NoError(t, r.Delete(context.Background(), "AI999"))
	assert.Len(t, currentFlights(t, r), 1)
}

func TestReload_ResetsAvailabilityToCapacity(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 0, 0)

	_, err := r.Book(ctx, BookInput{FlightID: "AI101", PassengerName: "Asha", Date: "2025-01-01", Class: domain.Economy})
	require.NoError(t, err)

	// The store records capacity, never availability: reloading
	// forgets the booked seat. Inherited behavior, pinned on purpose.
	require.NoError(t, r.Load(ctx))
	flights := currentFlights(t, r)
	require.Len(t, flights, 1)
	assert.Equal(t, 2, flights[0].Available[domain.Economy])
}

func TestSearch_CaseInsensitiveCitiesExactDate(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 0, 0)

	results, err := r.Search(ctx, "delhi", "MUMBAI", "2025-01-01")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = r.Search(ctx, "Delhi", "Mumbai", "2025-01-02")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAdd_AllowsDuplicateNaturalKeys(t *testing.T) {
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 0, 0)
	addFlight(t, r, "AI101", "2025-01-01", 5, 0, 0)

	assert.Len(t, currentFlights(t, r), 2)
}

func TestList_ReturnsSnapshots(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 0, 0)

	// Mutating a listed flight must not touch the registry's state.
	snapshot := currentFlights(t, r)[0]
	snapshot.Available[domain.Economy] = 0
	snapshot.Waitlist = append(snapshot.Waitlist, "Mallory")

	f := currentFlights(t, r)[0]
	assert.Equal(t, 2, f.Available[domain.Economy])
	assert.Empty(t, f.Waitlist)

	// Same for the flight returned by Add.
	added, err := r.Add(ctx, AddFlightInput{FlightID: "AI202", Source: "Delhi", Destination: "Goa", Time: "12:00", BasePrice: decimal.NewFromInt(900), Date: "2025-01-01", EconSeats: 1})
	require.NoError(t, err)
	added.Available[domain.Economy] = 0
	assert.Equal(t, 1, currentFlights(t, r)[1].Available[domain.Economy])
}

func TestConcurrentBookingAndListing(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 200, 0, 0)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, err := r.Book(ctx, BookInput{
				FlightID:      "AI101",
				PassengerName: fmt.Sprintf("Passenger %d", i),
				Date:          "2025-01-01",
				Class:         domain.Economy,
			})
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			flights, err := r.List(ctx)
			assert.NoError(t, err)
			for _, f := range flights {
				// Read the maps the way a handler rendering a
				// response would.
				for _, class := range domain.FareClasses() {
					assert.LessOrEqual(t, f.Available[class], f.Seats[class])
				}
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, 100, currentFlights(t, r)[0].Available[domain.Economy])
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	addFlight(t, r, "AI101", "2025-01-01", 2, 1, 0)

	b, err := r.Quote(ctx, "AI101", "2025-01-01", domain.Business)
	require.NoError(t, err)
	assert.Equal(t, "1770.00", b.Total.StringFixed(2))

	_, err = r.Quote(ctx, "AI999", "2025-01-01", domain.Business)
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
}

func TestSortByFare_StableCheapestFirst(t *testing.T) {
	mk := func(id string, base int64) *domain.Flight {
		return domain.NewFlight(id, "Delhi", "Mumbai", "10:00", decimal.NewFromInt(base), "2025-01-01", 2, 0, 0)
	}
	flights := []*domain.Flight{mk("AI300", 2000), mk("AI100", 1000), mk("AI150", 1500), mk("AI100B", 1000)}

	SortByFare(flights, domain.Economy)

	ids := []string{flights[0].FlightID, flights[1].FlightID, flights[2].FlightID, flights[3].FlightID}
	assert.Equal(t, []string{"AI100", "AI100B", "AI150", "AI300"}, ids)
}
