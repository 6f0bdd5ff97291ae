package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/airvara/flightdesk/internal/domain"
	"github.com/shopspring/decimal"
)

var bookingHeader = []string{"passenger_name", "flight_id", "date", "class", "fare"}

type BookingStore interface {
	// Append adds one row, creating the store with its header first
	// if it does not exist yet.
	Append(ctx context.Context, rec domain.Booking) error
	// LoadAll returns every row; a missing store yields an empty result.
	LoadAll(ctx context.Context) ([]domain.Booking, error)
	// OverwriteAll rewrites the store from the given rows.
	OverwriteAll(ctx context.Context, recs []domain.Booking) error
	// Exists reports whether the store has ever been created.
	Exists() bool
}

type CSVBookingStore struct {
	path string
}

func NewBookingStore(path string) BookingStore {
	return &CSVBookingStore{path: path}
}

func (s *CSVBookingStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

func (s *CSVBookingStore) Append(_ context.Context, rec domain.Booking) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	writeHeader := !s.Exists()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open bookings store: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(bookingHeader); err != nil {
			return err
		}
	}
	if err := w.Write(bookingRow(rec)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (s *CSVBookingStore) LoadAll(_ context.Context) ([]domain.Booking, error) {
	if !s.Exists() {
		return nil, nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open bookings store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read bookings store: %w", err)
	}

	recs := make([]domain.Booking, 0, len(rows))
	for i, row := range rows {
		// Tolerate stores written without a header.
		if i == 0 && len(row) > 0 && row[0] == "passenger_name" {
			continue
		}
		if len(row) < len(bookingHeader) {
			continue
		}
		fare, err := decimal.NewFromString(row[4])
		if err != nil {
			fare = decimal.Zero
		}
		recs = append(recs, domain.Booking{
			PassengerName: row[0],
			FlightID:      row[1],
			Date:          row[2],
			Class:         domain.FareClass(row[3]),
			Fare:          fare,
		})
	}
	return recs, nil
}

func (s *CSVBookingStore) OverwriteAll(_ context.Context, recs []domain.Booking) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("rewrite bookings store: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(bookingHeader); err != nil {
		return err
	}
	for _, rec := range recs {
		if err := w.Write(bookingRow(rec)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func bookingRow(rec domain.Booking) []string {
	return []string{rec.PassengerName, rec.FlightID, rec.Date, string(rec.Class), rec.Fare.StringFixed(2)}
}

var _ BookingStore = (*CSVBookingStore)(nil)
