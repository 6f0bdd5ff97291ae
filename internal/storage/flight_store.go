package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/airvara/flightdesk/internal/domain"
	"github.com/shopspring/decimal"
)

var flightHeader = []string{
	"flight_id", "source", "destination", "time",
	"base_price", "date", "econ_seats", "business_seats", "first_class_seats",
}

type FlightStore interface {
	// Load reads every flight row. The int is the number of rows
	// skipped as malformed. A missing file is initialized with the
	// schema header and yields an empty result.
	Load(ctx context.Context) ([]*domain.Flight, int, error)
	// SaveAll rewrites the whole store from the given collection.
	// Seat columns hold total capacity, never current availability.
	SaveAll(ctx context.Context, flights []*domain.Flight) error
}

type CSVFlightStore struct {
	path string
}

func NewFlightStore(path string) FlightStore {
	return &CSVFlightStore{path: path}
}

func (s *CSVFlightStore) Load(_ context.Context) ([]*domain.Flight, int, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if err := s.writeRows(nil); err != nil {
			return nil, 0, fmt.Errorf("initialize flights store: %w", err)
		}
		return nil, 0, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, 0, fmt.Errorf("open flights store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read flights store: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}

	flights := make([]*domain.Flight, 0, len(rows)-1)
	skipped := 0
	for _, row := range rows[1:] {
		flight, ok := parseFlightRow(row)
		if !ok {
			skipped++
			continue
		}
		flights = append(flights, flight)
	}
	return flights, skipped, nil
}

func (s *CSVFlightStore) SaveAll(_ context.Context, flights []*domain.Flight) error {
	records := make([][]string, 0, len(flights))
	for _, f := range flights {
		records = append(records, []string{
			f.FlightID, f.Source, f.Destination, f.Time,
			f.BasePrice.String(), f.Date,
			strconv.Itoa(f.Seats[domain.Economy]),
			strconv.Itoa(f.Seats[domain.Business]),
			strconv.Itoa(f.Seats[domain.FirstClass]),
		})
	}
	return s.writeRows(records)
}

func (s *CSVFlightStore) writeRows(records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(flightHeader); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func parseFlightRow(row []string) (*domain.Flight, bool) {
	if len(row) < len(flightHeader) {
		return nil, false
	}
	basePrice, err := decimal.NewFromString(row[4])
	if err != nil {
		return nil, false
	}
	seats := make([]int, 3)
	for i, col := range row[6:9] {
		n, err := strconv.Atoi(col)
		if err != nil {
			return nil, false
		}
		seats[i] = n
	}
	return domain.NewFlight(row[0], row[1], row[2], row[3], basePrice, row[5], seats[0], seats[1], seats[2]), true
}

var _ FlightStore = (*CSVFlightStore)(nil)
