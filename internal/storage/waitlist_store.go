package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/airvara/flightdesk/internal/domain"
)

var waitlistHeader = []string{"passenger_name", "flight_id", "date", "class"}

// WaitlistStore is append-only: rows are written when a class sells
// out and are never read back by the system.
type WaitlistStore interface {
	Append(ctx context.Context, entry domain.WaitlistEntry) error
}

type CSVWaitlistStore struct {
	path string
}

func NewWaitlistStore(path string) WaitlistStore {
	return &CSVWaitlistStore{path: path}
}

func (s *CSVWaitlistStore) Append(_ context.Context, entry domain.WaitlistEntry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	_, statErr := os.Stat(s.path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open waitlist store: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(waitlistHeader); err != nil {
			return err
		}
	}
	if err := w.Write([]string{entry.PassengerName, entry.FlightID, entry.Date, string(entry.Class)}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

var _ WaitlistStore = (*CSVWaitlistStore)(nil)
