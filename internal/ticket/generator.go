package ticket

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/airvara/flightdesk/config"
	"github.com/airvara/flightdesk/internal/domain"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// Renderer produces a durable ticket artifact and returns its path.
type Renderer interface {
	Generate(booking domain.Booking) (string, error)
}

type Generator struct {
	dir          string
	airline      string
	supportEmail string
}

func NewGenerator(cfg config.TicketsConfig) *Generator {
	return &Generator{
		dir:          cfg.Dir,
		airline:      cfg.Airline,
		supportEmail: cfg.SupportEmail,
	}
}

// Generate writes a one-page PDF ticket with an embedded QR code
// encoding "name|flight_id|date|class|₹fare".
func (g *Generator) Generate(b domain.Booking) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create tickets dir: %w", err)
	}

	fare := b.Fare.StringFixed(2)
	qrPNG, err := qrcode.Encode(qrPayload(b), qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr payload: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 15, g.airline, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Ln(5)
	pdf.CellFormat(0, 10, "Issue Date: "+time.Now().Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.CellFormat(0, 10, "Passenger Name: "+b.PassengerName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 10, "Flight ID: "+b.FlightID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 10, "Flight Date: "+b.Date, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 10, "Class: "+string(b.Class), "", 1, "L", false, 0, "")
	// Core PDF fonts cannot render the rupee sign; the QR payload carries it.
	pdf.CellFormat(0, 10, "Fare Paid: INR "+fare, "", 1, "L", false, 0, "")
	pdf.Ln(10)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("ticket-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("ticket-qr", 160, 60, 35, 0, false, opts, 0, "")

	pdf.Ln(20)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 10, "Thank you for flying with "+g.airline+"!", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 10, "For support: "+g.supportEmail, "", 1, "C", false, 0, "")

	path := filepath.Join(g.dir, fmt.Sprintf("%s_%s.pdf", b.PassengerName, b.FlightID))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write ticket pdf: %w", err)
	}
	return path, nil
}

// qrPayload is the scannable encoding of the booking. The format is
// part of the artifact contract and is read by airport-side scanners.
func qrPayload(b domain.Booking) string {
	return fmt.Sprintf("%s|%s|%s|%s|₹%s", b.PassengerName, b.FlightID, b.Date, b.Class, b.Fare.StringFixed(2))
}

var _ Renderer = (*Generator)(nil)
