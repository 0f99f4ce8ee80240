// Package ticket generates booking identifiers and renders tickets as QR
// codes and printable PDFs.
package ticket

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

const (
	// CodeLength is the length of a ticket code.
	CodeLength = 10
	// BookingIDPrefix starts every human-facing booking id.
	BookingIDPrefix = "BK-"

	codeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	tokenLength   = 9
)

// Codes are the two public identifiers minted for a booking.
type Codes struct {
	BookingID  string
	TicketCode string
}

// NewCodes mints a fresh booking id and ticket code. Neither is checked for
// uniqueness here; the store rejects collisions.
func NewCodes() (Codes, error) {
	token, err := randomString(tokenAlphabet, tokenLength)
	if err != nil {
		return Codes{}, fmt.Errorf("booking id: %w", err)
	}
	code, err := randomString(codeAlphabet, CodeLength)
	if err != nil {
		return Codes{}, fmt.Errorf("ticket code: %w", err)
	}
	return Codes{BookingID: BookingIDPrefix + token, TicketCode: code}, nil
}

func randomString(alphabet string, n int) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}

// Payload is the text encoded in a ticket's QR code.
func Payload(b *model.Booking) string {
	return fmt.Sprintf("%s|%s|%s", b.BookingID, b.TicketCode, b.Event.ID)
}

// QR renders the booking's QR code as a size×size PNG.
func QR(b *model.Booking, size int) ([]byte, error) {
	png, err := qrcode.Encode(Payload(b), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// PDF renders a one-page printable ticket.
func PDF(b *model.Booking) ([]byte, error) {
	qr, err := QR(b, 256)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Ticket "+b.BookingID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 12, "Event Ticket")
	pdf.Ln(16)

	pdf.SetFont("Arial", "B", 14)
	pdf.MultiCell(120, 8, b.Event.Title, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 12)
	lines := []string{
		"Date: " + b.Event.EventDate.Format("Mon, 02 Jan 2006 15:04"),
		"Location: " + b.Event.Location,
		"Attendee: " + b.User.Name,
		fmt.Sprintf("Seats: %d", b.NumberOfSeats),
		fmt.Sprintf("Total: %.2f", b.TotalAmount),
		"Booking: " + b.BookingID,
		"Ticket code: " + b.TicketCode,
	}
	for _, line := range lines {
		pdf.Cell(0, 8, line)
		pdf.Ln(8)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 145, 30, 50, 50, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
