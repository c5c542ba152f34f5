// Package ticketpdf renders a printable, single page ticket.
package ticketpdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/darkorder/ticketing-api/internal/domain"
)

const (
	pageW = 612.0
	pageH = 792.0
	inch  = 72.0

	qrImageName = "qr"
)

type Branding struct {
	Title    string `mapstructure:"title"`
	Subtitle string `mapstructure:"subtitle"`
}

var DefaultBranding = Branding{
	Title:    "THE DARK ORDER",
	Subtitle: "HALLOWEEN PLAY & PARTY",
}

type Renderer struct {
	branding Branding
	now      func() time.Time
	compress bool
}

func NewRenderer(branding Branding) *Renderer {
	if branding.Title == "" {
		branding.Title = DefaultBranding.Title
	}
	if branding.Subtitle == "" {
		branding.Subtitle = DefaultBranding.Subtitle
	}

	return &Renderer{
		branding: branding,
		now:      time.Now,
		compress: true,
	}
}

// Render draws the ticket. The QR image is taken from the ticket's stored
// base64 PNG, so the printed code always matches the issued one.
func (r *Renderer) Render(ticket domain.TicketDetail) ([]byte, error) {
	png, err := base64.StdEncoding.DecodeString(ticket.QRCodeBase64)
	if err != nil {
		return nil, fmt.Errorf("base64.DecodeString -> %w", err)
	}

	now := r.now().UTC()

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(r.compress)
	pdf.SetCreationDate(now)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(fmt.Sprintf("Ticket %s", ticket.ID), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFillColor(26, 0, 0)
	pdf.Rect(0, 0, pageW, pageH, "F")

	pdf.SetFillColor(204, 0, 0)
	pdf.Rect(0.5*inch, 0.5*inch, pageW-inch, 1.5*inch, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 36)
	centered(pdf, 0.85*inch, tr(r.branding.Title))
	pdf.SetFont("Helvetica", "B", 24)
	centered(pdf, 1.3*inch, tr(r.branding.Subtitle))

	pdf.SetTextColor(230, 230, 230)
	pdf.SetFont("Helvetica", "B", 16)
	lines := []string{
		"Ticket Instance: " + ticket.InstanceName,
		"Tier: " + strings.ToUpper(string(ticket.Tier)),
		ticket.CapacityText(),
		"Ticket ID: " + ticket.ID,
		"Email: " + ticket.OwnerEmail,
	}
	for i, line := range lines {
		pdf.Text(inch, 3*inch+float64(i)*0.5*inch, tr(line))
	}

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(qrImageName, opts, bytes.NewReader(png))
	pdf.ImageOptions(qrImageName, pageW/2-1.5*inch, 5.5*inch, 3*inch, 3*inch, false, opts, 0, "")

	pdf.SetTextColor(204, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	centered(pdf, 8.85*inch, "SCAN QR CODE AT ENTRANCE")

	pdf.SetTextColor(153, 153, 153)
	pdf.SetFont("Helvetica", "", 10)
	centered(pdf, pageH-1.15*inch, fmt.Sprintf("Generated: %s UTC", now.Format("2006-01-02 15:04:05")))

	var buf bytes.Buffer
	if err = pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf.Output -> %w", err)
	}

	return buf.Bytes(), nil
}

func FileName(ticketID string) string {
	return "ticket_" + ticketID + ".pdf"
}

func centered(pdf *fpdf.Fpdf, y float64, text string) {
	pdf.SetXY(0, y)
	pdf.CellFormat(pageW, 20, text, "", 0, "C", false, 0, "")
}
