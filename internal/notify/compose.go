package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/pkg/mailer"
	"github.com/darkorder/ticketing-api/internal/pkg/ticketpdf"
)

const (
	KindTickets  = "tickets"
	KindPINReset = "pin_reset"
)

var ticketsTmpl = template.Must(template.New("tickets").Parse(`<html>
<body style="background-color: #1a0000; color: #ffffff; font-family: Arial, sans-serif; padding: 20px;">
    <h1 style="color: #cc0000;">{{.Title}} {{.Subtitle}}</h1>
    <p>Dear Guest,</p>
    <p>Your tickets have been confirmed! Please find your ticket(s) attached as PDF files.</p>
    <p>Each ticket contains a unique QR code. Please present this QR code at the entrance.</p>
    <p style="color: #cc0000;"><strong>Total Tickets: {{.Count}}</strong></p>
    <p>We look forward to seeing you at the event!</p>
    <p style="color: #666;">This is an automated email. Please do not reply.</p>
</body>
</html>`))

var pinResetTmpl = template.Must(template.New("pin_reset").Parse(`<html>
<body style="background-color: #1a0000; color: #ffffff; font-family: Arial, sans-serif; padding: 20px;">
    <h1 style="color: #cc0000;">PIN Reset</h1>
    <p>Your new PIN is: <strong style="font-size: 24px; color: #cc0000;">{{.PIN}}</strong></p>
    <p>Please use this PIN to sign in to your account.</p>
</body>
</html>`))

type Renderer interface {
	Render(ticket domain.TicketDetail) ([]byte, error)
}

type Composer struct {
	renderer Renderer
	branding ticketpdf.Branding
}

func NewComposer(renderer Renderer, branding ticketpdf.Branding) *Composer {
	return &Composer{
		renderer: renderer,
		branding: branding,
	}
}

// Tickets builds one email carrying a PDF per ticket.
func (c *Composer) Tickets(to string, tickets []domain.TicketDetail) (mailer.Message, error) {
	attachments := make([]mailer.Attachment, 0, len(tickets))
	for _, ticket := range tickets {
		pdf, err := c.renderer.Render(ticket)
		if err != nil {
			return mailer.Message{}, fmt.Errorf("c.renderer.Render -> %w", err)
		}

		attachments = append(attachments, mailer.Attachment{
			Filename:    ticketpdf.FileName(ticket.ID),
			ContentType: "application/pdf",
			Content:     pdf,
		})
	}

	var body bytes.Buffer
	err := ticketsTmpl.Execute(&body, map[string]interface{}{
		"Title":    c.branding.Title,
		"Subtitle": c.branding.Subtitle,
		"Count":    len(tickets),
	})
	if err != nil {
		return mailer.Message{}, fmt.Errorf("ticketsTmpl.Execute -> %w", err)
	}

	return mailer.Message{
		To:          to,
		Subject:     "Your Tickets - " + c.branding.Title,
		HTML:        body.String(),
		Attachments: attachments,
	}, nil
}

func (c *Composer) PINReset(to, pin string) (mailer.Message, error) {
	var body bytes.Buffer
	if err := pinResetTmpl.Execute(&body, map[string]string{"PIN": pin}); err != nil {
		return mailer.Message{}, fmt.Errorf("pinResetTmpl.Execute -> %w", err)
	}

	return mailer.Message{
		To:      to,
		Subject: "Your New PIN - " + c.branding.Title,
		HTML:    body.String(),
	}, nil
}
