package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/metrics"
	"github.com/darkorder/ticketing-api/internal/repository"
)

var ErrMissingTicketID = errors.New("ticket_id is required")

const (
	MsgTicketValid          = "Ticket Valid"
	MsgTicketInvalid        = "Invalid Ticket"
	MsgTicketAlreadyScanned = "Ticket Already Scanned"

	ScannedAtLayout = "2006-01-02 15:04:05"
)

type ScanTicketRepository interface {
	FindByID(ctx context.Context, id string) (domain.TicketDetail, error)
	Admit(ctx context.Context, id string, log domain.ScanLog) (bool, error)
}

type ScanLogRepository interface {
	Create(ctx context.Context, log domain.ScanLog) (domain.ScanLog, error)
}

// ScanBroadcaster fans scan outcomes out to live staff clients.
type ScanBroadcaster interface {
	Broadcast(outcome domain.ScanOutcome)
}

type ScanService struct {
	tickets     ScanTicketRepository
	logs        ScanLogRepository
	broadcaster ScanBroadcaster
	now         func() time.Time
}

func NewScanService(tickets ScanTicketRepository, logs ScanLogRepository, broadcaster ScanBroadcaster) *ScanService {
	return &ScanService{
		tickets:     tickets,
		logs:        logs,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// Scan admits a ticket once. Every attempt, whatever its result, is written
// to the scan log exactly once. raw may be the bare id or the verification
// link printed in the QR code.
func (s *ScanService) Scan(ctx context.Context, raw string, staffID uint) (domain.ScanOutcome, error) {
	ticketID := domain.ScannedTicketID(raw)
	if ticketID == "" {
		return domain.ScanOutcome{}, ErrMissingTicketID
	}

	invalid := domain.ScanOutcome{
		TicketID: ticketID,
		Result:   domain.ScanInvalid,
		Message:  MsgTicketInvalid,
	}
	if len(ticketID) > domain.TicketIDLength {
		return s.record(ctx, staffID, invalid, "Malformed ticket id")
	}

	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if errors.Is(err, repository.ErrTicketNotFound) {
		return s.record(ctx, staffID, invalid, "Ticket not found in database")
	}
	if err != nil {
		return domain.ScanOutcome{}, fmt.Errorf("s.tickets.FindByID -> %w", err)
	}

	if !ticket.IsScanned() {
		details := fmt.Sprintf("Ticket: %s, Tier: %s", ticket.InstanceName, ticket.Tier)
		entry := s.logEntry(staffID, ticketID, domain.ScanValid, details)
		now := entry.ScannedAt

		admitted, err := s.tickets.Admit(ctx, ticketID, entry)
		if err != nil {
			return domain.ScanOutcome{}, fmt.Errorf("s.tickets.Admit -> %w", err)
		}

		if admitted {
			ticket.ScannedAt = &now
			outcome := domain.ScanOutcome{
				TicketID:  ticketID,
				Result:    domain.ScanValid,
				Message:   MsgTicketValid,
				Ticket:    &ticket,
				ScannedAt: &now,
			}
			s.announce(outcome)

			return outcome, nil
		}

		// Lost the race to a concurrent scan; report its timestamp.
		if ticket, err = s.tickets.FindByID(ctx, ticketID); err != nil {
			return domain.ScanOutcome{}, fmt.Errorf("s.tickets.FindByID -> %w", err)
		}
	}

	return s.record(ctx, staffID, domain.ScanOutcome{
		TicketID:  ticketID,
		Result:    domain.ScanAlreadyScanned,
		Message:   MsgTicketAlreadyScanned,
		Ticket:    &ticket,
		ScannedAt: ticket.ScannedAt,
	}, "Already scanned at "+formatScannedAt(ticket.ScannedAt))
}

// record logs a rejected attempt. Admissions are logged by Admit.
func (s *ScanService) record(ctx context.Context, staffID uint, outcome domain.ScanOutcome, details string) (domain.ScanOutcome, error) {
	_, err := s.logs.Create(ctx, s.logEntry(staffID, outcome.TicketID, outcome.Result, details))
	if err != nil {
		return domain.ScanOutcome{}, fmt.Errorf("s.logs.Create -> %w", err)
	}

	s.announce(outcome)

	return outcome, nil
}

func (s *ScanService) logEntry(staffID uint, ticketID string, result domain.ScanResult, details string) domain.ScanLog {
	var scannedBy *uint
	if staffID != 0 {
		scannedBy = &staffID
	}

	return domain.ScanLog{
		TicketID:  ticketID,
		Result:    result,
		Details:   details,
		ScannedBy: scannedBy,
		ScannedAt: s.now().UTC(),
	}
}

func (s *ScanService) announce(outcome domain.ScanOutcome) {
	metrics.TrackScan(string(outcome.Result))
	if outcome.Result == domain.ScanValid {
		zap.L().Info("ticket scanned", zap.String("ticket_id", outcome.TicketID))
	} else {
		zap.L().Warn("ticket rejected at scan",
			zap.String("ticket_id", outcome.TicketID), zap.String("result", string(outcome.Result)))
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(outcome)
	}
}

func formatScannedAt(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.UTC().Format(ScannedAtLayout)
}
