package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/pkg/ticketpdf"
	"github.com/darkorder/ticketing-api/internal/repository"
)

var ErrTicketNotFound = repository.ErrTicketNotFound

type TicketRepository interface {
	FindByID(ctx context.Context, id string) (domain.TicketDetail, error)
	FindByUserID(ctx context.Context, userID uint) ([]domain.TicketDetail, error)
	UpdatePDFPath(ctx context.Context, id, path string) error
}

type TicketRenderer interface {
	Render(ticket domain.TicketDetail) ([]byte, error)
}

type TicketService struct {
	repo     TicketRepository
	renderer TicketRenderer
	// pdfDir, when set, keeps a copy of every rendered PDF on disk.
	pdfDir string
}

func NewTicketService(repo TicketRepository, renderer TicketRenderer, pdfDir string) *TicketService {
	return &TicketService{
		repo:     repo,
		renderer: renderer,
		pdfDir:   pdfDir,
	}
}

// ListForUser returns the user's tickets, newest first.
func (s *TicketService) ListForUser(ctx context.Context, userID uint) ([]domain.TicketDetail, error) {
	tickets, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByUserID -> %w", err)
	}

	return tickets, nil
}

// RenderForUser renders the PDF of a ticket the user owns. Someone else's
// ticket is reported as not found.
func (s *TicketService) RenderForUser(ctx context.Context, userID uint, ticketID string) ([]byte, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if ticket.UserID != userID {
		return nil, ErrTicketNotFound
	}

	pdf, err := s.renderer.Render(ticket)
	if err != nil {
		return nil, fmt.Errorf("s.renderer.Render -> %w", err)
	}

	if s.pdfDir != "" {
		s.store(ctx, ticket.ID, pdf)
	}

	return pdf, nil
}

// Verify is the public lookup behind the QR link.
func (s *TicketService) Verify(ctx context.Context, ticketID string) (domain.TicketDetail, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		return domain.TicketDetail{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return ticket, nil
}

func (s *TicketService) store(ctx context.Context, ticketID string, pdf []byte) {
	path := filepath.Join(s.pdfDir, ticketpdf.FileName(ticketID))

	if err := os.MkdirAll(s.pdfDir, 0o755); err != nil {
		zap.L().Warn("failed to create pdf dir", zap.String("dir", s.pdfDir), zap.Error(err))
		return
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		zap.L().Warn("failed to write ticket pdf", zap.String("path", path), zap.Error(err))
		return
	}
	if err := s.repo.UpdatePDFPath(ctx, ticketID, path); err != nil {
		zap.L().Warn("failed to record ticket pdf path", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}
