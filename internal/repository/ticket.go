package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/repository/dao"
)

var ErrTicketNotFound = dao.ErrTicketNotFound

type TicketDAO interface {
	FindByID(ctx context.Context, id string) (dao.Ticket, error)
	FindByUserID(ctx context.Context, userID uint) ([]dao.Ticket, error)
	Admit(ctx context.Context, id string, at time.Time, log dao.ScanLog) (bool, error)
	UpdatePDFPath(ctx context.Context, id, path string) error
	CountIssued(ctx context.Context) (int64, error)
	CountScanned(ctx context.Context) (int64, error)
}

type TicketRepository struct {
	dao TicketDAO
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
	}
}

func (r *TicketRepository) FindByID(ctx context.Context, id string) (domain.TicketDetail, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.TicketDetail{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return ticketDaoToDetail(found), nil
}

func (r *TicketRepository) FindByUserID(ctx context.Context, userID uint) ([]domain.TicketDetail, error) {
	found, err := r.dao.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUserID -> %w", err)
	}

	tickets := make([]domain.TicketDetail, len(found))
	for i, ticket := range found {
		tickets[i] = ticketDaoToDetail(ticket)
	}

	return tickets, nil
}

// Admit marks the ticket scanned at log.ScannedAt and stores log with it,
// atomically. false means another scan got there first.
func (r *TicketRepository) Admit(ctx context.Context, id string, log domain.ScanLog) (bool, error) {
	admitted, err := r.dao.Admit(ctx, id, log.ScannedAt, scanLogDomainToDao(log))
	if err != nil {
		return false, fmt.Errorf("r.dao.Admit -> %w", err)
	}

	return admitted, nil
}

func (r *TicketRepository) UpdatePDFPath(ctx context.Context, id, path string) error {
	if err := r.dao.UpdatePDFPath(ctx, id, path); err != nil {
		return fmt.Errorf("r.dao.UpdatePDFPath -> %w", err)
	}

	return nil
}

func (r *TicketRepository) CountIssued(ctx context.Context) (int64, error) {
	n, err := r.dao.CountIssued(ctx)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountIssued -> %w", err)
	}

	return n, nil
}

func (r *TicketRepository) CountScanned(ctx context.Context) (int64, error) {
	n, err := r.dao.CountScanned(ctx)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountScanned -> %w", err)
	}

	return n, nil
}

func ticketDaoToDetail(t dao.Ticket) domain.TicketDetail {
	detail := domain.TicketDetail{
		Ticket: domain.Ticket{
			ID:           t.ID,
			UserID:       t.UserID,
			InstanceID:   t.TicketInstanceID,
			Tier:         domain.Tier(t.Tier),
			QRCodeURL:    t.QRCodeURL,
			QRCodeBase64: t.QRCodeBase64,
			ScannedAt:    t.ScannedAt,
			PDFPath:      t.PDFPath,
			CreatedAt:    t.CreatedAt,
		},
		InstanceName: domain.RemovedInstanceName,
		OwnerEmail:   t.User.Email,
	}

	if t.TicketInstance != nil {
		detail.InstanceName = t.TicketInstance.Name
		detail.Capacity = t.TicketInstance.Capacity
	}

	return detail
}

func ticketDomainToDao(t domain.Ticket) dao.Ticket {
	return dao.Ticket{
		ID:               t.ID,
		UserID:           t.UserID,
		TicketInstanceID: t.InstanceID,
		Tier:             string(t.Tier),
		QRCodeURL:        t.QRCodeURL,
		QRCodeBase64:     t.QRCodeBase64,
		ScannedAt:        t.ScannedAt,
		PDFPath:          t.PDFPath,
		CreatedAt:        t.CreatedAt,
	}
}
