package service

import (
	"context"
	"fmt"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/repository"
)

var ErrTicketInstanceNotFound = repository.ErrTicketInstanceNotFound

type CatalogRepository interface {
	Create(ctx context.Context, instance domain.TicketInstance) (domain.TicketInstance, error)
	FindByID(ctx context.Context, id uint) (domain.TicketInstance, error)
	FindAll(ctx context.Context) ([]domain.TicketInstance, error)
	Delete(ctx context.Context, id uint) (domain.TicketInstance, error)
	Count(ctx context.Context) (int64, error)
}

type TicketStatsRepository interface {
	CountIssued(ctx context.Context) (int64, error)
	CountScanned(ctx context.Context) (int64, error)
}

type PaymentStatsRepository interface {
	CountByStatus(ctx context.Context) (map[domain.PaymentStatus]int64, error)
}

type CatalogService struct {
	repo     CatalogRepository
	tickets  TicketStatsRepository
	payments PaymentStatsRepository
}

func NewCatalogService(repo CatalogRepository, tickets TicketStatsRepository, payments PaymentStatsRepository) *CatalogService {
	return &CatalogService{
		repo:     repo,
		tickets:  tickets,
		payments: payments,
	}
}

func (s *CatalogService) ListInstances(ctx context.Context) ([]domain.TicketInstance, error) {
	instances, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return instances, nil
}

func (s *CatalogService) CreateInstance(ctx context.Context, instance domain.TicketInstance) (domain.TicketInstance, error) {
	created, err := s.repo.Create(ctx, instance)
	if err != nil {
		return domain.TicketInstance{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// DeleteInstance removes the instance. Its tickets are kept but orphaned.
func (s *CatalogService) DeleteInstance(ctx context.Context, id uint) (domain.TicketInstance, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return domain.TicketInstance{}, fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return deleted, nil
}

func (s *CatalogService) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	var (
		stats domain.DashboardStats
		err   error
	)

	if stats.Instances, err = s.repo.Count(ctx); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("s.repo.Count -> %w", err)
	}
	if stats.TicketsIssued, err = s.tickets.CountIssued(ctx); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("s.tickets.CountIssued -> %w", err)
	}
	if stats.TicketsScanned, err = s.tickets.CountScanned(ctx); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("s.tickets.CountScanned -> %w", err)
	}
	if stats.Payments, err = s.payments.CountByStatus(ctx); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("s.payments.CountByStatus -> %w", err)
	}

	return stats, nil
}
