package repository

import (
	"context"
	"fmt"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/repository/dao"
)

type ScanLogDAO interface {
	Insert(ctx context.Context, log dao.ScanLog) (dao.ScanLog, error)
}

type ScanLogRepository struct {
	dao ScanLogDAO
}

func NewScanLogRepository(dao ScanLogDAO) *ScanLogRepository {
	return &ScanLogRepository{
		dao: dao,
	}
}

func (r *ScanLogRepository) Create(ctx context.Context, log domain.ScanLog) (domain.ScanLog, error) {
	created, err := r.dao.Insert(ctx, scanLogDomainToDao(log))
	if err != nil {
		return domain.ScanLog{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return domain.ScanLog{
		ID:        created.ID,
		TicketID:  created.TicketID,
		Result:    domain.ScanResult(created.Result),
		Details:   created.Details,
		ScannedBy: created.ScannedBy,
		ScannedAt: created.ScannedAt,
	}, nil
}

func scanLogDomainToDao(log domain.ScanLog) dao.ScanLog {
	return dao.ScanLog{
		TicketID:  log.TicketID,
		Result:    string(log.Result),
		Details:   log.Details,
		ScannedBy: log.ScannedBy,
		ScannedAt: log.ScannedAt,
	}
}
