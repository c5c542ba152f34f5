package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/repository/dao"
)

var ErrTicketInstanceNotFound = dao.ErrTicketInstanceNotFound

type TicketInstanceDAO interface {
	Insert(ctx context.Context, instance dao.TicketInstance) (dao.TicketInstance, error)
	FindByID(ctx context.Context, id uint) (dao.TicketInstance, error)
	FindAll(ctx context.Context) ([]dao.TicketInstance, error)
	Delete(ctx context.Context, id uint) (dao.TicketInstance, error)
	Count(ctx context.Context) (int64, error)
}

type CatalogRepository struct {
	dao TicketInstanceDAO
}

func NewCatalogRepository(dao TicketInstanceDAO) *CatalogRepository {
	return &CatalogRepository{
		dao: dao,
	}
}

func (r *CatalogRepository) Create(ctx context.Context, instance domain.TicketInstance) (domain.TicketInstance, error) {
	created, err := r.dao.Insert(ctx, dao.TicketInstance{
		Name:         instance.Name,
		Capacity:     instance.Capacity,
		RegularPrice: toNullDecimal(instance.RegularPrice),
		VIPPrice:     toNullDecimal(instance.VIPPrice),
		VVIPPrice:    toNullDecimal(instance.VVIPPrice),
	})
	if err != nil {
		return domain.TicketInstance{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return instanceDaoToDomain(created), nil
}

func (r *CatalogRepository) FindByID(ctx context.Context, id uint) (domain.TicketInstance, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.TicketInstance{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return instanceDaoToDomain(found), nil
}

func (r *CatalogRepository) FindAll(ctx context.Context) ([]domain.TicketInstance, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	instances := make([]domain.TicketInstance, len(found))
	for i, instance := range found {
		instances[i] = instanceDaoToDomain(instance)
	}

	return instances, nil
}

func (r *CatalogRepository) Delete(ctx context.Context, id uint) (domain.TicketInstance, error) {
	deleted, err := r.dao.Delete(ctx, id)
	if err != nil {
		return domain.TicketInstance{}, fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return instanceDaoToDomain(deleted), nil
}

func (r *CatalogRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.dao.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("r.dao.Count -> %w", err)
	}

	return n, nil
}

func instanceDaoToDomain(ti dao.TicketInstance) domain.TicketInstance {
	return domain.TicketInstance{
		ID:           ti.ID,
		Name:         ti.Name,
		Capacity:     ti.Capacity,
		RegularPrice: fromNullDecimal(ti.RegularPrice),
		VIPPrice:     fromNullDecimal(ti.VIPPrice),
		VVIPPrice:    fromNullDecimal(ti.VVIPPrice),
		CreatedAt:    ti.CreatedAt,
		UpdatedAt:    ti.UpdatedAt,
	}
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(*d)
}

func fromNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}

	v := d.Decimal
	return &v
}
