package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrTicketInstanceNotFound = errors.New("ticket instance not found")

type TicketInstance struct {
	ID           uint                `gorm:"primaryKey"`
	Name         string              `gorm:"size:200;not null"`
	Capacity     int                 `gorm:"not null"`
	RegularPrice decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	VIPPrice     decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	VVIPPrice    decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type TicketInstanceDAO struct {
	db *gorm.DB
}

func NewTicketInstanceDAO(db *gorm.DB) *TicketInstanceDAO {
	return &TicketInstanceDAO{
		db: db,
	}
}

func (d *TicketInstanceDAO) Insert(ctx context.Context, instance TicketInstance) (TicketInstance, error) {
	if err := d.db.WithContext(ctx).Create(&instance).Error; err != nil {
		return TicketInstance{}, err
	}

	return instance, nil
}

func (d *TicketInstanceDAO) FindByID(ctx context.Context, id uint) (TicketInstance, error) {
	var instance TicketInstance

	result := d.db.WithContext(ctx).First(&instance, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return TicketInstance{}, ErrTicketInstanceNotFound
		}

		return TicketInstance{}, result.Error
	}

	return instance, nil
}

func (d *TicketInstanceDAO) FindAll(ctx context.Context) ([]TicketInstance, error) {
	var instances []TicketInstance

	if err := d.db.WithContext(ctx).Order("id").Find(&instances).Error; err != nil {
		return nil, err
	}

	return instances, nil
}

// Delete removes the instance and detaches its tickets, which are kept.
func (d *TicketInstanceDAO) Delete(ctx context.Context, id uint) (TicketInstance, error) {
	var instance TicketInstance
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&instance, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketInstanceNotFound
			}
			return err
		}

		if err := tx.Model(&Ticket{}).
			Where("ticket_instance_id = ?", id).
			Update("ticket_instance_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&instance).Error
	})
	if err != nil {
		return TicketInstance{}, err
	}

	return instance, nil
}

func (d *TicketInstanceDAO) Count(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&TicketInstance{}).Count(&n).Error

	return n, err
}
