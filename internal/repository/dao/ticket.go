package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrTicketNotFound = errors.New("ticket not found")

type Ticket struct {
	ID               string          `gorm:"type:varchar(36);primaryKey"`
	UserID           uint            `gorm:"not null;index"`
	User             User            `gorm:"foreignKey:UserID"`
	TicketInstanceID *uint           `gorm:"index"`
	TicketInstance   *TicketInstance `gorm:"foreignKey:TicketInstanceID;constraint:OnDelete:SET NULL"`
	Tier             string          `gorm:"size:20;not null"`
	QRCodeURL        string          `gorm:"type:text;not null"`
	QRCodeBase64     string          `gorm:"type:text;not null"`
	ScannedAt        *time.Time
	PDFPath          *string `gorm:"size:500"`
	CreatedAt        time.Time
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{
		db: db,
	}
}

// FindByID loads the ticket together with its instance and owner.
func (d *TicketDAO) FindByID(ctx context.Context, id string) (Ticket, error) {
	var ticket Ticket

	result := d.db.WithContext(ctx).
		Preload("TicketInstance").
		Preload("User").
		First(&ticket, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrTicketNotFound
		}

		return Ticket{}, result.Error
	}

	return ticket, nil
}

func (d *TicketDAO) FindByUserID(ctx context.Context, userID uint) ([]Ticket, error) {
	var tickets []Ticket

	err := d.db.WithContext(ctx).
		Preload("TicketInstance").
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}

	return tickets, nil
}

// Admit sets scanned_at only if it is still NULL and writes the scan log
// row for that admission in the same transaction. It reports whether this
// call performed the transition; when it did not, nothing is written.
func (d *TicketDAO) Admit(ctx context.Context, id string, at time.Time, log ScanLog) (bool, error) {
	admitted := false

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Ticket{}).
			Where("id = ? AND scanned_at IS NULL", id).
			Update("scanned_at", at)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Create(&log).Error; err != nil {
			return err
		}
		admitted = true

		return nil
	})
	if err != nil {
		return false, err
	}

	return admitted, nil
}

func (d *TicketDAO) UpdatePDFPath(ctx context.Context, id, path string) error {
	result := d.db.WithContext(ctx).Model(&Ticket{}).Where("id = ?", id).Update("pdf_path", path)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTicketNotFound
	}

	return nil
}

func (d *TicketDAO) CountIssued(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&Ticket{}).Count(&n).Error

	return n, err
}

func (d *TicketDAO) CountScanned(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&Ticket{}).Where("scanned_at IS NOT NULL").Count(&n).Error

	return n, err
}
