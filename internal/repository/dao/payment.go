package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentNotPending = errors.New("payment is not pending")
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

type Payment struct {
	ID                 uint            `gorm:"primaryKey"`
	UserID             uint            `gorm:"not null;index"`
	ExternalReference  string          `gorm:"size:100;uniqueIndex;not null"`
	Amount             decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PhoneNumber        string          `gorm:"size:20;not null"`
	Status             PaymentStatus   `gorm:"size:50;not null;index"`
	Cart               string          `gorm:"type:text"`
	GatewayReference   string          `gorm:"size:100"`
	ResultDescription  string          `gorm:"type:text"`
	CreatedAt          time.Time
	CallbackReceivedAt *time.Time
}

type PaymentDAO struct {
	db *gorm.DB
}

func NewPaymentDAO(db *gorm.DB) *PaymentDAO {
	return &PaymentDAO{
		db: db,
	}
}

func (d *PaymentDAO) Insert(ctx context.Context, payment Payment) (Payment, error) {
	if err := d.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return Payment{}, err
	}

	return payment, nil
}

func (d *PaymentDAO) FindByReference(ctx context.Context, reference string) (Payment, error) {
	var payment Payment

	result := d.db.WithContext(ctx).First(&payment, "external_reference = ?", reference)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Payment{}, ErrPaymentNotFound
		}

		return Payment{}, result.Error
	}

	return payment, nil
}

// MarkFailed moves a pending payment to failed. callbackAt is nil when the
// failure is detected locally, before any callback.
func (d *PaymentDAO) MarkFailed(ctx context.Context, reference, description string, callbackAt *time.Time) error {
	result := d.db.WithContext(ctx).
		Model(&Payment{}).
		Where("external_reference = ? AND status = ?", reference, PaymentPending).
		Updates(map[string]interface{}{
			"status":               PaymentFailed,
			"result_description":   description,
			"callback_received_at": callbackAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotPending
	}

	return nil
}

// Complete moves a pending payment to success and inserts its tickets in the
// same transaction. Exactly one caller can win for a given reference.
func (d *PaymentDAO) Complete(ctx context.Context, reference, gatewayRef, description string, callbackAt time.Time, tickets []Ticket) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Payment{}).
			Where("external_reference = ? AND status = ?", reference, PaymentPending).
			Updates(map[string]interface{}{
				"status":               PaymentSuccess,
				"gateway_reference":    gatewayRef,
				"result_description":   description,
				"callback_received_at": callbackAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPaymentNotPending
		}

		if len(tickets) == 0 {
			return nil
		}

		return tx.Omit("User", "TicketInstance").Create(&tickets).Error
	})
}

func (d *PaymentDAO) CountByStatus(ctx context.Context) (map[PaymentStatus]int64, error) {
	var rows []struct {
		Status PaymentStatus
		Total  int64
	}

	err := d.db.WithContext(ctx).
		Model(&Payment{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[PaymentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}

	return counts, nil
}
