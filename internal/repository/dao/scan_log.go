package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ScanLog struct {
	ID        uint   `gorm:"primaryKey"`
	TicketID  string `gorm:"type:text;index"`
	Result    string `gorm:"size:50;not null"`
	Details   string `gorm:"type:text"`
	ScannedBy *uint
	ScannedAt time.Time `gorm:"not null"`
}

type ScanLogDAO struct {
	db *gorm.DB
}

func NewScanLogDAO(db *gorm.DB) *ScanLogDAO {
	return &ScanLogDAO{
		db: db,
	}
}

func (d *ScanLogDAO) Insert(ctx context.Context, log ScanLog) (ScanLog, error) {
	if err := d.db.WithContext(ctx).Create(&log).Error; err != nil {
		return ScanLog{}, err
	}

	return log, nil
}
