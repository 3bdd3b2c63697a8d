package models

import "time"

// SystemSetting stores admin-adjustable configuration rows: gateway fee
// percent, per-level commission rates, discount tier bands, unlock threshold.
// Values are serialized strings; the commission config holder parses them at
// load. Rows are upserted, never soft-deleted.
type SystemSetting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedBy uint      `gorm:"index" json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SystemSetting) TableName() string { return "system_settings" }
