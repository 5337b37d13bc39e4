package models

import "time"

// StorageRecord is one persisted key/value entry of the catalog stores.
type StorageRecord struct {
	Key       string    `gorm:"column:record_key;type:varchar(128);primaryKey"`
	Value     []byte    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name shared with the goose migration.
func (StorageRecord) TableName() string {
	return "storage_records"
}
