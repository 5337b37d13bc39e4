// Package sqlstore persists catalog records in the storage_records table
// through GORM (sqlite on a single device, postgres when shared).
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/shelfplanner/internal/repo"
	"github.com/angelmondragon/shelfplanner/pkg/db/models"
	"github.com/angelmondragon/shelfplanner/pkg/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements storage.Adapter on top of GORM.
type Store struct {
	repo.Base
}

// New constructs a store bound to the provided connection. A positive timeout
// bounds every read and write.
func New(db *gorm.DB, timeout time.Duration) *Store {
	return &Store{Base: repo.NewBase(db).WithTimeout(timeout)}
}

// AutoMigrate creates the records table when goose migrations are not used.
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.DB(ctx).AutoMigrate(&models.StorageRecord{})
}

// Read loads the value stored at key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	var record models.StorageRecord
	err := s.Run(ctx, func(db *gorm.DB) error {
		return db.Where("record_key = ?", key).Take(&record).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read record %s: %w", key, err)
	}
	return record.Value, nil
}

// Write upserts the value stored at key.
func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	record := models.StorageRecord{Key: key, Value: value}
	err := s.Run(ctx, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&record).Error
	})
	if err != nil {
		return fmt.Errorf("write record %s: %w", key, err)
	}
	return nil
}

// Ping verifies the datasource is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB(ctx).DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
