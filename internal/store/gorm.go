package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// kvRecord is the single table behind the database-backed store.
type kvRecord struct {
	Bucket    string `gorm:"primaryKey;size:64"`
	Key       string `gorm:"primaryKey;size:256"`
	Value     []byte
	UpdatedAt time.Time
}

func (kvRecord) TableName() string {
	return "kv_records"
}

// GormStore implements Store on top of a relational database. SQLite covers
// single-node deployments, Postgres shared ones; both go through the same
// gorm session.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (and migrates) a SQLite-backed store at the given path.
func OpenSQLite(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	return newGormStore(db)
}

// OpenPostgres opens (and migrates) a Postgres-backed store for the given DSN.
func OpenPostgres(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres store: %w", err)
	}
	return newGormStore(db)
}

func newGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv table: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	var record kvRecord
	err := g.db.WithContext(ctx).
		Where("bucket = ? AND key = ?", bucket, key).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}
	return record.Value, nil
}

func (g *GormStore) Put(ctx context.Context, bucket, key string, value []byte) error {
	record := kvRecord{Bucket: bucket, Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := g.db.WithContext(ctx).Save(&record).Error
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (g *GormStore) Delete(ctx context.Context, bucket, key string) error {
	err := g.db.WithContext(ctx).
		Where("bucket = ? AND key = ?", bucket, key).
		Delete(&kvRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (g *GormStore) Update(ctx context.Context, bucket, key string, fn UpdateFunc) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record kvRecord
		err := tx.Where("bucket = ? AND key = ?", bucket, key).First(&record).Error

		var current []byte
		found := true
		if errors.Is(err, gorm.ErrRecordNotFound) {
			found = false
		} else if err != nil {
			return fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
		} else {
			current = record.Value
		}

		next, err := fn(current, found)
		if err != nil {
			return err
		}

		record = kvRecord{Bucket: bucket, Key: key, Value: next, UpdatedAt: time.Now().UTC()}
		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("failed to write %s/%s: %w", bucket, key, err)
		}
		return nil
	})
}
