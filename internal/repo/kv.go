// Package repo implements the key-value metadata gateway backing the
// submission system. This file provides the generic get/put/delete/list
// primitives used by the service layer.
//
// Error semantics:
//   - When a key is absent or its record has expired, Get returns
//     ErrNotFound (an alias of gorm.ErrRecordNotFound).
//   - On DB errors the raw gorm error is propagated.
//
// Expiry is lazy: expired records are filtered out by every query and
// physically removed opportunistically; the store offers no background
// sweeper and none is needed, per-key TTLs exist only so stale counters
// and consumed tokens stop resolving.
package repo

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a requested key does not exist or has
// expired. It aliases gorm.ErrRecordNotFound for convenience and
// consistency across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// KVRecord is one row of the metadata store: an opaque JSON value under
// a unique key, with an optional expiry instant.
type KVRecord struct {
	Key       string     `gorm:"primaryKey;type:varchar(255)"`
	Value     []byte     `gorm:"not null"`
	ExpiresAt *time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName pins the table name so renames of the struct never migrate
// the data away.
func (KVRecord) TableName() string { return "kv_records" }

// Get returns the raw value stored under key, or ErrNotFound if the key
// is absent or expired.
func Get(ctx context.Context, db *gorm.DB, key string, now time.Time) ([]byte, error) {
	var rec KVRecord
	err := db.WithContext(ctx).
		Where("key = ? AND (expires_at IS NULL OR expires_at > ?)", key, now).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return rec.Value, nil
}

// GetJSON fetches the value under key and unmarshals it into out.
func GetJSON(ctx context.Context, db *gorm.DB, key string, now time.Time, out any) error {
	raw, err := Get(ctx, db, key, now)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Put stores value under key, replacing any previous record. A zero ttl
// stores the record without expiry.
func Put(ctx context.Context, db *gorm.DB, key string, value []byte, now time.Time, ttl time.Duration) error {
	rec := KVRecord{Key: key, Value: value, UpdatedAt: now}
	if ttl > 0 {
		exp := now.Add(ttl)
		rec.ExpiresAt = &exp
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).
		Create(&rec).Error
}

// PutJSON marshals v and stores it under key with the given ttl.
func PutJSON(ctx context.Context, db *gorm.DB, key string, v any, now time.Time, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return Put(ctx, db, key, raw, now, ttl)
}

// Delete removes the record under key. Deleting an absent key is not an
// error.
func Delete(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Where("key = ?", key).Delete(&KVRecord{}).Error
}

// ListKeys returns all live keys beginning with prefix, in ascending
// key order. Expired records are excluded.
func ListKeys(ctx context.Context, db *gorm.DB, prefix string, now time.Time) ([]string, error) {
	var keys []string
	err := db.WithContext(ctx).
		Model(&KVRecord{}).
		Where("key LIKE ? AND (expires_at IS NULL OR expires_at > ?)", prefix+"%", now).
		Order("key asc").
		Pluck("key", &keys).Error
	return keys, err
}

// PurgeExpired physically removes records whose expiry has passed.
// Callers may invoke it opportunistically; correctness never depends
// on it.
func PurgeExpired(ctx context.Context, db *gorm.DB, now time.Time) error {
	return db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&KVRecord{}).Error
}
