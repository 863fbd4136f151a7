// Package repo implements the key-value metadata gateway backing the
// submission system. This file maintains the pending-moderation index:
// a JSON array of submission ids stored under a single key, read and
// rewritten whole.
//
// The read-modify-write is not atomic across concurrent writers; the
// index is advisory (listing skips dangling ids and a missed entry is
// repaired by the next status change), so a lost update degrades to a
// stale listing, never to data loss.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// PendingIndex returns the current list of pending submission ids. An
// absent index reads as empty.
func PendingIndex(ctx context.Context, db *gorm.DB, now time.Time) ([]string, error) {
	var ids []string
	err := GetJSON(ctx, db, PendingIndexKey, now, &ids)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return ids, err
}

// AddPending appends id to the pending index if it is not already
// present.
func AddPending(ctx context.Context, db *gorm.DB, id string, now time.Time) error {
	ids, err := PendingIndex(ctx, db, now)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return PutJSON(ctx, db, PendingIndexKey, append(ids, id), now, 0)
}

// RemovePending deletes id from the pending index. Removing an absent
// id is not an error.
func RemovePending(ctx context.Context, db *gorm.DB, id string, now time.Time) error {
	ids, err := PendingIndex(ctx, db, now)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(ids) {
		return nil
	}
	return PutJSON(ctx, db, PendingIndexKey, kept, now, 0)
}
