package db

import (
	"fmt"

	"gorm.io/gorm"
)

const nextSequenceSQL = `INSERT INTO sequences (name, value) VALUES (?, 1)
ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
RETURNING value`

// NextSequence advances the named counter and returns the new value. The upsert
// takes a row lock, so concurrent callers on the same name never see the same
// value. Call it inside the transaction that consumes the number.
func NextSequence(tx *gorm.DB, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("sequence name is required")
	}
	var value int64
	if err := tx.Raw(nextSequenceSQL, name).Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("advancing sequence %s: %w", name, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("sequence %s returned %d", name, value)
	}
	return value, nil
}

// SeedSequence raises the counter to at least floor, used when a counter is
// introduced for rows that were numbered before it existed.
func SeedSequence(tx *gorm.DB, name string, floor int64) error {
	return tx.Exec(`INSERT INTO sequences (name, value) VALUES (?, ?)
ON CONFLICT (name) DO UPDATE SET value = CASE WHEN sequences.value < excluded.value THEN excluded.value ELSE sequences.value END`, name, floor).Error
}
