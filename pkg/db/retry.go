package db

import (
	"fmt"

	"gorm.io/gorm"
)

// RetryUnique runs fn inside a savepoint and retries it when it fails with a
// unique violation on constraint. fn must recompute whatever collided (for
// example the next free slug) on each attempt. tx must be a transaction.
func RetryUnique(tx *gorm.DB, savepoint, constraint string, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if spErr := tx.SavePoint(savepoint).Error; spErr != nil {
			return fmt.Errorf("savepoint %s: %w", savepoint, spErr)
		}
		err = fn(tx)
		if err == nil {
			return nil
		}
		if !IsUniqueViolation(err, constraint) {
			return err
		}
		if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
			return fmt.Errorf("rollback to %s: %w", savepoint, rbErr)
		}
	}
	return err
}
