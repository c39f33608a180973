package media

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/leanai/mumul-backend/pkg/storage"
)

// Purge removes whole folders and single keys, continuing past failures.
// The returned error combines every failure.
func (u *Uploader) Purge(ctx context.Context, prefixes, keys []string) error {
	var errs error
	for _, prefix := range prefixes {
		if err := u.store.DeletePrefix(ctx, prefix); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = multierr.Append(errs, fmt.Errorf("delete %s/: %w", prefix, err))
		}
	}
	for _, key := range keys {
		if err := u.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errs
}
