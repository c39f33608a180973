package cron

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/storage"
)

type stubMerger struct {
	calls int
	err   error
}

func (s *stubMerger) MergeAll(context.Context) (int, error) {
	s.calls++
	return 3, s.err
}

func TestStatisticsMergeJob(t *testing.T) {
	merger := &stubMerger{}
	job, err := NewStatisticsMergeJob(logger.Nop(), merger)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	merger.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected merge error to surface")
	}
	if merger.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", merger.calls)
	}
	if _, err := NewStatisticsMergeJob(logger.Nop(), nil); err == nil {
		t.Fatal("expected missing merger to fail")
	}
}

func TestMergedCleanupJobKeepsNewest(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocal(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new local: %v", err)
	}
	keys := []string{
		"acct/export.csv",
		"acct/merged_output_2026-01-01.csv",
		"acct/public_merged_output_2026-01-03.csv",
		"acct/merged_output_2026-01-02.csv",
	}
	for _, key := range keys {
		if err := store.Save(ctx, key, strings.NewReader("x"), "text/csv"); err != nil {
			t.Fatalf("save %s: %v", key, err)
		}
	}

	job, err := NewMergedCleanupJob(logger.Nop(), store, 2)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := map[string]bool{
		"acct/export.csv":                          true,
		"acct/merged_output_2026-01-01.csv":        false,
		"acct/merged_output_2026-01-02.csv":        true,
		"acct/public_merged_output_2026-01-03.csv": true,
	}
	for key, exists := range want {
		ok, err := store.Exists(ctx, key)
		if err != nil {
			t.Fatalf("exists %s: %v", key, err)
		}
		if ok != exists {
			t.Fatalf("%s: expected exists=%v, got %v", key, exists, ok)
		}
	}
}
