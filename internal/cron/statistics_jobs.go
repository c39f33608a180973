package cron

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/storage"
)

const defaultMergedRetention = 7

type statisticsMerger interface {
	MergeAll(ctx context.Context) (int, error)
}

// StatisticsMergeJob refreshes the merged conversation file of every account.
type StatisticsMergeJob struct {
	logg   *logger.Logger
	merger statisticsMerger
}

func NewStatisticsMergeJob(logg *logger.Logger, merger statisticsMerger) (*StatisticsMergeJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if merger == nil {
		return nil, fmt.Errorf("statistics service required")
	}
	return &StatisticsMergeJob{logg: logg, merger: merger}, nil
}

func (j *StatisticsMergeJob) Name() string { return "statistics_merge" }

func (j *StatisticsMergeJob) Run(ctx context.Context) error {
	merged, err := j.merger.MergeAll(ctx)
	j.logg.Info(j.logg.WithField(ctx, "merged_folders", merged), "statistics merge finished")
	return err
}

// MergedCleanupJob keeps only the newest merged files in each conversation
// folder. Exports themselves are never touched.
type MergedCleanupJob struct {
	logg   *logger.Logger
	store  storage.Store
	retain int
}

func NewMergedCleanupJob(logg *logger.Logger, store storage.Store, retain int) (*MergedCleanupJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if store == nil {
		return nil, fmt.Errorf("conversation store required")
	}
	if retain <= 0 {
		retain = defaultMergedRetention
	}
	return &MergedCleanupJob{logg: logg, store: store, retain: retain}, nil
}

func (j *MergedCleanupJob) Name() string { return "statistics_merged_cleanup" }

func (j *MergedCleanupJob) Run(ctx context.Context) error {
	folders, err := j.store.Folders(ctx, "")
	if err != nil {
		return fmt.Errorf("list conversation folders: %w", err)
	}
	var (
		errs    error
		removed int
	)
	for _, folder := range folders {
		objects, err := j.store.List(ctx, folder)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("list %s: %w", folder, err))
			continue
		}
		var merged []string
		for _, obj := range objects {
			if strings.Contains(obj.Name(), "merged_output_") {
				merged = append(merged, obj.Key)
			}
		}
		if len(merged) <= j.retain {
			continue
		}
		// Names end in the merge date, so the suffix orders them.
		sort.Slice(merged, func(a, b int) bool { return mergedDate(merged[a]) > mergedDate(merged[b]) })
		for _, key := range merged[j.retain:] {
			if err := j.store.Delete(ctx, key); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", key, err))
				continue
			}
			removed++
		}
	}
	j.logg.Info(j.logg.WithField(ctx, "removed", removed), "merged cleanup finished")
	return errs
}

func mergedDate(key string) string {
	idx := strings.LastIndex(key, "merged_output_")
	if idx < 0 {
		return ""
	}
	return key[idx:]
}
