// Package statistics turns chatbot conversation exports into the "most asked
// questions" report shown on the dashboards.
package statistics

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/pkg/config"
	"github.com/leanai/mumul-backend/pkg/db"
	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
	"github.com/leanai/mumul-backend/pkg/logger"
	"github.com/leanai/mumul-backend/pkg/storage"
)

const (
	defaultTopN    = 5
	chartFileName  = "most_common_utterances.png"
	StatusNoFolder = "no folder"
	StatusNoFile   = "no file"
)

// Report is the statistics response. Status is set only when the account has
// no conversation folder yet.
type Report struct {
	Status   string           `json:"status,omitempty"`
	Message  string           `json:"message,omitempty"`
	Data     []UtteranceCount `json:"data,omitempty"`
	ImageURL string           `json:"image_url,omitempty"`
}

type Service interface {
	Report(ctx context.Context, accountID uuid.UUID, scope Scope) (*Report, error)
	// MergeAll refreshes the merged file of every conversation folder and
	// returns how many were written.
	MergeAll(ctx context.Context) (int, error)
}

type ServiceParams struct {
	DB            *db.Client
	Conversations storage.Store
	Uploader      *media.Uploader
	Config        config.StatisticsConfig
	Location      *time.Location
	Logger        *logger.Logger
}

type service struct {
	repo          *Repository
	conversations storage.Store
	uploader      *media.Uploader
	topN          int
	font          *truetype.Font
	loc           *time.Location
	logg          *logger.Logger
	now           func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.Conversations == nil {
		return nil, fmt.Errorf("conversation store required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	font, err := loadFont(params.Config.FontPath)
	if err != nil {
		return nil, err
	}
	topN := params.Config.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:          NewRepository(params.DB.DB()),
		conversations: params.Conversations,
		uploader:      params.Uploader,
		topN:          topN,
		font:          font,
		loc:           loc,
		logg:          logg,
		now:           time.Now,
	}, nil
}

func (s *service) Report(ctx context.Context, accountID uuid.UUID, scope Scope) (*Report, error) {
	folder := accountID.String()
	ctx = s.logg.WithUserID(ctx, folder)

	objects, err := s.conversations.List(ctx, folder)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list conversations")
	}
	if len(objects) == 0 {
		return &Report{Status: StatusNoFolder, Message: "사용자 데이터 폴더가 존재하지 않습니다."}, nil
	}

	key := newestMerged(objects)
	if key == "" {
		merged, err := s.merge(ctx, folder, scope)
		if err != nil {
			s.logg.Error(ctx, "statistics.merge.partial_failure", err)
		}
		key = merged
	}
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "해당 파일이 존재하지 않습니다.").
			WithDetails(map[string]any{"status": StatusNoFile})
	}

	data, err := s.analyze(ctx, key)
	if err != nil {
		return nil, err
	}
	report := &Report{Data: data}
	if len(data) == 0 {
		return report, nil
	}

	png, err := renderChart(data, s.font)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render statistics chart")
	}
	chartKey := path.Join(media.StatisticsPrefix(accountID), chartFileName)
	url, err := s.uploader.SaveAs(ctx, chartKey, media.Upload{
		Filename:    chartFileName,
		ContentType: "image/png",
		Size:        int64(len(png)),
		Body:        bytes.NewReader(png),
	})
	if err != nil {
		return nil, err
	}
	report.ImageURL = url
	return report, nil
}

func (s *service) analyze(ctx context.Context, key string) ([]UtteranceCount, error) {
	rc, err := s.conversations.Open(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open merged conversations")
	}
	defer rc.Close()
	data, err := TopUtterances(rc, s.topN)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "analyze utterances")
	}
	return data, nil
}

func (s *service) MergeAll(ctx context.Context) (int, error) {
	folders, err := s.conversations.Folders(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list conversation folders: %w", err)
	}
	merged := 0
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return merged, err
		}
		scope := ScopeStore
		if public, err := s.repo.IsPublicStaff(ctx, folder); err != nil {
			return merged, fmt.Errorf("resolve account %s: %w", folder, err)
		} else if public {
			scope = ScopePublic
		}
		key, err := s.merge(ctx, folder, scope)
		if err != nil {
			s.logg.Error(s.logg.WithField(ctx, "folder", folder), "statistics.merge.partial_failure", err)
		}
		if key != "" {
			merged++
		}
	}
	return merged, nil
}
