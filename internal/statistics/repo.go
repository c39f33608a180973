package statistics

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Questions returns the question texts of the oldest log recorded for
// agentID. A missing log yields nil.
func (r *Repository) Questions(ctx context.Context, agentID string) ([]string, error) {
	var row models.QuestionLog
	err := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("id ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return parseQuestions(row.Questions)
}

// IsPublicStaff reports whether accountID belongs to a public staff account.
func (r *Repository) IsPublicStaff(ctx context.Context, accountID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PublicUser{}).
		Where("id = ?", accountID).
		Count(&count).Error
	return count > 0, err
}

type questionEntry struct {
	Question string `json:"question"`
}

// parseQuestions reads a JSON list of {"question": ...} objects. Entries that
// are not objects are skipped.
func parseQuestions(raw string) ([]string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var entry questionEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		out = append(out, entry.Question)
	}
	return out, nil
}
