package edits

import (
	"time"

	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/pkg/db/models"
)

// EditDTO is one stored request.
type EditDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     *string   `json:"title"`
	Content   *string   `json:"content"`
	File      *string   `json:"file"`
	CreatedAt time.Time `json:"created_at"`
}

func FromModel(e *models.Edit) *EditDTO {
	return &EditDTO{ID: e.ID, Title: e.Title, Content: e.Content, File: e.File, CreatedAt: e.CreatedAt}
}

// SubmitInput is the request-service form.
type SubmitInput struct {
	Title   string
	Content string
	Files   []media.Upload
}

func (in SubmitInput) empty() bool {
	return in.Title == "" && in.Content == "" && len(in.Files) == 0
}
