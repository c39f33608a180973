package feeds

import (
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/internal/media"
)

// ImageDTO is one feed picture. ID is the stored file name and is what the
// delete and rename routes take.
type ImageDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Ext  string `json:"ext"`
	Path string `json:"path"`
}

type UploadResult struct {
	FilePath   string `json:"file_path"`
	StoredName string `json:"stored_name"`
}

type RenameRequest struct {
	Name string `json:"name" validate:"required"`
}

// displayName strips the _{uuid} suffix SaveNamed appends.
func displayName(fileName string) string {
	stem := strings.TrimSuffix(fileName, path.Ext(fileName))
	idx := strings.LastIndex(stem, "_")
	if idx <= 0 {
		return stem
	}
	if _, err := uuid.Parse(stem[idx+1:]); err != nil {
		return stem
	}
	return stem[:idx]
}

func imageFromKey(uploader *media.Uploader, key string) ImageDTO {
	name := path.Base(key)
	return ImageDTO{
		ID:   name,
		Name: displayName(name),
		Ext:  media.Ext(name),
		Path: uploader.URL(key),
	}
}
