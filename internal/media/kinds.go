package media

import (
	"fmt"
	"sort"
	"strings"

	pkgerrors "github.com/leanai/mumul-backend/pkg/errors"
)

// Kind groups uploads by what the client may send for them.
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindExcel    Kind = "excel"
)

type extGroup string

const (
	extGroupImages    extGroup = "images"
	extGroupOffice    extGroup = "office"
	extGroupArchives  extGroup = "archives"
	extGroupExcel     extGroup = "excel"
	extGroupPlainText extGroup = "text"
)

var extGroupTypes = map[extGroup][]string{
	extGroupImages:    {".png", ".jpg", ".jpeg", ".gif"},
	extGroupOffice:    {".pdf", ".docx", ".doc", ".hwp", ".pptx", ".ppt"},
	extGroupExcel:     {".xlsx", ".xls", ".csv"},
	extGroupPlainText: {".txt"},
	extGroupArchives:  {".zip"},
}

var allowedGroupsByKind = map[Kind][]extGroup{
	KindImage:    {extGroupImages},
	KindDocument: {extGroupOffice, extGroupExcel, extGroupPlainText, extGroupImages, extGroupArchives},
	KindExcel:    {extGroupExcel},
}

var extensionsByKind = buildExtensionsByKind()

func buildExtensionsByKind() map[Kind][]string {
	result := make(map[Kind][]string, len(allowedGroupsByKind))
	for kind, groups := range allowedGroupsByKind {
		set := make(map[string]struct{})
		for _, group := range groups {
			for _, ext := range extGroupTypes[group] {
				set[ext] = struct{}{}
			}
		}
		list := make([]string, 0, len(set))
		for ext := range set {
			list = append(list, ext)
		}
		sort.Strings(list)
		result[kind] = list
	}
	return result
}

// Extensions lists the accepted extensions for kind, dot included.
func Extensions(kind Kind) []string {
	return append([]string(nil), extensionsByKind[kind]...)
}

// Allowed reports whether filename carries an extension accepted for kind.
func Allowed(kind Kind, filename string) bool {
	ext := Ext(filename)
	if ext == "" {
		return false
	}
	for _, candidate := range extensionsByKind[kind] {
		if candidate == ext {
			return true
		}
	}
	return false
}

// Validate returns a validation error naming the accepted extensions.
func Validate(kind Kind, filename string) error {
	if Allowed(kind, filename) {
		return nil
	}
	names := make([]string, 0, len(extensionsByKind[kind]))
	for _, ext := range extensionsByKind[kind] {
		names = append(names, strings.TrimPrefix(ext, "."))
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("허용되지 않는 파일 형식입니다. 허용된 형식: %s", strings.Join(names, ", "))).
		WithDetails(map[string]any{"file": filename})
}

// IsImage reports whether name looks like a displayable image.
func IsImage(name string) bool {
	return Allowed(KindImage, name)
}

// DefaultProfilePhotoKey is the shared placeholder profile image.
const DefaultProfilePhotoKey = "profile_photos/profile_default_img.jpg"
