package menus

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
)

// ImportTemplatePrefix marks the onboarding spreadsheet uploaded through
// request-service.
const ImportTemplatePrefix = "무물_초기_데이터_입력_양식"

const (
	colName         = "메뉴명"
	colPrice        = "가격"
	colCategory     = "카테고리"
	colIntroduction = "간단한 소개(50자 이내)"
	colSpicy        = "맵기"
	colAllergy      = "알레르기 유발물질"
	colOrigin       = "원산지"
)

// headerRow is the zero-based row holding column titles; row 1 is a banner.
const headerRow = 1

// IsImportTemplate reports whether filename is the menu onboarding template.
func IsImportTemplate(filename string) bool {
	base := filepath.Base(filename)
	return strings.HasPrefix(base, ImportTemplatePrefix) && strings.EqualFold(filepath.Ext(base), ".xlsx")
}

// sheetRow is a parsed spreadsheet line; Line is 1-based as shown in Excel.
type sheetRow struct {
	Line  int
	Input CreateInput
}

// parseSheet reads the first sheet of the template. Rows without a menu name
// are skipped. A missing required column fails the whole file.
func parseSheet(r io.Reader) ([]sheetRow, int, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, fmt.Errorf("workbook has no sheets")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) <= headerRow {
		return nil, 0, fmt.Errorf("header row missing")
	}

	index := map[string]int{}
	for i, title := range rows[headerRow] {
		index[strings.TrimSpace(title)] = i
	}
	var missing error
	for _, required := range []string{colName, colPrice} {
		if _, ok := index[required]; !ok {
			missing = multierr.Append(missing, fmt.Errorf("column %q missing", required))
		}
	}
	if missing != nil {
		return nil, 0, missing
	}

	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	optional := func(row []string, column string) *string {
		if v := cell(row, column); v != "" {
			return &v
		}
		return nil
	}

	var out []sheetRow
	skipped := 0
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		name := cell(row, colName)
		if name == "" {
			skipped++
			continue
		}
		out = append(out, sheetRow{
			Line: i + 1,
			Input: CreateInput{
				Name:         name,
				Price:        strings.ReplaceAll(cell(row, colPrice), ",", ""),
				Category:     optional(row, colCategory),
				Introduction: optional(row, colIntroduction),
				Spicy:        optional(row, colSpicy),
				Allergy:      optional(row, colAllergy),
				Origin:       optional(row, colOrigin),
			},
		})
	}
	return out, skipped, nil
}
