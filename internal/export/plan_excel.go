package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fishnet-edu/fishnet/internal/db"
	"github.com/fishnet-edu/fishnet/internal/models"
)

var planHeader = []string{"날짜", "역할", "담당", "예비 1", "예비 2", "상태"}

// BuildPlanWorkbook renders persisted assignments as one sheet per month.
// Role display labels appear only here, never inside the engine.
func BuildPlanWorkbook(rows []db.AssignmentRow) (*excelize.File, error) {
	f := excelize.NewFile()

	type slotKey struct {
		date time.Time
		role models.Role
	}
	type slotRow struct {
		primary, backup1, backup2 string
		status                    models.AssignmentStatus
	}
	slots := make(map[slotKey]*slotRow)
	var order []slotKey
	for _, r := range rows {
		k := slotKey{date: r.Date, role: r.Role}
		s, ok := slots[k]
		if !ok {
			s = &slotRow{}
			slots[k] = s
			order = append(order, k)
		}
		switch r.BackupOrder {
		case 0:
			s.primary = r.StudentName
			s.status = r.Status
		case 1:
			s.backup1 = r.StudentName
		case 2:
			s.backup2 = r.StudentName
		}
	}

	sheets := make(map[string]int) // sheet name -> next row
	firstSheet := ""
	for _, k := range order {
		name := k.date.Format("2006-01")
		row, ok := sheets[name]
		if !ok {
			if firstSheet == "" {
				if err := f.SetSheetName("Sheet1", name); err != nil {
					return nil, fmt.Errorf("rename sheet: %w", err)
				}
				firstSheet = name
			} else if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("new sheet: %w", err)
			}
			for c, h := range planHeader {
				if err := f.SetCellStr(name, fmt.Sprintf("%s1", columnName(c+1)), h); err != nil {
					return nil, err
				}
			}
			row = 2
		}
		s := slots[k]
		vals := []string{
			k.date.Format("2006-01-02"),
			k.role.Label(),
			dash(s.primary),
			dash(s.backup1),
			dash(s.backup2),
			statusLabel(s.status),
		}
		for c, v := range vals {
			if err := f.SetCellStr(name, fmt.Sprintf("%s%d", columnName(c+1), row), v); err != nil {
				return nil, err
			}
		}
		sheets[name] = row + 1
	}

	for name := range sheets {
		if err := applyDefaultFormatting(f, name); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// applyDefaultFormatting: bold header, auto-filter on row 1, approximate
// auto-width for populated columns.
func applyDefaultFormatting(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	if cols == 0 {
		return nil
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", fmt.Sprintf("%s1", columnName(cols)), style)
	}
	_ = f.AutoFilter(sheet, fmt.Sprintf("A1:%s1", columnName(cols)), nil)

	widths := make([]float64, cols)
	for c := 0; c < cols; c++ {
		widths[c] = 10
	}
	for rIdx, row := range rows {
		for cIdx := 0; cIdx < cols; cIdx++ {
			var v string
			if cIdx < len(row) {
				v = row[cIdx]
			}
			// Hangul glyphs render wide; count them double.
			w := float64(visualLen(v)) * 1.1
			if rIdx == 0 {
				w += 1.5
			}
			if w > widths[cIdx] {
				if w > 60 {
					w = 60
				}
				widths[cIdx] = w
			}
		}
	}
	for i := 0; i < cols; i++ {
		col := columnName(i + 1)
		_ = f.SetColWidth(sheet, col, col, widths[i])
	}
	return nil
}

// BuildPlanFilename builds a human-readable download name.
func BuildPlanFilename(from, to time.Time) string {
	base := fmt.Sprintf("역할 배정표 %s ~ %s.xlsx", from.Format("2006-01-02"), to.AddDate(0, 0, -1).Format("2006-01-02"))
	return sanitizeFileName(base)
}

func columnName(n int) string {
	// 1 -> A; 27 -> AA
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

// visualLen approximates cell width in narrow-glyph units.
func visualLen(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r == '\t':
			n += 4
		case r >= 0x1100 && r <= 0x11FF, r >= 0xAC00 && r <= 0xD7A3, r >= 0x3130 && r <= 0x318F:
			n += 2
		default:
			n++
		}
	}
	return n
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

func sanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return invalidFileRe.ReplaceAllString(s, "_")
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func statusLabel(s models.AssignmentStatus) string {
	switch s {
	case models.StatusConfirmed:
		return "확정"
	case models.StatusDeclined:
		return "거절"
	case models.StatusSwapped:
		return "교체"
	case models.StatusAbsent:
		return "불참"
	case models.StatusAssigned:
		return "배정"
	case "":
		return "미정"
	default:
		return string(s)
	}
}
