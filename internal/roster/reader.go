// Package roster ingests monthly personnel snapshots and maintains the
// cumulative employee index used for department attribution.
package roster

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"travelcli/internal/errors"
	"travelcli/pkg/contracts/domain"
)

// preferredSheet is the sheet rosters are exported to; older exports only
// have a single unnamed sheet, so the first sheet is the fallback.
const preferredSheet = "原表"

// Column headers. Name, first-level department and employment status are
// required; the rest are optional.
const (
	colName        = "姓名"
	colEnglishName = "英文名"
	colDeptLevel1  = "一级部门"
	colDeptLevel2  = "二级部门"
	colDeptLevel3  = "三级部门"
	colPosition    = "岗位"
	colStatus      = "在职状态"
)

// activeStatuses are the employment states counted as on-roster. Any status
// containing 在职 also qualifies.
var activeStatuses = map[string]bool{
	"在职":         true,
	"试用期":        true,
	"正式":         true,
	"实习":         true,
	"contractor": true,
}

// ReadFile reads a roster Excel file and returns its active-employee
// entries in sheet order. Rows without a name are dropped. Missing required
// columns yield a validation error.
func ReadFile(path string) ([]domain.RosterEntry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParsingError("failed to open roster file", err)
	}
	defer f.Close()

	rows, err := f.GetRows(preferredSheet)
	if err != nil {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewParsingError("roster file has no sheets", nil)
		}
		rows, err = f.GetRows(sheets[0])
		if err != nil {
			return nil, errors.NewParsingError("failed to read roster sheet", err)
		}
	}

	if len(rows) == 0 {
		return nil, errors.NewValidationError("roster sheet is empty", nil)
	}

	columns := mapColumns(rows[0])
	for _, required := range []string{colName, colDeptLevel1, colStatus} {
		if _, ok := columns[required]; !ok {
			return nil, errors.NewValidationError("roster sheet missing required column", nil).
				WithContext("column", required)
		}
	}

	var entries []domain.RosterEntry
	for _, row := range rows[1:] {
		cell := func(header string) string {
			idx, ok := columns[header]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		status := cell(colStatus)
		if !isActive(status) {
			continue
		}

		name := cell(colName)
		if name == "" {
			continue
		}

		entries = append(entries, domain.RosterEntry{
			Name:        name,
			EnglishName: cell(colEnglishName),
			DeptLevel1:  cell(colDeptLevel1),
			DeptLevel2:  cell(colDeptLevel2),
			DeptLevel3:  cell(colDeptLevel3),
			Position:    cell(colPosition),
			Status:      status,
		})
	}

	return entries, nil
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, seen := columns[h]; !seen {
			columns[h] = i
		}
	}
	return columns
}

func isActive(status string) bool {
	if status == "" {
		return false
	}
	return activeStatuses[status] || strings.Contains(status, "在职")
}
