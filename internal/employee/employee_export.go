package employee

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Employees"

var exportColumns = []struct {
	header string
	width  float64
}{
	{"Employee ID", 15},
	{"Name", 25},
	{"Email", 25},
	{"Phone", 15},
	{"Department", 15},
	{"Designation", 20},
	{"Status", 10},
	{"Joining Date", 15},
	{"Current CTC", 15},
}

func buildEmployeeWorkbook(rows []Employee) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, col := range exportColumns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(exportSheet, name, name, col.width); err != nil {
			return nil, fmt.Errorf("set width %s: %w", name, err)
		}
	}

	header := make([]any, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col.header
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, e := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			e.EmployeeCode,
			e.Name,
			e.Email,
			stringOrEmpty(e.Phone),
			e.Department,
			e.Designation,
			e.Status,
			stringOrEmpty(formatDate(e.JoiningDate)),
			ctcCell(e),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func ctcCell(e Employee) any {
	if !e.CurrentCTC.Valid {
		return ""
	}
	f, _ := e.CurrentCTC.Decimal.Float64()
	return f
}
