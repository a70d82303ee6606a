package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	familiesSheet = "Famílias"
	visitsSheet   = "Visitas"
)

var (
	familiesHeader = []string{"Família", "Líder", "Telefone", "Departamento", "Status", "Cadastro", "Membros"}
	familiesWidths = []float64{28, 24, 18, 18, 12, 14, 10}
	visitsHeader   = []string{"Data", "Família", "Autor", "Anotação"}
	visitsWidths   = []float64{14, 28, 20, 60}
)

// MonthlyWorkbook renders r as an xlsx file with one sheet for the
// registrations and one for the visits.
func MonthlyWorkbook(r Monthly) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", familiesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(visitsSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeHeader(f, familiesSheet, familiesHeader, familiesWidths, headerStyle); err != nil {
		return nil, err
	}
	for i, fam := range r.Registrations {
		row := []any{fam.Name, fam.Leader, fam.Phone, fam.Department, string(fam.Status), fam.CreatedAt.String(), fam.MembersCount}
		if err := writeRow(f, familiesSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	if err := writeHeader(f, visitsSheet, visitsHeader, visitsWidths, headerStyle); err != nil {
		return nil, err
	}
	for i, v := range r.Visits {
		row := []any{v.Interaction.Date.String(), v.FamilyName, v.Interaction.Author, v.Interaction.Note}
		if err := writeRow(f, visitsSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, header []string, widths []float64, style int) error {
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("style header %s: %w", cell, err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("set row %d: %w", row, err)
	}
	return nil
}
