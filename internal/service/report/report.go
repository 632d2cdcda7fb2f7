package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"shift-production/internal/storage"
)

type RowsProvider interface {
	GetProductionRows(ctx context.Context, report storage.Report, filter storage.RowFilter) ([]storage.ProductionRow, error)
}

// Service renders production rows as a standalone xlsx download.
type Service struct {
	storage RowsProvider
}

func NewService(storage RowsProvider) *Service {
	return &Service{storage: storage}
}

func (s *Service) GenerateExcel(ctx context.Context, report storage.Report, filter storage.RowFilter) ([]byte, error) {
	const op = "service.report.GenerateExcel"

	rows, err := s.storage.GetProductionRows(ctx, report, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch rows: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := string(report)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: header style: %w", op, err)
	}

	if err := f.SetSheetRow(sheet, "A1", &storage.ProductionHeaders); err != nil {
		return nil, fmt.Errorf("%s: header: %w", op, err)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(storage.ProductionHeaders), 1)
	if err := f.SetCellStyle(sheet, "A1", lastCol, headerStyle); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i, r := range rows {
		cells := r.Cells()
		if err := f.SetSheetRow(sheet, cellName(1, i+2), &cells); err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", op, i, err)
		}
	}

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
	})
	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "B", "N", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
