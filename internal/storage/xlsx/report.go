package xlsx

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"shift-production/internal/storage"
)

// AppendProductionRows writes rows below the last used row of the report
// sheet in one save.
func (s *Storage) AppendProductionRows(ctx context.Context, report storage.Report, rows []storage.ProductionRow) error {
	const op = "storage.xlsx.AppendProductionRows"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !isReport(report) {
		return fmt.Errorf("%s: %q: %w", op, report, storage.ErrUnknownReport)
	}
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	existing, err := f.GetRows(string(report))
	if err != nil {
		return fmt.Errorf("%s: read sheet %s: %w", op, report, err)
	}

	next := len(existing) + 1
	for i, row := range rows {
		if err := writeRow(f, string(report), next+i, row.Cells()); err != nil {
			return fmt.Errorf("%s: write row %d: %w", op, next+i, err)
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("%s: save workbook: %w", op, err)
	}

	return nil
}

func (s *Storage) GetProductionRows(ctx context.Context, report storage.Report, filter storage.RowFilter) ([]storage.ProductionRow, error) {
	const op = "storage.xlsx.GetProductionRows"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !isReport(report) {
		return nil, fmt.Errorf("%s: %q: %w", op, report, storage.ErrUnknownReport)
	}

	cells, err := s.readRows(string(report), len(storage.ProductionHeaders))
	if err != nil {
		return nil, fmt.Errorf("%s: read sheet %s: %w", op, report, err)
	}

	rows := []storage.ProductionRow{}
	for _, c := range cells {
		row := storage.RowFromCells(c)
		if filter.Match(row) {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

func isReport(r storage.Report) bool {
	return r == storage.ReportShift || r == storage.ReportDaily
}
