package mysql

import (
	"context"
	"fmt"
	"strings"

	"shift-production/internal/storage"
)

func (s *Storage) AppendProductionRows(ctx context.Context, report storage.Report, rows []storage.ProductionRow) error {
	const op = "storage.mysql.AppendProductionRows"

	if report != storage.ReportShift && report != storage.ReportDaily {
		return fmt.Errorf("%s: %q: %w", op, report, storage.ErrUnknownReport)
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO production_rows
		(report, submitted_at, production_date, shift, supervisor, doer, machine,
		 category, sub_category, size, uom, ok_qty, ok_weight, rejected_qty, rejected_weight)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	for i, r := range rows {
		args := make([]interface{}, 0, 15)
		args = append(args, string(report))
		for _, c := range r.Cells() {
			args = append(args, c)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%s: insert row %d: %w", op, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit transaction: %w", op, err)
	}

	return nil
}

func (s *Storage) GetProductionRows(ctx context.Context, report storage.Report, filter storage.RowFilter) ([]storage.ProductionRow, error) {
	const op = "storage.mysql.GetProductionRows"

	if report != storage.ReportShift && report != storage.ReportDaily {
		return nil, fmt.Errorf("%s: %q: %w", op, report, storage.ErrUnknownReport)
	}

	query := `
		SELECT submitted_at, production_date, shift, supervisor, doer, machine,
		       category, sub_category, size, uom, ok_qty, ok_weight, rejected_qty, rejected_weight
		FROM production_rows
		WHERE report = ?`
	args := []interface{}{string(report)}

	var where []string
	if filter.From != "" {
		where = append(where, "LEFT(production_date, 10) >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, "LEFT(production_date, 10) <= ?")
		args = append(args, filter.To)
	}
	if len(where) > 0 {
		query += " AND " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []storage.ProductionRow{}
	for rows.Next() {
		var r storage.ProductionRow
		if err := rows.Scan(
			&r.SubmittedAt, &r.ProductionDate, &r.Shift, &r.Supervisor, &r.Doer, &r.Machine,
			&r.Category, &r.SubCategory, &r.Size, &r.UOM, &r.OKQty, &r.OKWeight, &r.RejectedQty, &r.RejectedWeight,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}
