// Package xlsx keeps the production master data and reports in a single
// excelize workbook on disk, one sheet per table.
package xlsx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"shift-production/internal/storage"
)

const (
	sheetMachines    = "MachineMaster"
	sheetItems       = "ItemMaster"
	sheetDoers       = "Doers"
	sheetSupervisors = "Supervisors"
)

var sheetHeaders = map[string][]string{
	sheetMachines:    {"ID", "NAME", "TYPE"},
	sheetItems:       {"ID", "TYPE", "CATEGORY", "", "", "SUBCATEGORY", "SIZE"},
	sheetDoers:       {"ID", "NAME", "EMAIL", "PHONE"},
	sheetSupervisors: {"ID", "NAME", "EMAIL", "PHONE"},

	string(storage.ReportShift): storage.ProductionHeaders,
	string(storage.ReportDaily): storage.ProductionHeaders,
}

var sheetOrder = []string{
	sheetMachines, sheetItems, sheetDoers, sheetSupervisors,
	string(storage.ReportShift), string(storage.ReportDaily),
}

// Storage opens the workbook per call so edits made in a spreadsheet program
// between requests are picked up. Writes are serialized.
type Storage struct {
	mu   sync.Mutex
	path string
}

// New creates the workbook with every sheet and its header row when path does
// not exist yet, and adds any sheet an existing workbook is missing.
func New(path string) (*Storage, error) {
	const op = "storage.xlsx.New"

	s := &Storage{path: path}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.create(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	} else if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.ensureSheets(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (s *Storage) create() error {
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range sheetOrder {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeRow(f, name, 1, sheetHeaders[name]); err != nil {
			return err
		}
	}

	return f.SaveAs(s.path)
}

func (s *Storage) ensureSheets() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	changed := false
	for _, name := range sheetOrder {
		idx, err := f.GetSheetIndex(name)
		if err != nil {
			return err
		}
		if idx != -1 {
			continue
		}
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeRow(f, name, 1, sheetHeaders[name]); err != nil {
			return err
		}
		changed = true
	}

	if !changed {
		return nil
	}
	return f.Save()
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// readRows returns the data rows of sheet (header skipped), each padded to
// width cells.
func (s *Storage) readRows(sheet string, width int) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	out := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		out = append(out, padded)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
