package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shift-production/internal/storage"
)

// seedWorkbook creates a fresh workbook through New and fills the master sheets.
func seedWorkbook(t *testing.T) (*Storage, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "production.xlsx")
	s, err := New(path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	master := map[string][][]string{
		sheetMachines: {
			{"1", "BM-1", "Blow"},
			{"2", "RM-2", "Roto"},
			{"3", "BM-3", "Blow"},
			{"4", "spare", ""},
		},
		sheetItems: {
			{"10", "Blow", "Tanks", "", "", "GR8", "500L"},
			{"11", "Roto", "Drums", "", "", "Open", "200L"},
			{"12", "Blow", "Tanks", "", "", "GR8", "1000L"},
		},
		sheetDoers:       {{"1", "D1", "d1@example.com", "111"}},
		sheetSupervisors: {{"1", "S1", "s1@example.com"}},
	}
	for sheet, rows := range master {
		for i, row := range rows {
			require.NoError(t, writeRow(f, sheet, i+2, row))
		}
	}
	require.NoError(t, f.Save())

	return s, path
}

func TestNew_CreatesAllSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	_, err := New(path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, sheetOrder, f.GetSheetList())

	header, err := f.GetRows(string(storage.ReportDaily))
	require.NoError(t, err)
	require.Len(t, header, 1)
	assert.Equal(t, storage.ProductionHeaders, header[0])
}

func TestNew_AddsMissingSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", sheetMachines))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := New(path)
	require.NoError(t, err)

	f, err = excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.ElementsMatch(t, sheetOrder, f.GetSheetList())
}

func TestStorage_Master(t *testing.T) {
	s, _ := seedWorkbook(t)
	ctx := context.Background()

	machines, err := s.GetMachinesByType(ctx, "Blow")
	require.NoError(t, err)
	assert.Equal(t, []storage.Machine{
		{ID: "1", Name: "BM-1", Type: "Blow"},
		{ID: "3", Name: "BM-3", Type: "Blow"},
	}, machines)

	none, err := s.GetMachinesByType(ctx, "Extrusion")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	types, err := s.GetMachineTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Blow", "Roto"}, types)

	items, err := s.GetItemsByType(ctx, "Blow")
	require.NoError(t, err)
	assert.Equal(t, []storage.Item{
		{ID: "10", Category: "Tanks", SubCategory: "GR8", Size: "500L"},
		{ID: "12", Category: "Tanks", SubCategory: "GR8", Size: "1000L"},
	}, items)

	doers, err := s.GetDoers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []storage.Person{{ID: "1", Name: "D1", Email: "d1@example.com", Phone: "111"}}, doers)

	supervisors, err := s.GetSupervisors(ctx)
	require.NoError(t, err)
	require.Len(t, supervisors, 1)
	assert.Equal(t, "S1", supervisors[0].Name)
	assert.Empty(t, supervisors[0].Phone)
}

func row(date, machine string) storage.ProductionRow {
	return storage.ProductionRow{
		SubmittedAt: "2025-03-14 18:00:00", ProductionDate: date, Shift: "A", Supervisor: "S1", Doer: "D1",
		Machine: machine, Category: "Tanks", SubCategory: "GR8", Size: "500L", UOM: "Kg",
		OKQty: "10", OKWeight: "50", RejectedQty: "-", RejectedWeight: "-",
	}
}

func TestStorage_AppendAndRead(t *testing.T) {
	s, path := seedWorkbook(t)
	ctx := context.Background()

	require.NoError(t, s.AppendProductionRows(ctx, storage.ReportShift, []storage.ProductionRow{
		row("2025-03-13", "BM-1"),
		row("2025-03-14", "BM-3"),
	}))
	require.NoError(t, s.AppendProductionRows(ctx, storage.ReportShift, []storage.ProductionRow{
		row("2025-03-15", "RM-2"),
	}))

	all, err := s.GetProductionRows(ctx, storage.ReportShift, storage.RowFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "BM-1", all[0].Machine)
	assert.Equal(t, "RM-2", all[2].Machine)
	assert.Equal(t, row("2025-03-14", "BM-3"), all[1])

	filtered, err := s.GetProductionRows(ctx, storage.ReportShift, storage.RowFilter{From: "2025-03-14", To: "2025-03-14"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "BM-3", filtered[0].Machine)

	daily, err := s.GetProductionRows(ctx, storage.ReportDaily, storage.RowFilter{})
	require.NoError(t, err)
	assert.Empty(t, daily)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	cell, err := f.GetCellValue(string(storage.ReportShift), "F4")
	require.NoError(t, err)
	assert.Equal(t, "RM-2", cell)
}

func TestStorage_UnknownReport(t *testing.T) {
	s, _ := seedWorkbook(t)

	err := s.AppendProductionRows(context.Background(), storage.Report(sheetMachines), []storage.ProductionRow{row("2025-03-14", "x")})
	assert.ErrorIs(t, err, storage.ErrUnknownReport)

	_, err = s.GetProductionRows(context.Background(), "Sheet9", storage.RowFilter{})
	assert.ErrorIs(t, err, storage.ErrUnknownReport)
}

func TestStorage_CanceledContext(t *testing.T) {
	s, _ := seedWorkbook(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetMachines(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
