package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportForShift(t *testing.T) {
	assert.Equal(t, ReportDaily, ReportForShift("A+B"))
	assert.Equal(t, ReportShift, ReportForShift("A"))
	assert.Equal(t, ReportShift, ReportForShift("B"))
}

func TestParseReport(t *testing.T) {
	for in, want := range map[string]Report{
		"":                      ReportShift,
		"shift":                 ReportShift,
		"daily":                 ReportDaily,
		"DailyProductionReport": ReportDaily,
	} {
		got, err := ParseReport(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseReport("MachineMaster")
	assert.ErrorIs(t, err, ErrUnknownReport)
}

func TestRowCells(t *testing.T) {
	cells := []string{"ts", "2025-03-14", "A", "S1", "D1", "BM-1", "Tanks", "GR8", "500L", "Kg", "10", "50", "-", "-"}

	r := RowFromCells(cells)
	assert.Equal(t, "BM-1", r.Machine)
	assert.Equal(t, "50", r.OKWeight)
	assert.Equal(t, cells, r.Cells())
	assert.Len(t, ProductionHeaders, len(cells))
}

func TestRowFilter(t *testing.T) {
	f, err := ParseRowFilter("2025-03-10", "2025-03-14")
	require.NoError(t, err)

	assert.True(t, f.Match(ProductionRow{ProductionDate: "2025-03-10"}))
	assert.True(t, f.Match(ProductionRow{ProductionDate: "2025-03-14 00:00:00"}))
	assert.False(t, f.Match(ProductionRow{ProductionDate: "2025-03-15"}))
	assert.False(t, f.Match(ProductionRow{ProductionDate: "2025-03-09"}))

	assert.True(t, RowFilter{}.Match(ProductionRow{ProductionDate: "-"}))

	_, err = ParseRowFilter("2025-3-1", "")
	assert.ErrorIs(t, err, ErrInvalidFilter)
	_, err = ParseRowFilter("2025-03-15", "2025-03-14")
	assert.ErrorIs(t, err, ErrInvalidFilter)
}
