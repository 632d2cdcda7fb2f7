package storage

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownReport = errors.New("unknown report")
	ErrInvalidFilter = errors.New("invalid filter")
)

type Machine struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Item struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
	Size        string `json:"size"`
}

// Person is a row of the Doers or Supervisors sheet.
type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Report names the sheet production rows are appended to.
type Report string

const (
	ReportShift Report = "ShiftProductionReport"
	ReportDaily Report = "DailyProductionReport"
)

// ReportForShift returns the daily report for the combined "A+B" shift and the
// shift report for everything else.
func ReportForShift(shift string) Report {
	if shift == "A+B" {
		return ReportDaily
	}
	return ReportShift
}

// ParseReport accepts the short names used in query strings as well as sheet names.
func ParseReport(s string) (Report, error) {
	switch s {
	case "", "shift", string(ReportShift):
		return ReportShift, nil
	case "daily", string(ReportDaily):
		return ReportDaily, nil
	}
	return "", ErrUnknownReport
}

// ProductionRow is one flattened entry as stored in a report sheet (columns A:N).
type ProductionRow struct {
	SubmittedAt    string `json:"submitted_at"`
	ProductionDate string `json:"production_date"`
	Shift          string `json:"shift"`
	Supervisor     string `json:"supervisor"`
	Doer           string `json:"doer"`
	Machine        string `json:"machine"`
	Category       string `json:"category"`
	SubCategory    string `json:"sub_category"`
	Size           string `json:"size"`
	UOM            string `json:"uom"`
	OKQty          string `json:"ok_qty"`
	OKWeight       string `json:"ok_weight"`
	RejectedQty    string `json:"rejected_qty"`
	RejectedWeight string `json:"rejected_weight"`
}

var ProductionHeaders = []string{
	"Timestamp", "Production Date", "Shift", "Supervisor", "Doer", "Machine",
	"Category", "Sub Category", "Size", "UOM", "OK Qty", "OK Weight", "Rejected Qty", "Rejected Weight",
}

func (r ProductionRow) Cells() []string {
	return []string{
		r.SubmittedAt, r.ProductionDate, r.Shift, r.Supervisor, r.Doer, r.Machine,
		r.Category, r.SubCategory, r.Size, r.UOM, r.OKQty, r.OKWeight, r.RejectedQty, r.RejectedWeight,
	}
}

// RowFromCells is the inverse of Cells. Missing trailing cells stay empty.
func RowFromCells(cells []string) ProductionRow {
	c := make([]string, len(ProductionHeaders))
	copy(c, cells)
	return ProductionRow{
		SubmittedAt:    c[0],
		ProductionDate: c[1],
		Shift:          c[2],
		Supervisor:     c[3],
		Doer:           c[4],
		Machine:        c[5],
		Category:       c[6],
		SubCategory:    c[7],
		Size:           c[8],
		UOM:            c[9],
		OKQty:          c[10],
		OKWeight:       c[11],
		RejectedQty:    c[12],
		RejectedWeight: c[13],
	}
}

// RowFilter narrows a report read. Dates are "2006-01-02"; empty bounds are open.
type RowFilter struct {
	From string
	To   string
}

// ParseRowFilter checks that both bounds are empty or valid dates.
func ParseRowFilter(from, to string) (RowFilter, error) {
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return RowFilter{}, fmt.Errorf("date %q: %w", d, ErrInvalidFilter)
		}
	}
	if from != "" && to != "" && from > to {
		return RowFilter{}, fmt.Errorf("from %s is after to %s: %w", from, to, ErrInvalidFilter)
	}
	return RowFilter{From: from, To: to}, nil
}

// Match compares on the date prefix so both "2006-01-02" and timestamp-formatted
// production dates are accepted.
func (f RowFilter) Match(r ProductionRow) bool {
	d := r.ProductionDate
	if len(d) > 10 {
		d = d[:10]
	}
	if f.From != "" && d < f.From {
		return false
	}
	if f.To != "" && d > f.To {
		return false
	}
	return true
}
