package form

import (
	"time"

	"shift-production/internal/storage"
)

const (
	Placeholder     = "-"
	TimestampLayout = "2006-01-02 15:04:05"
)

// MachineNames resolves a machine id to its display name.
type MachineNames interface {
	MachineName(id string) (string, bool)
}

// Flatten emits one row per entry, types first, then machines, then entries.
// Unresolved machines and empty values are written as Placeholder.
func Flatten(t *Tree, names MachineNames, submittedAt time.Time) []storage.ProductionRow {
	rows := make([]storage.ProductionRow, 0, t.EntryCount())

	stamp := submittedAt.Format(TimestampLayout)
	date := orDash(t.ProductionDate.String())

	for _, typ := range t.Types {
		for _, m := range typ.Machines {
			machine := Placeholder
			if names != nil {
				if name, ok := names.MachineName(m.MachineID); ok {
					machine = name
				}
			}

			for _, e := range m.Entries {
				rows = append(rows, storage.ProductionRow{
					SubmittedAt:    stamp,
					ProductionDate: date,
					Shift:          orDash(string(t.Shift)),
					Supervisor:     orDash(t.Supervisor),
					Doer:           orDash(t.Doer),
					Machine:        machine,
					Category:       orDash(e.Category),
					SubCategory:    orDash(e.SubCategory),
					Size:           orDash(e.Size),
					UOM:            orDash(string(e.UOM)),
					OKQty:          orDash(e.OKQty),
					OKWeight:       orDash(e.OKWeight),
					RejectedQty:    orDash(e.RejectedQty),
					RejectedWeight: orDash(e.RejectedWeight),
				})
			}
		}
	}

	return rows
}

func orDash(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
