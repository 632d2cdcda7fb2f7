package xlsx

import (
	"context"
	"fmt"

	"shift-production/internal/storage"
)

func (s *Storage) GetMachines(ctx context.Context) ([]storage.Machine, error) {
	const op = "storage.xlsx.GetMachines"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.readRows(sheetMachines, 3)
	if err != nil {
		return nil, fmt.Errorf("%s: read sheet %s: %w", op, sheetMachines, err)
	}

	machines := make([]storage.Machine, 0, len(rows))
	for _, row := range rows {
		machines = append(machines, storage.Machine{ID: row[0], Name: row[1], Type: row[2]})
	}

	return machines, nil
}

func (s *Storage) GetMachinesByType(ctx context.Context, typeName string) ([]storage.Machine, error) {
	const op = "storage.xlsx.GetMachinesByType"

	all, err := s.GetMachines(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	machines := []storage.Machine{}
	for _, m := range all {
		if m.Type == typeName {
			machines = append(machines, m)
		}
	}

	return machines, nil
}

// GetMachineTypes returns the distinct non-empty machine types in sheet order.
func (s *Storage) GetMachineTypes(ctx context.Context) ([]string, error) {
	const op = "storage.xlsx.GetMachineTypes"

	all, err := s.GetMachines(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seen := make(map[string]struct{})
	types := []string{}
	for _, m := range all {
		if m.Type == "" {
			continue
		}
		if _, ok := seen[m.Type]; ok {
			continue
		}
		seen[m.Type] = struct{}{}
		types = append(types, m.Type)
	}

	return types, nil
}

// GetItemsByType reads ItemMaster: A id, B machine type, C category,
// F subcategory, G size.
func (s *Storage) GetItemsByType(ctx context.Context, machineType string) ([]storage.Item, error) {
	const op = "storage.xlsx.GetItemsByType"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.readRows(sheetItems, 7)
	if err != nil {
		return nil, fmt.Errorf("%s: read sheet %s: %w", op, sheetItems, err)
	}

	items := []storage.Item{}
	for _, row := range rows {
		if row[1] != machineType {
			continue
		}
		items = append(items, storage.Item{
			ID:          row[0],
			Category:    row[2],
			SubCategory: row[5],
			Size:        row[6],
		})
	}

	return items, nil
}

func (s *Storage) GetDoers(ctx context.Context) ([]storage.Person, error) {
	return s.people(ctx, "storage.xlsx.GetDoers", sheetDoers)
}

func (s *Storage) GetSupervisors(ctx context.Context) ([]storage.Person, error) {
	return s.people(ctx, "storage.xlsx.GetSupervisors", sheetSupervisors)
}

func (s *Storage) people(ctx context.Context, op, sheet string) ([]storage.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.readRows(sheet, 4)
	if err != nil {
		return nil, fmt.Errorf("%s: read sheet %s: %w", op, sheet, err)
	}

	people := make([]storage.Person, 0, len(rows))
	for _, row := range rows {
		people = append(people, storage.Person{ID: row[0], Name: row[1], Email: row[2], Phone: row[3]})
	}

	return people, nil
}
