package mysql

import (
	"context"
	"fmt"

	"shift-production/internal/storage"
)

func (s *Storage) GetMachines(ctx context.Context) ([]storage.Machine, error) {
	const op = "storage.mysql.GetMachines"

	return s.queryMachines(ctx, op, `SELECT id, name, type FROM machine_master ORDER BY position`)
}

func (s *Storage) GetMachinesByType(ctx context.Context, typeName string) ([]storage.Machine, error) {
	const op = "storage.mysql.GetMachinesByType"

	return s.queryMachines(ctx, op, `SELECT id, name, type FROM machine_master WHERE type = ? ORDER BY position`, typeName)
}

func (s *Storage) queryMachines(ctx context.Context, op, query string, args ...interface{}) ([]storage.Machine, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	machines := []storage.Machine{}
	for rows.Next() {
		var m storage.Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.Type); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		machines = append(machines, m)
	}

	return machines, rows.Err()
}

// GetMachineTypes returns distinct non-empty types ordered by first appearance.
func (s *Storage) GetMachineTypes(ctx context.Context) ([]string, error) {
	const op = "storage.mysql.GetMachineTypes"

	rows, err := s.db.QueryContext(ctx, `
		SELECT type FROM machine_master
		WHERE type <> ''
		GROUP BY type
		ORDER BY MIN(position)
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		types = append(types, t)
	}

	return types, rows.Err()
}

func (s *Storage) GetItemsByType(ctx context.Context, machineType string) ([]storage.Item, error) {
	const op = "storage.mysql.GetItemsByType"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, sub_category, size
		FROM item_master
		WHERE type = ?
		ORDER BY position
	`, machineType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := []storage.Item{}
	for rows.Next() {
		var it storage.Item
		if err := rows.Scan(&it.ID, &it.Category, &it.SubCategory, &it.Size); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

func (s *Storage) GetDoers(ctx context.Context) ([]storage.Person, error) {
	return s.people(ctx, "storage.mysql.GetDoers", `SELECT id, name, email, phone FROM doers ORDER BY position`)
}

func (s *Storage) GetSupervisors(ctx context.Context) ([]storage.Person, error) {
	return s.people(ctx, "storage.mysql.GetSupervisors", `SELECT id, name, email, phone FROM supervisors ORDER BY position`)
}

func (s *Storage) people(ctx context.Context, op, query string) ([]storage.Person, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var people []storage.Person
	for rows.Next() {
		var p storage.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		people = append(people, p)
	}

	return people, rows.Err()
}
