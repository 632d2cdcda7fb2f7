package session

import (
	"shift-production/internal/catalog"
	"shift-production/internal/storage"
)

func (s *Session) Types() []string {
	return s.catalog.Types()
}

// Machines lists the machines offered to type section ti.
func (s *Session) Machines(ti int) ([]storage.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	typ, err := s.tree.TypeAt(ti)
	if err != nil {
		return nil, err
	}
	if typ.TypeName == "" {
		return nil, nil
	}
	return s.catalog.MachinesForType(typ.TypeName), nil
}

// items must be called with s.mu held.
func (s *Session) items(ti, mi int) ([]storage.Item, error) {
	m, err := s.tree.MachineAt(ti, mi)
	if err != nil {
		return nil, err
	}
	if m.MachineID == "" {
		return nil, nil
	}
	return s.catalog.ItemsForMachineType(s.machineType(ti, m.MachineID)), nil
}

func (s *Session) Categories(ti, mi int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.items(ti, mi)
	if err != nil {
		return nil, err
	}
	return catalog.Categories(items), nil
}

func (s *Session) SubCategories(ti, mi, ei int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.tree.EntryAt(ti, mi, ei)
	if err != nil {
		return nil, err
	}
	items, err := s.items(ti, mi)
	if err != nil {
		return nil, err
	}
	return catalog.SubCategories(items, e.Category), nil
}

func (s *Session) Sizes(ti, mi, ei int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.tree.EntryAt(ti, mi, ei)
	if err != nil {
		return nil, err
	}
	items, err := s.items(ti, mi)
	if err != nil {
		return nil, err
	}
	return catalog.Sizes(items, e.Category, e.SubCategory), nil
}

func (s *Session) Doers() []storage.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.Person(nil), s.doers...)
}

func (s *Session) Supervisors() []storage.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.Person(nil), s.supervisors...)
}
