// Package catalog holds the reference lists a production form chooses from and
// derives the cascading category/subcategory/size option views.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"shift-production/internal/storage"
)

// FetchError reports that a reference list could not be loaded. The list it
// feeds is left empty.
type FetchError struct {
	List string
	Key  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("failed to fetch %s: %v", e.List, e.Err)
	}
	return fmt.Sprintf("failed to fetch %s for %q: %v", e.List, e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

const (
	listTypes    = "types"
	listMachines = "machines"
	listItems    = "items"
)

// Ticket identifies one in-flight fetch. A ticket settles its list unless a
// newer ticket for the same list and key already has, or the list was reset
// after the ticket was issued.
type Ticket struct {
	list string
	key  string
	seq  uint64
}

// slot is one list. floor is the first ticket the slot accepts; settled is the
// ticket that last filled it.
type slot[T any] struct {
	floor   uint64
	settled uint64
	list    []T
}

type Catalog struct {
	mu       sync.RWMutex
	seq      uint64
	types    slot[string]
	machines map[string]*slot[storage.Machine]
	items    map[string]*slot[storage.Item]
}

func New() *Catalog {
	return &Catalog{
		machines: make(map[string]*slot[storage.Machine]),
		items:    make(map[string]*slot[storage.Item]),
	}
}

func (c *Catalog) next(list, key string) Ticket {
	c.seq++
	return Ticket{list: list, key: key, seq: c.seq}
}

func (c *Catalog) BeginTypes() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.next(listTypes, "")
}

func (c *Catalog) BeginMachines(typeName string) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.next(listMachines, typeName)
	if _, ok := c.machines[typeName]; !ok {
		c.machines[typeName] = &slot[storage.Machine]{floor: t.seq}
	}
	return t
}

func (c *Catalog) BeginItems(machineType string) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.next(listItems, machineType)
	if _, ok := c.items[machineType]; !ok {
		c.items[machineType] = &slot[storage.Item]{floor: t.seq}
	}
	return t
}

// settle stores list into s unless a newer ticket already filled it. A fetch
// error empties the list and comes back as a *FetchError; an outdated ticket
// is dropped.
func settle[T any](s *slot[T], t Ticket, list []T, err error) (bool, error) {
	if s == nil || t.seq < s.floor || t.seq <= s.settled {
		return false, nil
	}
	s.settled = t.seq
	if err != nil {
		s.list = nil
		return true, &FetchError{List: t.list, Key: t.key, Err: err}
	}
	s.list = list
	return true, nil
}

func (c *Catalog) SettleTypes(t Ticket, types []string, err error) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.list != listTypes {
		return false, nil
	}
	return settle(&c.types, t, types, err)
}

func (c *Catalog) SettleMachines(t Ticket, machines []storage.Machine, err error) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.list != listMachines {
		return false, nil
	}
	return settle(c.machines[t.key], t, machines, err)
}

func (c *Catalog) SettleItems(t Ticket, items []storage.Item, err error) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.list != listItems {
		return false, nil
	}
	return settle(c.items[t.key], t, items, err)
}

// SetMachines replaces the machine lists wholesale, grouping by machine type.
// The server uses it to resolve machine names from the master sheet.
func (c *Catalog) SetMachines(machines []storage.Machine) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.machines = make(map[string]*slot[storage.Machine])
	for _, m := range machines {
		s, ok := c.machines[m.Type]
		if !ok {
			s = &slot[storage.Machine]{}
			c.machines[m.Type] = s
		}
		s.list = append(s.list, m)
	}
}

func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.types.list...)
}

func (c *Catalog) MachinesForType(typeName string) []storage.Machine {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.machines[typeName]
	if !ok {
		return nil
	}
	return append([]storage.Machine(nil), s.list...)
}

func (c *Catalog) ItemsForMachineType(machineType string) []storage.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.items[machineType]
	if !ok {
		return nil
	}
	return append([]storage.Item(nil), s.list...)
}

// Machine looks a machine up by id across every loaded type.
func (c *Catalog) Machine(id string) (storage.Machine, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, s := range c.machines {
		for _, m := range s.list {
			if m.ID == id {
				return m, true
			}
		}
	}
	return storage.Machine{}, false
}

func (c *Catalog) MachineName(id string) (string, bool) {
	m, ok := c.Machine(id)
	if !ok || m.Name == "" {
		return "", false
	}
	return m.Name, true
}

// ResetSelections drops the machine and item lists and invalidates their
// outstanding tickets. The type list is kept.
func (c *Catalog) ResetSelections() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.machines = make(map[string]*slot[storage.Machine])
	c.items = make(map[string]*slot[storage.Item])
}

// Reset forgets every list and invalidates all outstanding tickets.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.types = slot[string]{floor: c.seq}
	c.machines = make(map[string]*slot[storage.Machine])
	c.items = make(map[string]*slot[storage.Item])
}

func Categories(items []storage.Item) []string {
	return distinct(items, func(storage.Item) bool { return true }, func(i storage.Item) string { return i.Category })
}

func SubCategories(items []storage.Item, category string) []string {
	if category == "" {
		return nil
	}
	return distinct(items,
		func(i storage.Item) bool { return i.Category == category },
		func(i storage.Item) string { return i.SubCategory },
	)
}

func Sizes(items []storage.Item, category, subCategory string) []string {
	if category == "" || subCategory == "" {
		return nil
	}
	return distinct(items,
		func(i storage.Item) bool { return i.Category == category && i.SubCategory == subCategory },
		func(i storage.Item) string { return i.Size },
	)
}

func distinct(items []storage.Item, keep func(storage.Item) bool, value func(storage.Item) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, it := range items {
		if !keep(it) {
			continue
		}
		v := value(it)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
