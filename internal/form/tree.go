// Package form is the state model of a shift production entry: a tree of
// machine types, machines and item entries edited through index-addressed
// operations. Changing a selection resets everything below it.
package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidState = errors.New("invalid state")
	ErrOutOfRange   = errors.New("index out of range")
	ErrUnknownField = errors.New("unknown entry field")
	ErrInvalidValue = errors.New("invalid value")
)

type Shift string

const (
	ShiftA  Shift = "A"
	ShiftB  Shift = "B"
	ShiftAB Shift = "A+B"
)

func (s Shift) Valid() bool {
	switch s {
	case ShiftA, ShiftB, ShiftAB:
		return true
	}
	return false
}

type UOM string

const (
	UOMKg  UOM = "Kg"
	UOMNos UOM = "Nos"
)

func (u UOM) Valid() bool {
	return u == UOMKg || u == UOMNos
}

type Field string

const (
	FieldCategory       Field = "category"
	FieldSubCategory    Field = "subCategory"
	FieldSize           Field = "size"
	FieldUOM            Field = "uom"
	FieldOKQty          Field = "okQty"
	FieldOKWeight       Field = "okWeight"
	FieldRejectedQty    Field = "rejectedQty"
	FieldRejectedWeight Field = "rejectedWeight"
)

const DateLayout = "2006-01-02"

// Date is a calendar day serialized as "2006-01-02". The zero value means no
// date was picked.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("production date %q: %w", s, ErrInvalidValue)
		}
	}
	*d = NewDate(t)
	return nil
}

type Entry struct {
	Category       string `json:"category"`
	SubCategory    string `json:"subCategory"`
	Size           string `json:"size"`
	UOM            UOM    `json:"uom"`
	OKQty          string `json:"okQty"`
	OKWeight       string `json:"okWeight"`
	RejectedQty    string `json:"rejectedQty"`
	RejectedWeight string `json:"rejectedWeight"`

	Expanded bool `json:"-"`
}

type Machine struct {
	Key       string  `json:"-"`
	MachineID string  `json:"machineId"`
	Entries   []Entry `json:"entries"`

	Expanded bool `json:"-"`
}

type Type struct {
	Key      string    `json:"-"`
	TypeName string    `json:"typeName"`
	Machines []Machine `json:"machines"`

	Expanded bool `json:"-"`
}

// Tree is the whole form. Its JSON encoding is the submission payload.
type Tree struct {
	ProductionDate Date   `json:"productionDate"`
	Shift          Shift  `json:"shift"`
	Supervisor     string `json:"supervisor"`
	Doer           string `json:"doer"`
	Types          []Type `json:"types"`
}

// New returns a blank form for the given production day on shift A.
func New(day time.Time) *Tree {
	t := &Tree{}
	t.Reset(day)
	return t
}

func (t *Tree) Reset(day time.Time) {
	*t = Tree{
		ProductionDate: NewDate(day),
		Shift:          ShiftA,
		Types:          []Type{},
	}
}

func (t *Tree) SetProductionDate(day time.Time) {
	if day.IsZero() {
		t.ProductionDate = Date{}
		return
	}
	t.ProductionDate = NewDate(day)
}

func (t *Tree) SetShift(s Shift) error {
	if s != "" && !s.Valid() {
		return fmt.Errorf("form.SetShift: shift %q: %w", s, ErrInvalidValue)
	}
	t.Shift = s
	return nil
}

func (t *Tree) SetSupervisor(name string) { t.Supervisor = name }

func (t *Tree) SetDoer(name string) { t.Doer = name }

func (t *Tree) typeAt(op string, ti int) (*Type, error) {
	if ti < 0 || ti >= len(t.Types) {
		return nil, fmt.Errorf("%s: type %d: %w", op, ti, ErrOutOfRange)
	}
	return &t.Types[ti], nil
}

func (t *Tree) machineAt(op string, ti, mi int) (*Machine, error) {
	typ, err := t.typeAt(op, ti)
	if err != nil {
		return nil, err
	}
	if mi < 0 || mi >= len(typ.Machines) {
		return nil, fmt.Errorf("%s: type %d machine %d: %w", op, ti, mi, ErrOutOfRange)
	}
	return &typ.Machines[mi], nil
}

func (t *Tree) entryAt(op string, ti, mi, ei int) (*Entry, error) {
	m, err := t.machineAt(op, ti, mi)
	if err != nil {
		return nil, err
	}
	if ei < 0 || ei >= len(m.Entries) {
		return nil, fmt.Errorf("%s: type %d machine %d entry %d: %w", op, ti, mi, ei, ErrOutOfRange)
	}
	return &m.Entries[ei], nil
}

// AddType appends an empty type section and returns its index.
func (t *Tree) AddType() int {
	t.Types = append(t.Types, Type{
		Key:      uuid.NewString(),
		Machines: []Machine{},
		Expanded: true,
	})
	return len(t.Types) - 1
}

func (t *Tree) SetType(ti int, name string) error {
	typ, err := t.typeAt("form.SetType", ti)
	if err != nil {
		return err
	}
	typ.TypeName = name
	typ.Machines = []Machine{}
	return nil
}

func (t *Tree) AddMachine(ti int) (int, error) {
	const op = "form.AddMachine"

	typ, err := t.typeAt(op, ti)
	if err != nil {
		return -1, err
	}
	if typ.TypeName == "" {
		return -1, fmt.Errorf("%s: type %d has no type selected: %w", op, ti, ErrInvalidState)
	}
	typ.Machines = append(typ.Machines, Machine{
		Key:      uuid.NewString(),
		Entries:  []Entry{},
		Expanded: true,
	})
	return len(typ.Machines) - 1, nil
}

func (t *Tree) SetMachine(ti, mi int, id string) error {
	m, err := t.machineAt("form.SetMachine", ti, mi)
	if err != nil {
		return err
	}
	m.MachineID = id
	m.Entries = []Entry{}
	return nil
}

func (t *Tree) AddEntry(ti, mi int) (int, error) {
	const op = "form.AddEntry"

	m, err := t.machineAt(op, ti, mi)
	if err != nil {
		return -1, err
	}
	if m.MachineID == "" {
		return -1, fmt.Errorf("%s: type %d machine %d has no machine selected: %w", op, ti, mi, ErrInvalidState)
	}
	m.Entries = append(m.Entries, Entry{Expanded: true})
	return len(m.Entries) - 1, nil
}

// SetEntryField sets one entry field. Category clears subcategory and size;
// subcategory clears size.
func (t *Tree) SetEntryField(ti, mi, ei int, field Field, value string) error {
	const op = "form.SetEntryField"

	e, err := t.entryAt(op, ti, mi, ei)
	if err != nil {
		return err
	}

	switch field {
	case FieldCategory:
		e.Category = value
		e.SubCategory = ""
		e.Size = ""
	case FieldSubCategory:
		e.SubCategory = value
		e.Size = ""
	case FieldSize:
		e.Size = value
	case FieldUOM:
		u := UOM(value)
		if u != "" && !u.Valid() {
			return fmt.Errorf("%s: uom %q: %w", op, value, ErrInvalidValue)
		}
		e.UOM = u
	case FieldOKQty:
		e.OKQty = value
	case FieldOKWeight:
		e.OKWeight = value
	case FieldRejectedQty:
		e.RejectedQty = value
	case FieldRejectedWeight:
		e.RejectedWeight = value
	default:
		return fmt.Errorf("%s: %q: %w", op, field, ErrUnknownField)
	}
	return nil
}

func (t *Tree) DeleteType(ti int) error {
	if _, err := t.typeAt("form.DeleteType", ti); err != nil {
		return err
	}
	t.Types = slices.Delete(t.Types, ti, ti+1)
	return nil
}

func (t *Tree) DeleteMachine(ti, mi int) error {
	if _, err := t.machineAt("form.DeleteMachine", ti, mi); err != nil {
		return err
	}
	t.Types[ti].Machines = slices.Delete(t.Types[ti].Machines, mi, mi+1)
	return nil
}

func (t *Tree) DeleteEntry(ti, mi, ei int) error {
	if _, err := t.entryAt("form.DeleteEntry", ti, mi, ei); err != nil {
		return err
	}
	m := &t.Types[ti].Machines[mi]
	m.Entries = slices.Delete(m.Entries, ei, ei+1)
	return nil
}

func (t *Tree) SetTypeExpanded(ti int, open bool) error {
	typ, err := t.typeAt("form.SetTypeExpanded", ti)
	if err != nil {
		return err
	}
	typ.Expanded = open
	return nil
}

func (t *Tree) SetMachineExpanded(ti, mi int, open bool) error {
	m, err := t.machineAt("form.SetMachineExpanded", ti, mi)
	if err != nil {
		return err
	}
	m.Expanded = open
	return nil
}

func (t *Tree) SetEntryExpanded(ti, mi, ei int, open bool) error {
	e, err := t.entryAt("form.SetEntryExpanded", ti, mi, ei)
	if err != nil {
		return err
	}
	e.Expanded = open
	return nil
}

// TypeAt, MachineAt and EntryAt return copies of the addressed node.
func (t *Tree) TypeAt(ti int) (Type, error) {
	typ, err := t.typeAt("form.TypeAt", ti)
	if err != nil {
		return Type{}, err
	}
	return *typ, nil
}

func (t *Tree) MachineAt(ti, mi int) (Machine, error) {
	m, err := t.machineAt("form.MachineAt", ti, mi)
	if err != nil {
		return Machine{}, err
	}
	return *m, nil
}

func (t *Tree) EntryAt(ti, mi, ei int) (Entry, error) {
	e, err := t.entryAt("form.EntryAt", ti, mi, ei)
	if err != nil {
		return Entry{}, err
	}
	return *e, nil
}

// TypeIndex finds a type section by node key, -1 when it is gone.
func (t *Tree) TypeIndex(key string) int {
	return slices.IndexFunc(t.Types, func(typ Type) bool { return typ.Key == key })
}

// MachineIndex finds a machine section by node key, -1 when it is gone.
func (t *Tree) MachineIndex(ti int, key string) int {
	if ti < 0 || ti >= len(t.Types) {
		return -1
	}
	return slices.IndexFunc(t.Types[ti].Machines, func(m Machine) bool { return m.Key == key })
}

// EntryCount is the number of rows the tree flattens to.
func (t *Tree) EntryCount() int {
	n := 0
	for _, typ := range t.Types {
		for _, m := range typ.Machines {
			n += len(m.Entries)
		}
	}
	return n
}

func (t *Tree) Clone() *Tree {
	c := *t
	c.Types = make([]Type, len(t.Types))
	for i, typ := range t.Types {
		typ.Machines = slices.Clone(typ.Machines)
		for j := range typ.Machines {
			typ.Machines[j].Entries = slices.Clone(typ.Machines[j].Entries)
		}
		c.Types[i] = typ
	}
	return &c
}
