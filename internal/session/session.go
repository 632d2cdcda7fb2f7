// Package session drives one production form: it owns the form tree and its
// option catalog, starts the cascading reference fetches when a selection
// changes and submits the finished tree through a Collaborator.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"shift-production/internal/catalog"
	"shift-production/internal/form"
	"shift-production/internal/storage"
)

var ErrUnknownOption = errors.New("option not offered")

// SubmitError is a failed hand-off of a valid tree. The tree is kept so the
// submission can be retried.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string { return "submit failed: " + e.Err.Error() }

func (e *SubmitError) Unwrap() error { return e.Err }

// Collaborator is the remote side of a session.
type Collaborator interface {
	FetchTypes(ctx context.Context) ([]string, error)
	FetchMachines(ctx context.Context, typeName string) ([]storage.Machine, error)
	FetchItems(ctx context.Context, machineType string) ([]storage.Item, error)
	FetchDoers(ctx context.Context) ([]storage.Person, error)
	FetchSupervisors(ctx context.Context) ([]storage.Person, error)
	Submit(ctx context.Context, tree *form.Tree) error
}

const fetchTimeout = 10 * time.Second

type Session struct {
	log     *slog.Logger
	collab  Collaborator
	catalog *catalog.Catalog
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	tree        *form.Tree
	doers       []storage.Person
	supervisors []storage.Person
	errs        []error
}

func New(log *slog.Logger, collab Collaborator) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		log:     log,
		collab:  collab,
		catalog: catalog.New(),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		tree:    form.New(time.Now()),
	}
}

// Close abandons in-flight fetches, waits for them to return and drops the
// reference lists.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
	s.catalog.Reset()
}

// Load fetches the type list and both personnel lists in parallel. Every list
// that fails is left empty; the failures come back joined.
func (s *Session) Load(ctx context.Context) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	ticket := s.catalog.BeginTypes()
	g.Go(func() error {
		types, err := s.collab.FetchTypes(ctx)
		if _, err := s.catalog.SettleTypes(ticket, types, err); err != nil {
			record(err)
		}
		return nil
	})

	var doers, supervisors []storage.Person
	g.Go(func() error {
		list, err := s.collab.FetchDoers(ctx)
		if err != nil {
			record(&catalog.FetchError{List: "doers", Err: err})
			return nil
		}
		doers = list
		return nil
	})
	g.Go(func() error {
		list, err := s.collab.FetchSupervisors(ctx)
		if err != nil {
			record(&catalog.FetchError{List: "supervisors", Err: err})
			return nil
		}
		supervisors = list
		return nil
	})

	// Failures go through record so one list failing never cancels the others.
	_ = g.Wait()

	s.mu.Lock()
	s.doers = doers
	s.supervisors = supervisors
	s.mu.Unlock()

	for _, err := range errs {
		s.log.Warn("reference list unavailable", slog.String("op", "session.Load"), slog.String("error", err.Error()))
	}
	return errors.Join(errs...)
}

// Wait blocks until every fetch started so far has settled and returns the
// fetch errors collected since the previous Wait.
func (s *Session) Wait() error {
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := errors.Join(s.errs...)
	s.errs = nil
	return err
}

func (s *Session) spawn(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, fetchTimeout)
		defer cancel()

		fn(ctx)
	}()
}

// fail must be called with s.mu held.
func (s *Session) fail(op string, err error) {
	s.log.Warn("reference list unavailable", slog.String("op", op), slog.String("error", err.Error()))
	s.errs = append(s.errs, err)
}

// Tree returns a copy of the current form.
func (s *Session) Tree() *form.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Clone()
}

func (s *Session) SetProductionDate(day time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.SetProductionDate(day)
}

func (s *Session) SetShift(shift form.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.SetShift(shift)
}

func (s *Session) SetSupervisor(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.SetSupervisor(name)
}

func (s *Session) SetDoer(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.SetDoer(name)
}

func (s *Session) AddType() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.AddType()
}

// SetType selects a type for section ti, clears its machines and starts the
// machine fetch for the new type. A result that arrives after the section was
// removed or changed again is discarded.
func (s *Session) SetType(ti int, name string) error {
	const op = "session.SetType"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tree.SetType(ti, name); err != nil {
		return err
	}
	if name == "" {
		return nil
	}

	key := s.tree.Types[ti].Key
	ticket := s.catalog.BeginMachines(name)

	s.spawn(func(ctx context.Context) {
		machines, fetchErr := s.collab.FetchMachines(ctx, name)

		s.mu.Lock()
		defer s.mu.Unlock()

		i := s.tree.TypeIndex(key)
		if i < 0 || s.tree.Types[i].TypeName != name {
			s.log.Debug("discarding stale machine list", slog.String("op", op), slog.String("type", name))
			return
		}
		if _, err := s.catalog.SettleMachines(ticket, machines, fetchErr); err != nil {
			s.fail(op, err)
		}
	})

	return nil
}

func (s *Session) AddMachine(ti int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.AddMachine(ti)
}

// SetMachine selects a machine for section (ti, mi), clears its entries and
// starts the item fetch for the machine's type.
func (s *Session) SetMachine(ti, mi int, id string) error {
	const op = "session.SetMachine"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tree.SetMachine(ti, mi, id); err != nil {
		return err
	}
	if id == "" {
		return nil
	}

	typeKey := s.tree.Types[ti].Key
	machineKey := s.tree.Types[ti].Machines[mi].Key
	machineType := s.machineType(ti, id)
	ticket := s.catalog.BeginItems(machineType)

	s.spawn(func(ctx context.Context) {
		items, fetchErr := s.collab.FetchItems(ctx, machineType)

		s.mu.Lock()
		defer s.mu.Unlock()

		i := s.tree.TypeIndex(typeKey)
		j := s.tree.MachineIndex(i, machineKey)
		if j < 0 || s.tree.Types[i].Machines[j].MachineID != id {
			s.log.Debug("discarding stale item list", slog.String("op", op), slog.String("machine", id))
			return
		}
		if _, err := s.catalog.SettleItems(ticket, items, fetchErr); err != nil {
			s.fail(op, err)
		}
	})

	return nil
}

// machineType is the type recorded for the machine in the master list, falling
// back to the section's type. Must be called with s.mu held.
func (s *Session) machineType(ti int, id string) string {
	if m, ok := s.catalog.Machine(id); ok && m.Type != "" {
		return m.Type
	}
	return s.tree.Types[ti].TypeName
}

func (s *Session) AddEntry(ti, mi int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.AddEntry(ti, mi)
}

func (s *Session) SetEntryField(ti, mi, ei int, field form.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.SetEntryField(ti, mi, ei, field, value)
}

func (s *Session) DeleteType(ti int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.DeleteType(ti)
}

func (s *Session) DeleteMachine(ti, mi int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.DeleteMachine(ti, mi)
}

func (s *Session) DeleteEntry(ti, mi, ei int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.DeleteEntry(ti, mi, ei)
}

func (s *Session) SetTypeExpanded(ti int, open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.SetTypeExpanded(ti, open)
}

func (s *Session) SetMachineExpanded(ti, mi int, open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.SetMachineExpanded(ti, mi, open)
}

func (s *Session) SetEntryExpanded(ti, mi, ei int, open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.SetEntryExpanded(ti, mi, ei, open)
}

// Submit validates the form and hands it to the collaborator. Validation
// failures come back as *form.ValidationError, transport failures as
// *SubmitError; in both cases the form is left untouched. A successful submit
// starts a fresh form for today.
func (s *Session) Submit(ctx context.Context) error {
	const op = "session.Submit"

	s.mu.Lock()
	snapshot := s.tree.Clone()
	s.mu.Unlock()

	if err := form.Validate(snapshot); err != nil {
		return err
	}

	if err := s.collab.Submit(ctx, snapshot); err != nil {
		s.log.Error("submission failed", slog.String("op", op), slog.String("error", err.Error()))
		return &SubmitError{Err: err}
	}

	s.log.Info("form submitted", slog.String("op", op), slog.Int("entries", snapshot.EntryCount()))
	s.reset()
	return nil
}

// Cancel discards the form and starts a fresh one for today.
func (s *Session) Cancel() {
	s.reset()
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree.Reset(s.now())
	s.catalog.ResetSelections()
}

// Apply replaces the form with src, replaying it through the same operations a
// user would perform. Every non-empty selection must be offered by the option
// list it is chosen from.
func (s *Session) Apply(ctx context.Context, src *form.Tree) error {
	const op = "session.Apply"

	s.Cancel()

	s.SetProductionDate(src.ProductionDate.Time)
	if err := s.SetShift(src.Shift); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := offered(op, "supervisor", src.Supervisor, names(s.Supervisors())); err != nil {
		return err
	}
	s.SetSupervisor(src.Supervisor)
	if err := offered(op, "doer", src.Doer, names(s.Doers())); err != nil {
		return err
	}
	s.SetDoer(src.Doer)

	for _, typ := range src.Types {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		ti := s.AddType()
		if typ.TypeName == "" {
			continue
		}
		if err := offered(op, "type", typ.TypeName, s.Types()); err != nil {
			return err
		}
		if err := s.SetType(ti, typ.TypeName); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.Wait(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		for _, m := range typ.Machines {
			if err := s.applyMachine(op, ti, m); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Session) applyMachine(op string, ti int, m form.Machine) error {
	mi, err := s.AddMachine(ti)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if m.MachineID == "" {
		return nil
	}

	machines, err := s.Machines(ti)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	ids := make([]string, len(machines))
	for i, mm := range machines {
		ids[i] = mm.ID
	}
	if err := offered(op, "machine", m.MachineID, ids); err != nil {
		return err
	}
	if err := s.SetMachine(ti, mi, m.MachineID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Wait(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, e := range m.Entries {
		ei, err := s.AddEntry(ti, mi)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.applyEntry(op, ti, mi, ei, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) applyEntry(op string, ti, mi, ei int, e form.Entry) error {
	cascade := []struct {
		field   form.Field
		value   string
		options func() ([]string, error)
	}{
		{form.FieldCategory, e.Category, func() ([]string, error) { return s.Categories(ti, mi) }},
		{form.FieldSubCategory, e.SubCategory, func() ([]string, error) { return s.SubCategories(ti, mi, ei) }},
		{form.FieldSize, e.Size, func() ([]string, error) { return s.Sizes(ti, mi, ei) }},
	}
	for _, c := range cascade {
		if c.value == "" {
			continue
		}
		opts, err := c.options()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := offered(op, string(c.field), c.value, opts); err != nil {
			return err
		}
		if err := s.SetEntryField(ti, mi, ei, c.field, c.value); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	rest := map[form.Field]string{
		form.FieldUOM:            string(e.UOM),
		form.FieldOKQty:          e.OKQty,
		form.FieldOKWeight:       e.OKWeight,
		form.FieldRejectedQty:    e.RejectedQty,
		form.FieldRejectedWeight: e.RejectedWeight,
	}
	for field, value := range rest {
		if err := s.SetEntryField(ti, mi, ei, field, value); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func offered(op, what, value string, options []string) error {
	if value == "" {
		return nil
	}
	for _, o := range options {
		if o == value {
			return nil
		}
	}
	return fmt.Errorf("%s: %s %q: %w", op, what, value, ErrUnknownOption)
}

func names(people []storage.Person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.Name
	}
	return out
}
