package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"shift-production/internal/catalog"
	"shift-production/internal/form"
	"shift-production/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeCollab serves fixed lists. A gate registered for a call key blocks the
// next call with that key until it is closed; fail makes a key return an error.
type fakeCollab struct {
	mu          sync.Mutex
	types       []string
	machines    map[string][]storage.Machine
	items       map[string][]storage.Item
	doers       []storage.Person
	supervisors []storage.Person
	fail        map[string]error
	gates       map[string]chan struct{}
	submitted   []*form.Tree
}

func newFake() *fakeCollab {
	return &fakeCollab{
		types: []string{"Blow", "Roto"},
		machines: map[string][]storage.Machine{
			"Blow": {{ID: "7", Name: "BM-7", Type: "Blow"}, {ID: "9", Name: "BM-9", Type: "Blow"}},
			"Roto": {{ID: "8", Name: "RM-8", Type: "Roto"}},
		},
		items: map[string][]storage.Item{
			"Blow": {
				{ID: "10", Category: "Tanks", SubCategory: "GR8", Size: "500L"},
				{ID: "11", Category: "Tanks", SubCategory: "GR8", Size: "1000L"},
				{ID: "12", Category: "Tanks", SubCategory: "Loft", Size: "300L"},
				{ID: "13", Category: "Bottles", SubCategory: "Neck", Size: "1L"},
			},
			"Roto": {{ID: "20", Category: "Drums", SubCategory: "Open", Size: "200L"}},
		},
		doers:       []storage.Person{{ID: "1", Name: "D1"}},
		supervisors: []storage.Person{{ID: "1", Name: "S1"}},
		fail:        map[string]error{},
		gates:       map[string]chan struct{}{},
	}
}

func (f *fakeCollab) enter(ctx context.Context, key string) error {
	f.mu.Lock()
	gate := f.gates[key]
	delete(f.gates, key)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[key]
}

func (f *fakeCollab) gateTaken(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.gates[key]
	return !ok
}

func (f *fakeCollab) FetchTypes(ctx context.Context) ([]string, error) {
	if err := f.enter(ctx, "types"); err != nil {
		return nil, err
	}
	return f.types, nil
}

func (f *fakeCollab) FetchMachines(ctx context.Context, typeName string) ([]storage.Machine, error) {
	if err := f.enter(ctx, "machines:"+typeName); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.machines[typeName], nil
}

func (f *fakeCollab) FetchItems(ctx context.Context, machineType string) ([]storage.Item, error) {
	if err := f.enter(ctx, "items:"+machineType); err != nil {
		return nil, err
	}
	return f.items[machineType], nil
}

func (f *fakeCollab) FetchDoers(ctx context.Context) ([]storage.Person, error) {
	if err := f.enter(ctx, "doers"); err != nil {
		return nil, err
	}
	return f.doers, nil
}

func (f *fakeCollab) FetchSupervisors(ctx context.Context) ([]storage.Person, error) {
	if err := f.enter(ctx, "supervisors"); err != nil {
		return nil, err
	}
	return f.supervisors, nil
}

func (f *fakeCollab) Submit(ctx context.Context, tree *form.Tree) error {
	if err := f.enter(ctx, "submit"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, tree)
	return nil
}

var today = time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)

func newSession(t *testing.T, collab Collaborator) *Session {
	t.Helper()

	s := New(slog.New(slog.NewTextHandler(io.Discard, nil)), collab)
	s.now = func() time.Time { return today }
	s.tree.Reset(today)
	t.Cleanup(s.Close)
	return s
}

func loaded(t *testing.T, f *fakeCollab) *Session {
	t.Helper()
	s := newSession(t, f)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestLoad(t *testing.T) {
	s := loaded(t, newFake())

	assert.Equal(t, []string{"Blow", "Roto"}, s.Types())
	assert.Equal(t, "D1", s.Doers()[0].Name)
	assert.Equal(t, "S1", s.Supervisors()[0].Name)
}

func TestLoad_PartialFailure(t *testing.T) {
	f := newFake()
	f.fail["doers"] = errors.New("sheet missing")

	s := newSession(t, f)
	err := s.Load(context.Background())

	var fe *catalog.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "doers", fe.List)
	assert.Empty(t, s.Doers())
	assert.Equal(t, []string{"Blow", "Roto"}, s.Types())
	assert.Len(t, s.Supervisors(), 1)
}

func TestSetType_FetchesMachines(t *testing.T) {
	s := loaded(t, newFake())

	ti := s.AddType()
	require.NoError(t, s.SetType(ti, "Blow"))
	require.NoError(t, s.Wait())

	machines, err := s.Machines(ti)
	require.NoError(t, err)
	assert.Len(t, machines, 2)

	require.NoError(t, s.SetType(ti, ""))
	require.NoError(t, s.Wait())
	machines, err = s.Machines(ti)
	require.NoError(t, err)
	assert.Empty(t, machines)
}

func TestSetType_StaleResultForChangedSelection(t *testing.T) {
	f := newFake()
	gate := make(chan struct{})
	f.gates["machines:Blow"] = gate

	s := loaded(t, f)
	ti := s.AddType()

	require.NoError(t, s.SetType(ti, "Blow"))
	require.NoError(t, s.SetType(ti, "Roto"))
	close(gate)
	require.NoError(t, s.Wait())

	machines, err := s.Machines(ti)
	require.NoError(t, err)
	assert.Equal(t, []storage.Machine{{ID: "8", Name: "RM-8", Type: "Roto"}}, machines)
	assert.Empty(t, s.catalog.MachinesForType("Blow"))
}

func TestSetType_StaleResultForReplacedSection(t *testing.T) {
	f := newFake()
	gate := make(chan struct{})
	f.gates["machines:Blow"] = gate

	s := loaded(t, f)

	require.NoError(t, s.SetType(s.AddType(), "Blow"))
	require.Eventually(t, func() bool { return f.gateTaken("machines:Blow") }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.DeleteType(0))
	ti := s.AddType()
	require.NoError(t, s.SetType(ti, "Blow"))

	require.Eventually(t, func() bool {
		m, _ := s.Machines(ti)
		return len(m) == 2
	}, time.Second, 5*time.Millisecond)

	f.mu.Lock()
	f.machines["Blow"] = []storage.Machine{{ID: "99", Name: "late", Type: "Blow"}}
	f.mu.Unlock()
	close(gate)
	require.NoError(t, s.Wait())

	machines, err := s.Machines(ti)
	require.NoError(t, err)
	assert.Len(t, machines, 2)
	assert.Equal(t, "7", machines[0].ID)
}

func TestSetType_SharedTypeSurvivesSiblingChange(t *testing.T) {
	f := newFake()
	first := make(chan struct{})
	f.gates["machines:Blow"] = first

	s := loaded(t, f)
	t0 := s.AddType()
	t1 := s.AddType()

	require.NoError(t, s.SetType(t0, "Blow"))
	require.Eventually(t, func() bool { return f.gateTaken("machines:Blow") }, time.Second, 5*time.Millisecond)

	second := make(chan struct{})
	f.mu.Lock()
	f.gates["machines:Blow"] = second
	f.mu.Unlock()
	require.NoError(t, s.SetType(t1, "Blow"))
	require.Eventually(t, func() bool { return f.gateTaken("machines:Blow") }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.SetType(t1, "Roto"))
	close(second)
	close(first)
	require.NoError(t, s.Wait())

	machines, err := s.Machines(t0)
	require.NoError(t, err)
	assert.Len(t, machines, 2)

	machines, err = s.Machines(t1)
	require.NoError(t, err)
	assert.Equal(t, []storage.Machine{{ID: "8", Name: "RM-8", Type: "Roto"}}, machines)
}

func TestSetMachine_SharedMachineTypeSurvivesSiblingChange(t *testing.T) {
	f := newFake()
	s := loaded(t, f)

	ti := s.AddType()
	require.NoError(t, s.SetType(ti, "Blow"))
	require.NoError(t, s.Wait())
	m0, err := s.AddMachine(ti)
	require.NoError(t, err)
	m1, err := s.AddMachine(ti)
	require.NoError(t, err)

	first := make(chan struct{})
	f.mu.Lock()
	f.gates["items:Blow"] = first
	f.mu.Unlock()
	require.NoError(t, s.SetMachine(ti, m0, "7"))
	require.Eventually(t, func() bool { return f.gateTaken("items:Blow") }, time.Second, 5*time.Millisecond)

	second := make(chan struct{})
	f.mu.Lock()
	f.gates["items:Blow"] = second
	f.mu.Unlock()
	require.NoError(t, s.SetMachine(ti, m1, "9"))
	require.Eventually(t, func() bool { return f.gateTaken("items:Blow") }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.SetMachine(ti, m1, ""))
	close(second)
	close(first)
	require.NoError(t, s.Wait())

	cats, err := s.Categories(ti, m0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bottles", "Tanks"}, cats)
}

func TestClose_DropsReferenceLists(t *testing.T) {
	s := loaded(t, newFake())
	require.NotEmpty(t, s.Types())

	s.Close()
	assert.Empty(t, s.Types())
}

func TestSetType_FetchError(t *testing.T) {
	f := newFake()
	f.fail["machines:Roto"] = errors.New("timeout")

	s := loaded(t, f)
	ti := s.AddType()
	require.NoError(t, s.SetType(ti, "Roto"))

	err := s.Wait()
	var fe *catalog.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "machines", fe.List)
	assert.Equal(t, "Roto", fe.Key)

	machines, err := s.Machines(ti)
	require.NoError(t, err)
	assert.Empty(t, machines)

	assert.NoError(t, s.Wait(), "errors are reported once")
}

func TestCascadingOptions(t *testing.T) {
	s := loaded(t, newFake())

	ti := s.AddType()
	require.NoError(t, s.SetType(ti, "Blow"))
	require.NoError(t, s.Wait())
	mi, err := s.AddMachine(ti)
	require.NoError(t, err)

	cats, err := s.Categories(ti, mi)
	require.NoError(t, err)
	assert.Empty(t, cats, "no machine selected yet")

	require.NoError(t, s.SetMachine(ti, mi, "7"))
	require.NoError(t, s.Wait())
	ei, err := s.AddEntry(ti, mi)
	require.NoError(t, err)

	cats, err = s.Categories(ti, mi)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bottles", "Tanks"}, cats)

	subs, err := s.SubCategories(ti, mi, ei)
	require.NoError(t, err)
	assert.Empty(t, subs)

	require.NoError(t, s.SetEntryField(ti, mi, ei, form.FieldCategory, "Tanks"))
	subs, err = s.SubCategories(ti, mi, ei)
	require.NoError(t, err)
	assert.Equal(t, []string{"GR8", "Loft"}, subs)

	require.NoError(t, s.SetEntryField(ti, mi, ei, form.FieldSubCategory, "GR8"))
	sizes, err := s.Sizes(ti, mi, ei)
	require.NoError(t, err)
	assert.Equal(t, []string{"1000L", "500L"}, sizes)

	_, err = s.Sizes(ti, mi, 5)
	assert.ErrorIs(t, err, form.ErrOutOfRange)
}

func TestSetMachine_StaleItemsDiscarded(t *testing.T) {
	f := newFake()
	gate := make(chan struct{})
	f.gates["items:Blow"] = gate

	s := loaded(t, f)
	ti := s.AddType()
	require.NoError(t, s.SetType(ti, "Blow"))
	require.NoError(t, s.Wait())
	mi, err := s.AddMachine(ti)
	require.NoError(t, err)

	require.NoError(t, s.SetMachine(ti, mi, "7"))
	require.NoError(t, s.DeleteMachine(ti, mi))
	close(gate)
	require.NoError(t, s.Wait())

	assert.Empty(t, s.catalog.ItemsForMachineType("Blow"))
}

func fillValid(t *testing.T, s *Session) {
	t.Helper()

	s.SetDoer("D1")
	s.SetSupervisor("S1")
	ti := s.AddType()
	require.NoError(t, s.SetType(ti, "Blow"))
	mi, err := s.AddMachine(ti)
	require.NoError(t, err)
	require.NoError(t, s.SetMachine(ti, mi, "7"))
	ei, err := s.AddEntry(ti, mi)
	require.NoError(t, err)
	require.NoError(t, s.SetEntryField(ti, mi, ei, form.FieldCategory, "Tanks"))
	require.NoError(t, s.SetEntryField(ti, mi, ei, form.FieldSubCategory, "GR8"))
	require.NoError(t, s.SetEntryField(ti, mi, ei, form.FieldSize, "500L"))
	require.NoError(t, s.SetEntryField(ti, mi, ei, form.FieldUOM, "Kg"))
	require.NoError(t, s.Wait())
}

func TestSubmit_Success(t *testing.T) {
	f := newFake()
	s := loaded(t, f)
	fillValid(t, s)

	require.NoError(t, s.Submit(context.Background()))

	require.Len(t, f.submitted, 1)
	assert.Equal(t, "D1", f.submitted[0].Doer)
	assert.Equal(t, 1, f.submitted[0].EntryCount())

	tree := s.Tree()
	assert.Empty(t, tree.Types)
	assert.Empty(t, tree.Doer)
	assert.Equal(t, form.ShiftA, tree.Shift)
	assert.Equal(t, "2025-03-14", tree.ProductionDate.String())
	assert.Equal(t, []string{"Blow", "Roto"}, s.Types(), "type list survives a reset")
}

func TestSubmit_ValidationKeepsTree(t *testing.T) {
	f := newFake()
	s := loaded(t, f)
	fillValid(t, s)
	require.NoError(t, s.SetEntryField(0, 0, 0, form.FieldCategory, "Bottles"))

	err := s.Submit(context.Background())

	var ve *form.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, form.RuleSubCategory, ve.Rule)
	assert.Empty(t, f.submitted)
	assert.Equal(t, 1, s.Tree().EntryCount())
}

func TestSubmit_FailureKeepsTree(t *testing.T) {
	f := newFake()
	f.fail["submit"] = errors.New("503")
	s := loaded(t, f)
	fillValid(t, s)

	err := s.Submit(context.Background())

	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.EqualError(t, se.Err, "503")
	assert.Equal(t, 1, s.Tree().EntryCount())

	delete(f.fail, "submit")
	require.NoError(t, s.Submit(context.Background()))
	assert.Len(t, f.submitted, 1)
}

func TestCancel(t *testing.T) {
	s := loaded(t, newFake())
	fillValid(t, s)
	require.NoError(t, s.SetShift(form.ShiftAB))

	s.Cancel()

	tree := s.Tree()
	assert.Empty(t, tree.Types)
	assert.Equal(t, form.ShiftA, tree.Shift)
}

func TestApply(t *testing.T) {
	s := loaded(t, newFake())

	src := &form.Tree{
		ProductionDate: form.NewDate(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
		Shift:          form.ShiftAB,
		Supervisor:     "S1",
		Doer:           "D1",
		Types: []form.Type{{
			TypeName: "Blow",
			Machines: []form.Machine{{
				MachineID: "9",
				Entries: []form.Entry{
					{Category: "Tanks", SubCategory: "Loft", Size: "300L", UOM: form.UOMNos, OKQty: "4", RejectedQty: "1"},
				},
			}},
		}},
	}

	require.NoError(t, s.Apply(context.Background(), src))

	tree := s.Tree()
	assert.Equal(t, "2025-03-10", tree.ProductionDate.String())
	assert.Equal(t, form.ShiftAB, tree.Shift)
	require.Equal(t, 1, tree.EntryCount())
	e := tree.Types[0].Machines[0].Entries[0]
	assert.Equal(t, "Loft", e.SubCategory)
	assert.Equal(t, "300L", e.Size)
	assert.Equal(t, form.UOMNos, e.UOM)
	assert.Equal(t, "4", e.OKQty)
	assert.Equal(t, "1", e.RejectedQty)
	assert.NoError(t, form.Validate(tree))
}

func TestApply_UnknownOption(t *testing.T) {
	cases := map[string]func(*form.Tree){
		"doer":     func(t *form.Tree) { t.Doer = "nobody" },
		"type":     func(t *form.Tree) { t.Types[0].TypeName = "Extrusion" },
		"machine":  func(t *form.Tree) { t.Types[0].Machines[0].MachineID = "8" },
		"size":     func(t *form.Tree) { t.Types[0].Machines[0].Entries[0].Size = "2L" },
		"category": func(t *form.Tree) { t.Types[0].Machines[0].Entries[0].Category = "Drums" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := loaded(t, newFake())

			src := &form.Tree{
				Shift: form.ShiftA, Supervisor: "S1", Doer: "D1",
				Types: []form.Type{{TypeName: "Blow", Machines: []form.Machine{{
					MachineID: "7",
					Entries:   []form.Entry{{Category: "Tanks", SubCategory: "GR8", Size: "500L", UOM: form.UOMKg}},
				}}}},
			}
			mutate(src)

			assert.ErrorIs(t, s.Apply(context.Background(), src), ErrUnknownOption)
		})
	}
}
