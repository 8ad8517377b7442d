package evalloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgdb-go/hgdb/internal/hwmodel"
	"github.com/hgdb-go/hgdb/internal/rtl"
	"github.com/hgdb-go/hgdb/internal/symtab"
)

// fakeProvider is a minimal in-memory rtl.Provider keyed by full
// signal name, used to drive guard evaluation without a real
// simulator.
type fakeProvider struct {
	values map[string]int64
	time   uint64
}

func newFakeProvider() *fakeProvider { return &fakeProvider{values: map[string]int64{}} }

func (f *fakeProvider) GetFullName(scoped string) string { return scoped }
func (f *fakeProvider) GetHandle(scoped string) (rtl.Handle, bool) {
	_, ok := f.values[scoped]
	return scoped, ok
}
func (f *fakeProvider) GetValue(h rtl.Handle) (int64, bool) {
	name, _ := h.(string)
	v, ok := f.values[name]
	return v, ok
}
func (f *fakeProvider) GetValueByName(scoped string) (int64, bool) {
	v, ok := f.values[scoped]
	return v, ok
}
func (f *fakeProvider) GetModuleSignals(moduleScoped string) map[string]rtl.Handle { return nil }
func (f *fakeProvider) GetSimulationTime() uint64                                 { return f.time }
func (f *fakeProvider) GetSimulatorProduct() string                               { return "fake" }
func (f *fakeProvider) GetArgv() []string                                         { return nil }
func (f *fakeProvider) IsVerilator() bool                                         { return false }
func (f *fakeProvider) RegisterValueChangeCallback(h rtl.Handle, cb rtl.ValueChangeCallback) (rtl.Handle, bool) {
	return nil, false
}
func (f *fakeProvider) RemoveCallback(cbHandle rtl.Handle) {}
func (f *fakeProvider) Stop()                              {}
func (f *fakeProvider) Finish()                            {}

var _ rtl.Provider = (*fakeProvider)(nil)

// recordingSink collects every Hit passed to OnHit, in order.
type recordingSink struct {
	hits []Hit
}

func (s *recordingSink) OnHit(h Hit) { s.hits = append(s.hits, h) }

func sampleClient(t *testing.T) *symtab.Client {
	tables := symtab.NewTables()
	tables.Instances = []hwmodel.Instance{
		{ID: 1, Name: "top"},
		{ID: 2, Name: "top.inst"},
	}
	tables.Breakpoints = []hwmodel.BreakPoint{
		{ID: 1, InstanceID: 1, Filename: "a.sv", Line: 10, Column: 1, Condition: ""},
		{ID: 2, InstanceID: 2, Filename: "a.sv", Line: 20, Column: 1, Condition: "a == 1"},
		{ID: 3, InstanceID: 2, Filename: "b.sv", Line: 5, Column: 1, Condition: ""},
	}
	tables.ContextVariables[2] = []hwmodel.ContextVariable{
		{Name: "a", Var: hwmodel.Variable{Value: "a", IsRTL: true}},
		{Name: "limit", Var: hwmodel.Variable{Value: "4", IsRTL: false}},
	}
	tables.GeneratorVariables[2] = []hwmodel.GeneratorVariable{
		{Name: "WIDTH", Var: hwmodel.Variable{Value: "8", IsRTL: false}},
	}
	client, err := symtab.Open(tables, nil)
	require.NoError(t, err)
	return client
}

func TestEvaluator_AddBreakpointOrdersByExecutionOrder(t *testing.T) {
	client := sampleClient(t)
	e := New(client, newFakeProvider(), nil)

	bp2, _ := client.GetBreakpoint(2)
	bp1, _ := client.GetBreakpoint(1)
	bp3, _ := client.GetBreakpoint(3)

	require.NoError(t, e.AddBreakpoint(bp2, ""))
	require.NoError(t, e.AddBreakpoint(bp1, ""))
	require.NoError(t, e.AddBreakpoint(bp3, ""))

	active := e.ActiveBreakpoints()
	assert.Equal(t, []hwmodel.BreakpointID{1, 2, 3}, active)
}

func TestEvaluator_AddBreakpointDedupUpdatesGuardOnly(t *testing.T) {
	client := sampleClient(t)
	e := New(client, newFakeProvider(), nil)

	bp1, _ := client.GetBreakpoint(1)
	require.NoError(t, e.AddBreakpoint(bp1, ""))
	require.NoError(t, e.AddBreakpoint(bp1, "a == 2"))

	assert.Len(t, e.ActiveBreakpoints(), 1)
}

func TestEvaluator_RemoveBreakpoint(t *testing.T) {
	client := sampleClient(t)
	e := New(client, newFakeProvider(), nil)

	bp1, _ := client.GetBreakpoint(1)
	bp2, _ := client.GetBreakpoint(2)
	require.NoError(t, e.AddBreakpoint(bp1, ""))
	require.NoError(t, e.AddBreakpoint(bp2, ""))

	e.RemoveBreakpoint(1)
	assert.Equal(t, []hwmodel.BreakpointID{2}, e.ActiveBreakpoints())
}

func TestEvaluator_NextBreakpoint_BreakPointOnly_ScansFullActiveList(t *testing.T) {
	client := sampleClient(t)
	e := New(client, newFakeProvider(), nil)

	for _, id := range []hwmodel.BreakpointID{1, 2, 3} {
		bp, _ := client.GetBreakpoint(id)
		require.NoError(t, e.AddBreakpoint(bp, ""))
	}

	e.StartTick()
	first, ok := e.NextBreakpoint()
	require.True(t, ok)
	assert.Equal(t, hwmodel.BreakpointID(1), first.ID)

	second, ok := e.NextBreakpoint()
	require.True(t, ok)
	assert.Equal(t, hwmodel.BreakpointID(2), second.ID)

	third, ok := e.NextBreakpoint()
	require.True(t, ok)
	assert.Equal(t, hwmodel.BreakpointID(3), third.ID)

	_, ok = e.NextBreakpoint()
	assert.False(t, ok)
}

func TestEvaluator_NextBreakpoint_StepOver_WalksExecutionOrder(t *testing.T) {
	client := sampleClient(t)
	e := New(client, newFakeProvider(), nil)
	e.SetMode(StepOver)

	e.StartTick()
	bp, ok := e.NextBreakpoint()
	require.True(t, ok)
	assert.Equal(t, hwmodel.BreakpointID(1), bp.ID)

	bp, ok = e.NextBreakpoint()
	require.True(t, ok)
	assert.Equal(t, hwmodel.BreakpointID(2), bp.ID)

	bp, ok = e.NextBreakpoint()
	require.True(t, ok)
	assert.Equal(t, hwmodel.BreakpointID(3), bp.ID)

	_, ok = e.NextBreakpoint()
	assert.False(t, ok)
}

func TestEvaluator_Tick_FiresHitOnTrueGuard(t *testing.T) {
	client := sampleClient(t)
	provider := newFakeProvider()
	provider.values["top.inst.a"] = 1

	e := New(client, provider, nil)
	bp1, _ := client.GetBreakpoint(1)
	bp2, _ := client.GetBreakpoint(2)
	require.NoError(t, e.AddBreakpoint(bp1, ""))
	require.NoError(t, e.AddBreakpoint(bp2, ""))

	sink := &recordingSink{}
	e.Tick(sink, 42)

	require.Len(t, sink.hits, 2)
	assert.Equal(t, hwmodel.BreakpointID(1), sink.hits[0].BreakpointID)
	assert.Equal(t, hwmodel.BreakpointID(2), sink.hits[1].BreakpointID)
	assert.Equal(t, "top.inst", sink.hits[1].InstanceName)
	assert.Equal(t, uint64(42), sink.hits[1].Time)
	assert.Equal(t, "1", sink.hits[1].Locals["a"])
	assert.Equal(t, "4", sink.hits[1].Locals["limit"])
	assert.Equal(t, "8", sink.hits[1].Generators["WIDTH"])
}

func TestEvaluator_Tick_SkipsFalseGuard(t *testing.T) {
	client := sampleClient(t)
	provider := newFakeProvider()
	provider.values["top.inst.a"] = 0

	e := New(client, provider, nil)
	bp2, _ := client.GetBreakpoint(2)
	require.NoError(t, e.AddBreakpoint(bp2, ""))

	sink := &recordingSink{}
	e.Tick(sink, 1)
	assert.Empty(t, sink.hits)
}

func TestEvaluator_Tick_UnreadableSymbolSkipsEntry(t *testing.T) {
	client := sampleClient(t)
	provider := newFakeProvider() // "top.inst.a" deliberately absent

	e := New(client, provider, nil)
	bp2, _ := client.GetBreakpoint(2)
	require.NoError(t, e.AddBreakpoint(bp2, ""))

	sink := &recordingSink{}
	e.Tick(sink, 1)
	assert.Empty(t, sink.hits)
}

func TestEvaluator_Tick_GeneratorValueUnreadableUsesErrorSentinel(t *testing.T) {
	tables := symtab.NewTables()
	tables.Instances = []hwmodel.Instance{{ID: 1, Name: "top"}}
	tables.Breakpoints = []hwmodel.BreakPoint{{ID: 1, InstanceID: 1, Filename: "a.sv", Line: 1, Column: 1}}
	tables.GeneratorVariables[1] = []hwmodel.GeneratorVariable{
		{Name: "clk", Var: hwmodel.Variable{Value: "top.clk", IsRTL: true}},
	}
	client, err := symtab.Open(tables, nil)
	require.NoError(t, err)

	e := New(client, newFakeProvider(), nil) // "top.clk" deliberately absent
	bp1, _ := client.GetBreakpoint(1)
	require.NoError(t, e.AddBreakpoint(bp1, ""))

	sink := &recordingSink{}
	e.Tick(sink, 1)

	require.Len(t, sink.hits, 1)
	assert.Equal(t, hwmodel.ErrorValue, sink.hits[0].Generators["clk"])
}

func TestEvaluator_ContextStaticValuesIgnoresRTLVariables(t *testing.T) {
	client := sampleClient(t)
	e := New(client, newFakeProvider(), nil)

	values := e.contextStaticValues(2)
	assert.Equal(t, map[string]int64{"limit": 4}, values)
}
