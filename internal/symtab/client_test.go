package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgdb-go/hgdb/internal/hwmodel"
)

func sampleTables() *Tables {
	t := NewTables()
	t.Instances = []hwmodel.Instance{
		{ID: 1, Name: "top"},
		{ID: 2, Name: "top.inst"},
	}
	t.Breakpoints = []hwmodel.BreakPoint{
		{ID: 1, InstanceID: 2, Filename: "dut.sv", Line: 10, Column: 3, Condition: "a > 0"},
		{ID: 2, InstanceID: 2, Filename: "dut.sv", Line: 20, Column: 1},
	}
	t.ContextVariables[1] = []hwmodel.ContextVariable{
		{Name: "a", Var: hwmodel.Variable{Value: "sig_a", IsRTL: true}},
		{Name: "k", Var: hwmodel.Variable{Value: "42", IsRTL: false}},
	}
	t.GeneratorVariables[2] = []hwmodel.GeneratorVariable{
		{Name: "WIDTH", Var: hwmodel.Variable{Value: "8", IsRTL: false}},
	}
	t.Annotations["note"] = []string{"first", "second"}
	return t
}

func TestOpen_RejectsNil(t *testing.T) {
	_, err := Open(nil, nil)
	assert.Error(t, err)
}

func TestOpen_RejectsDuplicateBreakpointID(t *testing.T) {
	tables := NewTables()
	tables.Breakpoints = []hwmodel.BreakPoint{
		{ID: 1, Filename: "a.sv", Line: 1, Column: 1},
		{ID: 1, Filename: "b.sv", Line: 2, Column: 1},
	}
	_, err := Open(tables, nil)
	assert.Error(t, err)
}

func TestClient_GetBreakpoints(t *testing.T) {
	c, err := Open(sampleTables(), nil)
	require.NoError(t, err)

	all := c.GetBreakpoints("dut.sv", 0, 0)
	assert.Len(t, all, 2)
	assert.Equal(t, hwmodel.BreakpointID(1), all[0].ID)

	one := c.GetBreakpoints("dut.sv", 20, 0)
	require.Len(t, one, 1)
	assert.Equal(t, hwmodel.BreakpointID(2), one[0].ID)

	none := c.GetBreakpoints("missing.sv", 0, 0)
	assert.Empty(t, none)
}

func TestClient_GetBreakpoint(t *testing.T) {
	c, err := Open(sampleTables(), nil)
	require.NoError(t, err)

	bp, ok := c.GetBreakpoint(1)
	require.True(t, ok)
	assert.Equal(t, "a > 0", bp.Condition)

	_, ok = c.GetBreakpoint(999)
	assert.False(t, ok)
}

func TestClient_InstanceLookups(t *testing.T) {
	c, err := Open(sampleTables(), nil)
	require.NoError(t, err)

	name, ok := c.GetInstanceName(2)
	require.True(t, ok)
	assert.Equal(t, "top.inst", name)

	id, ok := c.GetInstanceID("top.inst")
	require.True(t, ok)
	assert.EqualValues(t, 2, id)

	assert.ElementsMatch(t, []string{"top", "top.inst"}, c.GetInstanceNames())
}

func TestClient_GetContextVariables_ResolveHierarchy(t *testing.T) {
	c, err := Open(sampleTables(), nil)
	require.NoError(t, err)

	vars, ok := c.GetContextVariables(1, false)
	require.True(t, ok)
	assert.Equal(t, "sig_a", vars[0].Var.Value)

	resolved, ok := c.GetContextVariables(1, true)
	require.True(t, ok)
	assert.Equal(t, "top.inst.sig_a", resolved[0].Var.Value, "RTL variable gets the owning instance prefix")
	assert.Equal(t, "42", resolved[1].Var.Value, "non-RTL literal is left untouched")
}

func TestClient_GetGeneratorVariable_ResolveHierarchy(t *testing.T) {
	c, err := Open(sampleTables(), nil)
	require.NoError(t, err)

	resolved, ok := c.GetGeneratorVariable(2, true)
	require.True(t, ok)
	assert.Equal(t, "8", resolved[0].Var.Value)
}

func TestClient_GetAllSignalNames(t *testing.T) {
	c, err := Open(sampleTables(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"sig_a"}, c.GetAllSignalNames())
}

func TestClient_GetAnnotationValues(t *testing.T) {
	c, err := Open(sampleTables(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, c.GetAnnotationValues("note"))
	assert.Empty(t, c.GetAnnotationValues("missing"))
}

func TestClient_UseBaseName(t *testing.T) {
	c, err := Open(sampleTables(), nil)
	require.NoError(t, err)
	assert.True(t, c.UseBaseName())
}

func TestClient_ResolveScopedName(t *testing.T) {
	c, err := Open(sampleTables(), nil)
	require.NoError(t, err)

	resolved, ok := c.ResolveScopedNameBreakpoint(1, "sig_b")
	require.True(t, ok)
	assert.Equal(t, "top.inst.sig_b", resolved)

	resolved, ok = c.ResolveScopedNameInstance(2, "top.inst.sig_b")
	require.True(t, ok)
	assert.Equal(t, "top.inst.sig_b", resolved, "already-scoped name is left alone")
}

func TestClient_FilenameRemap(t *testing.T) {
	c, err := Open(sampleTables(), map[string]string{"dut.sv": "/src/dut.sv"})
	require.NoError(t, err)

	assert.Equal(t, "/src/dut.sv", c.ResolveFilenameToClient("dut.sv"))
	assert.Equal(t, "dut.sv", c.ResolveFilenameToDB("/src/dut.sv"))
}

func TestClient_ExecutionOrder(t *testing.T) {
	c, err := Open(sampleTables(), nil)
	require.NoError(t, err)
	assert.Equal(t, []hwmodel.BreakpointID{1, 2}, c.ExecutionOrder())
}
