package symtab

import "github.com/hgdb-go/hgdb/internal/hwmodel"

// ScopeID identifies a node in the optional scope tree (spec.md §3,
// "Execution order"). A zero ScopeID denotes "no parent" / the root.
type ScopeID uint64

// Scope is one node of the symbol table's optional scope tree: a
// module, always-block, or generate-for body. Pre-order flattening of
// the scope tree yields the execution order when the symbol table
// provides one (spec.md §4.2, step 1). The scope tree is strictly a
// tree; instance hierarchy uses parent-index references rather than
// pointer cycles, so there is nothing to guard against re-visiting.
type Scope struct {
	ID            ScopeID
	ParentID      ScopeID
	InstanceID    hwmodel.InstanceID
	BreakpointIDs []hwmodel.BreakpointID
	Children      []ScopeID
}

// Tables is the full content of one symbol-table file: the six
// required tables from spec.md §6 plus the optional scope table.
type Tables struct {
	Breakpoints []hwmodel.BreakPoint
	Instances   []hwmodel.Instance

	// ContextVariables is keyed by the owning BreakPoint's id.
	ContextVariables map[hwmodel.BreakpointID][]hwmodel.ContextVariable
	// GeneratorVariables is keyed by the owning Instance's id.
	GeneratorVariables map[hwmodel.InstanceID][]hwmodel.GeneratorVariable

	// Annotations is keyed by annotation name.
	Annotations map[string][]string

	// Scopes is nil when the symbol table does not supply scope
	// metadata, in which case execution order falls back to the
	// heuristic in spec.md §4.2.
	Scopes     map[ScopeID]*Scope
	ScopeRoots []ScopeID
}

// NewTables returns an empty Tables with its maps initialized.
func NewTables() *Tables {
	return &Tables{
		ContextVariables:   map[hwmodel.BreakpointID][]hwmodel.ContextVariable{},
		GeneratorVariables: map[hwmodel.InstanceID][]hwmodel.GeneratorVariable{},
		Annotations:        map[string][]string{},
	}
}
