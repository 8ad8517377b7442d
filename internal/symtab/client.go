package symtab

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/hgdb-go/hgdb/internal/hwmodel"
)

// Client is the read-only query surface over one opened symbol table
// (spec.md §4.2, component B). All queries are served from in-memory
// indexes built once at Open; the underlying Tables are never mutated
// afterward, but the mutex still guards concurrent readers against
// SetSrcMapping replacing the source remap table (matching the
// locking granularity of
// tracer/storage/storage.go's Storage).
type Client struct {
	mu sync.Mutex

	tables *Tables
	srcMap *srcMapping

	byID           map[hwmodel.BreakpointID]hwmodel.BreakPoint
	byFile         map[string][]hwmodel.BreakpointID
	byInstanceID   map[hwmodel.InstanceID]hwmodel.Instance
	byInstanceName map[string]hwmodel.InstanceID

	execOrder []hwmodel.BreakpointID
	useBase   bool
}

// Open builds a Client over an already-loaded Tables value. The
// symbol table's own persistence format (gob or sqlite, see
// gobstore.go and sqlitestore.go) is responsible for producing the
// Tables; Open only computes the derived indexes.
func Open(tables *Tables, srcMap map[string]string) (*Client, error) {
	if tables == nil {
		return nil, errors.New("symtab: nil tables")
	}

	c := &Client{
		tables:         tables,
		srcMap:         newSrcMapping(srcMap),
		byID:           map[hwmodel.BreakpointID]hwmodel.BreakPoint{},
		byFile:         map[string][]hwmodel.BreakpointID{},
		byInstanceID:   map[hwmodel.InstanceID]hwmodel.Instance{},
		byInstanceName: map[string]hwmodel.InstanceID{},
	}

	for _, bp := range tables.Breakpoints {
		if _, dup := c.byID[bp.ID]; dup {
			return nil, errors.Errorf("symtab: duplicate breakpoint id %d", bp.ID)
		}
		c.byID[bp.ID] = bp
		c.byFile[bp.Filename] = append(c.byFile[bp.Filename], bp.ID)
	}
	for file, ids := range c.byFile {
		sort.Slice(ids, func(i, j int) bool {
			a, b := c.byID[ids[i]], c.byID[ids[j]]
			if a.Line != b.Line {
				return a.Line < b.Line
			}
			return a.Column < b.Column
		})
		c.byFile[file] = ids
	}
	for _, inst := range tables.Instances {
		if _, dup := c.byInstanceID[inst.ID]; dup {
			return nil, errors.Errorf("symtab: duplicate instance id %d", inst.ID)
		}
		c.byInstanceID[inst.ID] = inst
		c.byInstanceName[inst.Name] = inst.ID
	}

	c.execOrder = computeExecutionOrder(tables)
	c.useBase = computeUseBaseName(tables.Breakpoints)

	return c, nil
}

// GetBreakpoints returns every breakpoint in the named file, or the
// ones that also match line and/or column when provided. line == 0
// means "any line"; col == 0 means "any column" (breakpoints are
// 1-indexed in both dimensions, so 0 is never a real value).
func (c *Client) GetBreakpoints(filename string, line, col uint32) []hwmodel.BreakPoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	dbFile := c.srcMap.toDB(filename)
	if c.useBase {
		dbFile = baseName(dbFile)
	}

	var out []hwmodel.BreakPoint
	for _, id := range c.byFile[dbFile] {
		bp := c.byID[id]
		if line != 0 && bp.Line != line {
			continue
		}
		if col != 0 && bp.Column != col {
			continue
		}
		out = append(out, bp)
	}
	return out
}

// GetBreakpoint looks up a single breakpoint by id.
func (c *Client) GetBreakpoint(id hwmodel.BreakpointID) (hwmodel.BreakPoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bp, ok := c.byID[id]
	return bp, ok
}

// GetInstanceNameFromBP returns the hierarchical name of the instance
// owning bp.
func (c *Client) GetInstanceNameFromBP(bp hwmodel.BreakPoint) (string, bool) {
	return c.GetInstanceName(bp.InstanceID)
}

// GetInstanceName returns the hierarchical name of instance id.
func (c *Client) GetInstanceName(id hwmodel.InstanceID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst, ok := c.byInstanceID[id]
	if !ok {
		return "", false
	}
	return inst.Name, true
}

// GetInstanceID is the inverse of GetInstanceName.
func (c *Client) GetInstanceID(name string) (hwmodel.InstanceID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byInstanceName[name]
	return id, ok
}

// GetInstanceNames returns every known instance's hierarchical name.
func (c *Client) GetInstanceNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.byInstanceName))
	for name := range c.byInstanceName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GetContextVariables returns the context variables bound at bp. When
// resolveHierarchy is true, an RTL-valued variable's relative signal
// name is rewritten to its full hierarchical form by prefixing it with
// the owning instance's name, matching spec.md §4.2's
// "get_context_variables ... resolve_hierarchy" behavior: the rewrite
// applies to the variable's binding target, since a non-RTL Variable's
// Value is a literal with no hierarchical form.
func (c *Client) GetContextVariables(id hwmodel.BreakpointID, resolveHierarchy bool) ([]hwmodel.ContextVariable, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bp, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	vars := c.tables.ContextVariables[id]
	if !resolveHierarchy {
		return vars, true
	}

	inst, ok := c.byInstanceID[bp.InstanceID]
	out := make([]hwmodel.ContextVariable, len(vars))
	for i, cv := range vars {
		out[i] = cv
		if ok && cv.Var.IsRTL {
			out[i].Var.Value = inst.Name + "." + cv.Var.Value
		}
	}
	return out, true
}

// GetGeneratorVariable returns the generator (parameter) variables
// bound to instance id, with the same resolveHierarchy rewrite as
// GetContextVariables.
func (c *Client) GetGeneratorVariable(id hwmodel.InstanceID, resolveHierarchy bool) ([]hwmodel.GeneratorVariable, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst, ok := c.byInstanceID[id]
	if !ok {
		return nil, false
	}
	vars := c.tables.GeneratorVariables[id]
	if !resolveHierarchy {
		return vars, true
	}

	out := make([]hwmodel.GeneratorVariable, len(vars))
	for i, gv := range vars {
		out[i] = gv
		if gv.Var.IsRTL {
			out[i].Var.Value = inst.Name + "." + gv.Var.Value
		}
	}
	return out, true
}

// GetAllSignalNames returns the union, across every breakpoint's
// context variables, of the RTL-valued variable names bound anywhere
// in the symbol table, deduplicated and sorted.
func (c *Client) GetAllSignalNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := map[string]bool{}
	for _, vars := range c.tables.ContextVariables {
		for _, cv := range vars {
			if cv.Var.IsRTL {
				set[cv.Var.Value] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GetAnnotationValues returns the annotation values recorded under
// key, in symbol-table order.
func (c *Client) GetAnnotationValues(key string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tables.Annotations[key]
}

// ExecutionOrder returns the breakpoint evaluation order computed at
// Open (spec.md §4.2).
func (c *Client) ExecutionOrder() []hwmodel.BreakpointID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]hwmodel.BreakpointID, len(c.execOrder))
	copy(out, c.execOrder)
	return out
}

// UseBaseName reports whether filenames are matched by base name only
// (spec.md §4.2: true when every stored filename is relative, i.e.
// carries no directory component).
func (c *Client) UseBaseName() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.useBase
}

// ResolveScopedNameBreakpoint resolves a "instance.signal"-style
// scoped name against the instance that owns bp, returning the full
// hierarchical signal name.
func (c *Client) ResolveScopedNameBreakpoint(id hwmodel.BreakpointID, scoped string) (string, bool) {
	c.mu.Lock()
	bp, ok := c.byID[id]
	c.mu.Unlock()
	if !ok {
		return "", false
	}
	return c.ResolveScopedNameInstance(bp.InstanceID, scoped)
}

// ResolveScopedNameInstance resolves scoped against instance id's
// hierarchical name.
func (c *Client) ResolveScopedNameInstance(id hwmodel.InstanceID, scoped string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst, ok := c.byInstanceID[id]
	if !ok {
		return "", false
	}
	if strings.HasPrefix(scoped, inst.Name+".") || scoped == inst.Name {
		return scoped, true
	}
	return inst.Name + "." + scoped, true
}

// ResolveFilenameToDB rewrites a client-side filename to its DB-side
// form using the configured source remap.
func (c *Client) ResolveFilenameToDB(clientPath string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.srcMap.toDB(clientPath)
}

// ResolveFilenameToClient rewrites a DB-side filename to its
// client-side form using the configured source remap.
func (c *Client) ResolveFilenameToClient(dbPath string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.srcMap.toClient(dbPath)
}

// SetSrcMapping replaces the source remap table in effect.
func (c *Client) SetSrcMapping(m map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.srcMap = newSrcMapping(m)
}
