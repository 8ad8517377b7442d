package symtab

import (
	"sort"

	"github.com/hgdb-go/hgdb/internal/hwmodel"
)

// computeExecutionOrder implements spec.md §4.2's two-path ordering
// rule: flatten the scope tree in pre-order when present, otherwise
// fall back to the deterministic grouping heuristic.
func computeExecutionOrder(t *Tables) []hwmodel.BreakpointID {
	if len(t.Scopes) > 0 {
		return flattenScopes(t)
	}
	return orderFromBreakpoints(t.Breakpoints)
}

// flattenScopes walks the scope tree in pre-order, collecting each
// visited scope's breakpoint ids in the order they appear on the
// scope.
func flattenScopes(t *Tables) []hwmodel.BreakpointID {
	var order []hwmodel.BreakpointID
	var visit func(id ScopeID)
	visit = func(id ScopeID) {
		scope, ok := t.Scopes[id]
		if !ok {
			return
		}
		order = append(order, scope.BreakpointIDs...)
		for _, childID := range scope.Children {
			visit(childID)
		}
	}
	for _, rootID := range t.ScopeRoots {
		visit(rootID)
	}
	return order
}

// orderFromBreakpoints builds the fallback ordering when no scope
// table is available: group by (filename, instance_id); within each
// group sort by (line_num, column_num, id); across groups, order by
// first appearance of the instance in the breakpoint list. This is
// the heuristic described in spec.md §4.2 and §9 ("intentionally
// non-optimal but deterministic").
func orderFromBreakpoints(bps []hwmodel.BreakPoint) []hwmodel.BreakpointID {
	type groupKey struct {
		filename   string
		instanceID hwmodel.InstanceID
	}

	groups := map[groupKey][]hwmodel.BreakPoint{}
	var groupOrder []groupKey
	seen := map[groupKey]bool{}

	for _, bp := range bps {
		key := groupKey{filename: bp.Filename, instanceID: bp.InstanceID}
		if !seen[key] {
			seen[key] = true
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], bp)
	}

	var order []hwmodel.BreakpointID
	for _, key := range groupOrder {
		group := groups[key]
		sort.Slice(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if a.Line != b.Line {
				return a.Line < b.Line
			}
			if a.Column != b.Column {
				return a.Column < b.Column
			}
			return a.ID < b.ID
		})
		for _, bp := range group {
			order = append(order, bp.ID)
		}
	}
	return order
}
