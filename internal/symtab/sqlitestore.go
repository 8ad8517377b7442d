package symtab

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/hgdb-go/hgdb/internal/hwmodel"
)

// LoadSqlite opens the symbol table stored in a SQLite file, the
// production format the original implementation reads (spec.md §3),
// and materializes it into a Tables value. It reads five tables
// (breakpoint, instance, context_variable, generator_variable,
// annotation) plus the optional scope table; each variable's value and
// is_rtl flag are read from columns of the context_variable and
// generator_variable rows, and no separate variable table is read. A database
// missing the scope table simply yields a Tables with Scopes == nil,
// which falls back to the heuristic ordering in order.go.
func LoadSqlite(path string) (*Tables, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, errors.Wrap(err, "symtab: open sqlite db")
	}
	defer db.Close()

	tables := NewTables()

	if err := loadBreakpoints(db, tables); err != nil {
		return nil, err
	}
	if err := loadInstances(db, tables); err != nil {
		return nil, err
	}
	if err := loadContextVariables(db, tables); err != nil {
		return nil, err
	}
	if err := loadGeneratorVariables(db, tables); err != nil {
		return nil, err
	}
	if err := loadAnnotations(db, tables); err != nil {
		return nil, err
	}
	if err := loadScopes(db, tables); err != nil {
		return nil, err
	}

	return tables, nil
}

func loadBreakpoints(db *sql.DB, tables *Tables) error {
	rows, err := db.Query(`SELECT id, instance_id, filename, line_num, column_num, condition FROM breakpoint`)
	if err != nil {
		return errors.Wrap(err, "symtab: query breakpoint")
	}
	defer rows.Close()

	for rows.Next() {
		var bp hwmodel.BreakPoint
		var cond sql.NullString
		if err := rows.Scan(&bp.ID, &bp.InstanceID, &bp.Filename, &bp.Line, &bp.Column, &cond); err != nil {
			return errors.Wrap(err, "symtab: scan breakpoint")
		}
		bp.Condition = cond.String
		tables.Breakpoints = append(tables.Breakpoints, bp)
	}
	return rows.Err()
}

func loadInstances(db *sql.DB, tables *Tables) error {
	rows, err := db.Query(`SELECT id, name FROM instance`)
	if err != nil {
		return errors.Wrap(err, "symtab: query instance")
	}
	defer rows.Close()

	for rows.Next() {
		var inst hwmodel.Instance
		if err := rows.Scan(&inst.ID, &inst.Name); err != nil {
			return errors.Wrap(err, "symtab: scan instance")
		}
		tables.Instances = append(tables.Instances, inst)
	}
	return rows.Err()
}

func loadContextVariables(db *sql.DB, tables *Tables) error {
	rows, err := db.Query(`SELECT breakpoint_id, name, value, is_rtl FROM context_variable`)
	if err != nil {
		return errors.Wrap(err, "symtab: query context_variable")
	}
	defer rows.Close()

	for rows.Next() {
		var bpID hwmodel.BreakpointID
		var cv hwmodel.ContextVariable
		if err := rows.Scan(&bpID, &cv.Name, &cv.Var.Value, &cv.Var.IsRTL); err != nil {
			return errors.Wrap(err, "symtab: scan context_variable")
		}
		tables.ContextVariables[bpID] = append(tables.ContextVariables[bpID], cv)
	}
	return rows.Err()
}

func loadGeneratorVariables(db *sql.DB, tables *Tables) error {
	rows, err := db.Query(`SELECT instance_id, name, value, is_rtl FROM generator_variable`)
	if err != nil {
		return errors.Wrap(err, "symtab: query generator_variable")
	}
	defer rows.Close()

	for rows.Next() {
		var instID hwmodel.InstanceID
		var gv hwmodel.GeneratorVariable
		if err := rows.Scan(&instID, &gv.Name, &gv.Var.Value, &gv.Var.IsRTL); err != nil {
			return errors.Wrap(err, "symtab: scan generator_variable")
		}
		tables.GeneratorVariables[instID] = append(tables.GeneratorVariables[instID], gv)
	}
	return rows.Err()
}

func loadAnnotations(db *sql.DB, tables *Tables) error {
	rows, err := db.Query(`SELECT name, value FROM annotation`)
	if err != nil {
		return errors.Wrap(err, "symtab: query annotation")
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return errors.Wrap(err, "symtab: scan annotation")
		}
		tables.Annotations[name] = append(tables.Annotations[name], value)
	}
	return rows.Err()
}

// loadScopes loads the optional scope table. Databases produced by
// tools that never populate it (no "scope" table at all) are not an
// error: Tables.Scopes stays nil and execution order falls back to
// the heuristic.
func loadScopes(db *sql.DB, tables *Tables) error {
	var hasScope int
	err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='scope'`).Scan(&hasScope)
	if err != nil {
		return errors.Wrap(err, "symtab: query sqlite_master")
	}
	if hasScope == 0 {
		return nil
	}

	scopeRows, err := db.Query(`SELECT id, parent_id, instance_id FROM scope ORDER BY id`)
	if err != nil {
		return errors.Wrap(err, "symtab: query scope")
	}
	defer scopeRows.Close()

	tables.Scopes = map[ScopeID]*Scope{}
	for scopeRows.Next() {
		var s Scope
		var parentID sql.NullInt64
		if err := scopeRows.Scan(&s.ID, &parentID, &s.InstanceID); err != nil {
			return errors.Wrap(err, "symtab: scan scope")
		}
		if parentID.Valid {
			s.ParentID = ScopeID(parentID.Int64)
		}
		tables.Scopes[s.ID] = &s
	}
	if err := scopeRows.Err(); err != nil {
		return err
	}

	bpRows, err := db.Query(`SELECT scope_id, breakpoint_id FROM scope_breakpoint ORDER BY scope_id, ordinal`)
	if err != nil {
		return errors.Wrap(err, "symtab: query scope_breakpoint")
	}
	defer bpRows.Close()

	for bpRows.Next() {
		var scopeID ScopeID
		var bpID hwmodel.BreakpointID
		if err := bpRows.Scan(&scopeID, &bpID); err != nil {
			return errors.Wrap(err, "symtab: scan scope_breakpoint")
		}
		if s, ok := tables.Scopes[scopeID]; ok {
			s.BreakpointIDs = append(s.BreakpointIDs, bpID)
		}
	}
	if err := bpRows.Err(); err != nil {
		return err
	}

	for id, s := range tables.Scopes {
		if s.ParentID == 0 {
			tables.ScopeRoots = append(tables.ScopeRoots, id)
			continue
		}
		if parent, ok := tables.Scopes[s.ParentID]; ok {
			parent.Children = append(parent.Children, id)
		}
	}
	return nil
}
