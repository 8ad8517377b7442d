package symtab

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
)

// gobDocument mirrors the Tables fields gob can encode directly; the
// Scopes map's pointer values need no special handling since gob
// follows pointers transparently.
type gobDocument struct {
	Tables *Tables
}

// SaveGob writes tables to path as a single gob-encoded document, in
// the append-only-encoder style of tracer/storage/symbols.go, except
// the symbol table is written once in full rather than as a log of
// appended records.
func SaveGob(path string, tables *Tables) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "symtab: create gob file")
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	if err := enc.Encode(gobDocument{Tables: tables}); err != nil {
		return errors.Wrap(err, "symtab: encode gob document")
	}
	return nil
}

// LoadGob reads a symbol table previously written by SaveGob.
func LoadGob(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "symtab: open gob file")
	}
	defer f.Close()

	var doc gobDocument
	dec := gob.NewDecoder(f)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "symtab: decode gob document")
	}
	if doc.Tables == nil {
		return nil, errors.New("symtab: gob document has no tables")
	}
	return doc.Tables, nil
}
