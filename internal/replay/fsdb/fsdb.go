// Package fsdb stubs the FSDB waveform backend: FSDB is a proprietary
// binary format readable only through a vendor SDK (the ffrAPI
// headers the original implementation links against), which this
// module cannot vendor. Reader implements replay.Waveform so the rest
// of the replay engine can be built and tested against it, but every
// query that would require decoding the file itself reports
// replay.ErrNotImplemented, matching spec.md §9's open question: the
// original's get_signal_value on FSDB constructs a traversal handle
// and never returns a value, and this module does not invent the
// missing semantics.
package fsdb

import (
	"github.com/hgdb-go/hgdb/internal/replay"
)

// Reader is a placeholder replay.Waveform backed by an FSDB file path
// that is never actually opened. A future implementation wiring a
// cgo binding to the vendor reader library would replace this with a
// real parser built on the same tree-walk shape as
// original_source/tools/fsdb/fsdb.cc's parse_var_def callback
// (scope/struct/var push-pop over a stack, producing the same
// Instance/Signal records the VCD backend produces).
type Reader struct {
	path string
}

// Open records path for a future real implementation; it performs no
// I/O today, since there's nothing in this module that can decode an
// FSDB file.
func Open(path string) (*Reader, error) {
	return &Reader{path: path}, nil
}

func (r *Reader) GetInstanceID(name string) (uint64, bool) { return 0, false }
func (r *Reader) GetSignalID(name string) (uint64, bool)   { return 0, false }
func (r *Reader) GetInstanceSignals(instanceID uint64) []uint64 { return nil }
func (r *Reader) GetChildInstances(instanceID uint64) []uint64  { return nil }
func (r *Reader) GetSignal(signalID uint64) (replay.Signal, bool) {
	return replay.Signal{}, false
}
func (r *Reader) GetInstance(instanceID uint64) (replay.Instance, bool) {
	return replay.Instance{}, false
}

// GetSignalValue always fails: see the package comment.
func (r *Reader) GetSignalValue(signalID uint64, t uint64) (string, error) {
	return "", replay.ErrNotImplemented
}

var _ replay.Waveform = (*Reader)(nil)
