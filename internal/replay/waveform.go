// Package replay drives the RTL interface from a recorded waveform
// instead of a live simulator (spec.md §4.3, component C). Two
// concrete backends — VCD (internal/replay/vcd) and FSDB
// (internal/replay/fsdb) — implement the same Waveform trait; Engine
// schedules value-change callbacks from whichever backend it is given.
package replay

import "errors"

// ErrNotImplemented is returned by waveform operations that the
// backend cannot serve. Only the FSDB backend's GetSignalValue
// returns this, by design (spec.md §9's open question: the vendor
// reader's traversal-handle construction was never completed upstream
// and no replacement semantics should be invented here).
var ErrNotImplemented = errors.New("replay: not implemented")

// Instance is one design-hierarchy node recorded in a waveform file.
type Instance struct {
	ID   uint64
	Name string
}

// Signal is one recorded value-change stream.
type Signal struct {
	ID    uint64
	Name  string
	Width uint32
}

// Waveform is the opaque database trait spec.md §4.3 requires: the
// engine never inspects the concrete file format behind it.
type Waveform interface {
	GetInstanceID(name string) (uint64, bool)
	GetSignalID(name string) (uint64, bool)
	GetInstanceSignals(instanceID uint64) []uint64
	GetChildInstances(instanceID uint64) []uint64
	GetSignal(signalID uint64) (Signal, bool)
	GetInstance(instanceID uint64) (Instance, bool)
	GetSignalValue(signalID uint64, t uint64) (string, error)
}

// ChangeTimeline is an optional capability a Waveform backend can
// implement to let Engine drive scheduling directly from its own
// parsed change log instead of probing GetSignalValue at every
// candidate timestamp. The VCD backend implements it; the FSDB stub
// does not, since it never parses a full change log (see
// internal/replay/fsdb).
type ChangeTimeline interface {
	// ChangeTimes returns, in ascending order, every timestamp at
	// which signalID's value changes.
	ChangeTimes(signalID uint64) []uint64
}
