// Package rtl abstracts the simulator's procedural interface
// (spec.md §4.1, component A). It computes hierarchy prefixes, caches
// handles, and translates scoped names ("instance.signal") into full
// hierarchical paths. Two implementations satisfy Provider: a native
// binding over a pluggable VPI seam (this package) and a replay
// binding driven from a waveform database (internal/replay).
package rtl

// Handle is an opaque reference to a signal, register, or module in
// the design, as returned by the underlying procedural interface.
// Callers never inspect its contents.
type Handle interface{}

// NetIterKind selects which kind of net-like object to enumerate
// inside a module, resolving the Verilator quirk described in
// spec.md §4.1: "the net iterator type differs: if the product
// string is 'Verilator', iterate registers; otherwise iterate nets."
type NetIterKind int

const (
	IterNets NetIterKind = iota
	IterRegs
)

// ValueChangeCallback is invoked synchronously with the new value and
// the simulation time at which it changed.
type ValueChangeCallback func(value int64, ok bool, simTime uint64)

// Provider is the capability set spec.md §4.1 requires: enumerate
// modules, iterate nets/regs in a module, get a scalar value by
// handle, resolve a handle by full name, get simulation time, get the
// simulator product string, register/remove a value-change callback,
// and stop/finish the simulation.
//
// No operation on Provider panics; a missing handle or unreadable
// value surfaces as (zero-value, false) rather than an error, per
// spec.md §4.1's "Failure semantics": "No operation throws; missing
// handles and unreadable values return absence."
type Provider interface {
	// GetFullName splits scoped at the first separator into
	// (top, tail). If top is not a known hierarchy-prefix target, the
	// input is returned unchanged. This never fails.
	GetFullName(scoped string) string

	// GetHandle resolves scoped to a Handle, consulting and
	// populating the handle cache.
	GetHandle(scoped string) (Handle, bool)

	// GetValue reads a handle's current value as a 64-bit integer.
	// x/z or otherwise unavailable values return (0, false).
	GetValue(h Handle) (int64, bool)

	// GetValueByName is GetHandle followed by GetValue.
	GetValueByName(scoped string) (int64, bool)

	// GetModuleSignals returns the net/reg handles of a module,
	// keyed by their local (unscoped) name.
	GetModuleSignals(moduleScoped string) map[string]Handle

	// GetSimulationTime returns the current simulation time.
	GetSimulationTime() uint64

	// GetSimulatorProduct returns the simulator's product string, as
	// reported by the procedural interface (e.g. "Verilator").
	GetSimulatorProduct() string

	// GetArgv returns the simulator's command-line arguments,
	// including plus-args such as "+DEBUG_PORT=9000".
	GetArgv() []string

	// IsVerilator reports whether the net iterator quirk is active.
	IsVerilator() bool

	// RegisterValueChangeCallback arms cb to fire whenever h's value
	// changes. Failure returns (nil, false) and is not retried.
	RegisterValueChangeCallback(h Handle, cb ValueChangeCallback) (Handle, bool)

	// RemoveCallback disarms a previously registered callback.
	RemoveCallback(cbHandle Handle)

	// Stop pauses the simulation (vpiStop).
	Stop()

	// Finish terminates the simulation (vpiFinish).
	Finish()
}

// SplitScoped splits name at its first separator into (top, tail),
// matching RTLSimulatorClient::get_path in the original implementation.
func SplitScoped(name string) (top, tail string) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}
