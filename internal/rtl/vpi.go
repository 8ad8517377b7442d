package rtl

// VPI is the low-level binding to the simulator's procedural
// interface, mirroring the original AVPIProvider seam: a thin,
// directly-testable wrapper around the handful of C entry points the
// rest of this package needs. Production code wires a cgo-backed
// implementation; tests wire a fake.
type VPI interface {
	// ModuleChildren returns the direct module children of scope.
	// Passing a nil scope enumerates the top-level modules.
	ModuleChildren(scope Handle) []Handle
	// DefName returns a module handle's design-definition name
	// (vpiDefName).
	DefName(h Handle) string
	// FullName returns a module handle's full hierarchical path
	// (vpiFullName).
	FullName(h Handle) string
	// HandleByName resolves a full hierarchical name to a handle.
	HandleByName(name string) (Handle, bool)
	// IterateNets enumerates the net-like children of a module handle
	// (vpiNet, or vpiReg under the Verilator quirk) together with
	// their local names.
	IterateNets(module Handle, kind NetIterKind) map[string]Handle
	// IsModule reports whether h refers to a module (vpiModule).
	IsModule(h Handle) bool
	// GetValue reads a handle's scalar value as vpiIntVal. ok is
	// false for x/z or otherwise unreadable values.
	GetValue(h Handle) (value int64, ok bool)
	// SimulationTime returns vpiSimTime.
	SimulationTime() uint64
	// Product returns vlog_info.product.
	Product() string
	// Argv returns vlog_info.argv.
	Argv() []string
	// RegisterCallback arms a value-change callback on h. ok is false
	// if registration failed; failures are not retried.
	RegisterCallback(h Handle, cb ValueChangeCallback) (cbHandle Handle, ok bool)
	// RemoveCallback disarms a previously registered callback.
	RemoveCallback(cbHandle Handle)
	// Control issues vpiStop or vpiFinish.
	Control(op ControlOp)
}

// ControlOp selects a vpi_control operation.
type ControlOp int

const (
	ControlStop ControlOp = iota
	ControlFinish
)
