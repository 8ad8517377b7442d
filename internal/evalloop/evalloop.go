// Package evalloop implements the breakpoint evaluator (spec.md §4.4,
// component D): the active-breakpoint list, guard composition, and
// the per-tick algorithm that binds symbols through the RTL interface
// and fires hits.
package evalloop

import (
	"sort"
	"strconv"
	"sync"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"

	"github.com/hgdb-go/hgdb/internal/expr"
	"github.com/hgdb-go/hgdb/internal/hwmodel"
	"github.com/hgdb-go/hgdb/internal/rtl"
	"github.com/hgdb-go/hgdb/internal/symtab"
)

// Mode selects how NextBreakpoint walks the active set, per spec.md
// §4.4.
type Mode int

const (
	BreakPointOnly Mode = iota
	StepOver
)

// DebugBreakPoint is one entry in the active list: a compiled guard
// (D.condition AND the user's condition) plus the DB-native
// enable_expr used when stepping.
type DebugBreakPoint struct {
	ID          hwmodel.BreakpointID
	InstanceID  hwmodel.InstanceID
	Guard       expr.Guard
	EnableGuard expr.Guard
}

// HitSink receives breakpoint hits. Implementations (internal/session)
// are expected to block inside OnHit until the client responds,
// matching spec.md §5's "the evaluator may only suspend from inside
// the per-tick algorithm at step 5" — the suspension point lives in
// the sink, not in Evaluator itself, so the evaluator never needs to
// know about the session latch directly.
type HitSink interface {
	OnHit(Hit)
}

// Hit is the snapshot emitted when a breakpoint's guard evaluates
// true (spec.md §4.4, "Hit snapshot").
type Hit struct {
	Time         uint64
	BreakpointID hwmodel.BreakpointID
	InstanceID   hwmodel.InstanceID
	InstanceName string
	Filename     string
	Line         uint32
	Column       uint32
	Locals       map[string]string
	Generators   map[string]string
}

// Logger receives diagnostic messages for breakpoint evaluation
// errors (spec.md §7: "logs and continues to the next breakpoint").
type Logger interface {
	Errorf(format string, args ...interface{})
}

// Evaluator holds the mutex-guarded active list and drives one tick
// at a time, grounded on tracer/simulator.StateSimulator's
// lock-then-advance shape.
type Evaluator struct {
	mu sync.Mutex

	symtab *symtab.Client
	rtl    rtl.Provider
	log    Logger

	mode     Mode
	active   []DebugBreakPoint
	inserted mapset.Set // hwmodel.BreakpointID values currently in active

	evaluatedIDs map[hwmodel.BreakpointID]bool
	currentID    *hwmodel.BreakpointID
	stepScratch  DebugBreakPoint
}

// New builds an Evaluator over an opened symbol table and a live (or
// replay) RTL provider.
func New(st *symtab.Client, provider rtl.Provider, log Logger) *Evaluator {
	return &Evaluator{
		symtab:       st,
		rtl:          provider,
		log:          log,
		mode:         BreakPointOnly,
		inserted:     mapset.NewSet(),
		evaluatedIDs: map[hwmodel.BreakpointID]bool{},
	}
}

// SetMode changes the evaluation mode directly, used by `step_over`
// (switches to StepOver) and by breakpoint add/remove (reverts to
// BreakPointOnly); `continue` leaves the mode unchanged.
func (e *Evaluator) SetMode(m Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = m
}

// Mode reports the current evaluation mode.
func (e *Evaluator) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// AddBreakpoint implements spec.md §4.4's dedup-by-id add: a new id is
// appended and the list is re-sorted by execution order; a repeat add
// for an existing id only refreshes its composed guard. dbBP is the
// matching symbol-table record; userCondition is the client-supplied
// extra condition (may be empty). Adding reverts the mode to
// BreakPointOnly on the next tick, per spec.md §4.4's mode-transition
// rule — callers apply that by calling SetMode(BreakPointOnly)
// after each add or remove.
func (e *Evaluator) AddBreakpoint(dbBP hwmodel.BreakPoint, userCondition string) error {
	composed := expr.And(dbBP.Condition, userCondition)
	guard, err := expr.Compile(composed)
	if err != nil {
		return errors.Wrapf(err, "evalloop: compile guard for breakpoint %d", dbBP.ID)
	}
	enable, err := expr.Compile(dbBP.Condition)
	if err != nil {
		return errors.Wrapf(err, "evalloop: compile enable_expr for breakpoint %d", dbBP.ID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inserted.Contains(dbBP.ID) {
		for i := range e.active {
			if e.active[i].ID == dbBP.ID {
				e.active[i].Guard = guard
				return nil
			}
		}
		return nil
	}

	e.active = append(e.active, DebugBreakPoint{
		ID:          dbBP.ID,
		InstanceID:  dbBP.InstanceID,
		Guard:       guard,
		EnableGuard: enable,
	})
	e.inserted.Add(dbBP.ID)
	e.reorderLocked()
	return nil
}

// RemoveBreakpoint drops id from the active list; removal needs no
// re-sort (spec.md §4.4).
func (e *Evaluator) RemoveBreakpoint(id hwmodel.BreakpointID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, bp := range e.active {
		if bp.ID == id {
			e.active = append(e.active[:i], e.active[i+1:]...)
			e.inserted.Remove(id)
			return
		}
	}
}

// ActiveBreakpoints returns a snapshot of the active list's ids, in
// current order, for the `debugger_info` request.
func (e *Evaluator) ActiveBreakpoints() []hwmodel.BreakpointID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]hwmodel.BreakpointID, len(e.active))
	for i, bp := range e.active {
		out[i] = bp.ID
	}
	return out
}

func (e *Evaluator) reorderLocked() {
	order := e.symtab.ExecutionOrder()
	index := make(map[hwmodel.BreakpointID]int, len(order))
	for i, id := range order {
		index[id] = i
	}
	sort.SliceStable(e.active, func(i, j int) bool {
		return index[e.active[i].ID] < index[e.active[j].ID]
	})
}

// StartTick resets the per-tick evaluation state (spec.md §4.4 step
// 1), called once before the first NextBreakpoint of a new evaluation
// cycle.
func (e *Evaluator) StartTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evaluatedIDs = map[hwmodel.BreakpointID]bool{}
	e.currentID = nil
}

// NextBreakpoint implements spec.md §4.4 step 2: the mode-dependent
// selection rule. It returns (nil, false) when there is nothing left
// to evaluate this tick.
func (e *Evaluator) NextBreakpoint() (*DebugBreakPoint, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.mode {
	case BreakPointOnly:
		return e.nextBreakPointOnlyLocked()
	case StepOver:
		return e.nextStepOverLocked()
	default:
		return nil, false
	}
}

func (e *Evaluator) nextBreakPointOnlyLocked() (*DebugBreakPoint, bool) {
	var pos int
	found := false
	for i, bp := range e.active {
		if e.evaluatedIDs[bp.ID] {
			pos = i
			found = true
		}
	}
	index := 0
	if found {
		if pos+1 >= len(e.active) {
			return nil, false
		}
		index = pos + 1
	}
	if index >= len(e.active) {
		return nil, false
	}
	bp := e.active[index]
	id := bp.ID
	e.currentID = &id
	e.evaluatedIDs[id] = true
	return &bp, true
}

func (e *Evaluator) nextStepOverLocked() (*DebugBreakPoint, bool) {
	order := e.symtab.ExecutionOrder()
	var nextID hwmodel.BreakpointID
	haveNext := false

	if e.currentID == nil {
		if len(order) > 0 {
			nextID = order[0]
			haveNext = true
		}
	} else {
		for i, id := range order {
			if id == *e.currentID {
				if i+1 < len(order) {
					nextID = order[i+1]
					haveNext = true
				}
				break
			}
		}
	}
	if !haveNext {
		return nil, false
	}

	e.currentID = &nextID
	e.evaluatedIDs[nextID] = true

	bpInfo, ok := e.symtab.GetBreakpoint(nextID)
	if !ok {
		return nil, false
	}
	enable, err := expr.Compile(bpInfo.Condition)
	if err != nil {
		enable = expr.Always
	}
	e.stepScratch = DebugBreakPoint{
		ID:          nextID,
		InstanceID:  bpInfo.InstanceID,
		Guard:       enable,
		EnableGuard: enable,
	}
	return &e.stepScratch, true
}

// Tick runs spec.md §4.4's per-tick algorithm to completion: it
// repeatedly selects the next eligible breakpoint, binds its guard's
// symbols through the symbol table and RTL interface, and — on a true
// guard — reports a Hit to sink. sink.OnHit is expected to block until
// the client resumes, so a hit pauses Tick itself before it resumes
// scanning for more hits in the same tick (mirroring the original
// eval() loop resuming after lock_.wait()).
func (e *Evaluator) Tick(sink HitSink, simTime uint64) {
	e.StartTick()
	for {
		bp, ok := e.NextBreakpoint()
		if !ok {
			return
		}
		e.evalOne(*bp, sink, simTime)
	}
}

func (e *Evaluator) evalOne(bp DebugBreakPoint, sink HitSink, simTime uint64) {
	guard := bp.Guard
	if e.Mode() == StepOver {
		guard = bp.EnableGuard
	}

	instanceName, ok := e.symtab.GetInstanceName(bp.InstanceID)
	if !ok {
		e.logf("evalloop: unknown instance %d for breakpoint %d", bp.InstanceID, bp.ID)
		return
	}

	contextValues := e.contextStaticValues(bp.ID)
	symbols := guard.Symbols()
	values := make(map[string]int64, len(symbols))
	for _, sym := range symbols {
		if v, ok := contextValues[sym]; ok {
			values[sym] = v
			continue
		}
		v, ok := e.rtl.GetValueByName(instanceName + "." + sym)
		if !ok {
			break
		}
		values[sym] = v
	}
	if len(values) != len(symbols) {
		e.logf("evalloop: unable to evaluate breakpoint %d", bp.ID)
		return
	}

	result, err := guard.Eval(values)
	if err != nil {
		e.logf("evalloop: guard error for breakpoint %d: %v", bp.ID, err)
		return
	}
	if !result {
		return
	}

	bpInfo, ok := e.symtab.GetBreakpoint(bp.ID)
	if !ok {
		return
	}
	hit := Hit{
		Time:         simTime,
		BreakpointID: bp.ID,
		InstanceID:   bp.InstanceID,
		InstanceName: instanceName,
		Filename:     bpInfo.Filename,
		Line:         bpInfo.Line,
		Column:       bpInfo.Column,
		Locals:       e.snapshotContext(bp.ID),
		Generators:   e.snapshotGenerators(bp.InstanceID),
	}
	sink.OnHit(hit)
}

// contextStaticValues collects the non-RTL context variables of bp_id
// whose value string parses as a 64-bit integer, per spec.md §4.4
// step 4 ("known static context value").
func (e *Evaluator) contextStaticValues(id hwmodel.BreakpointID) map[string]int64 {
	vars, ok := e.symtab.GetContextVariables(id, false)
	if !ok {
		return nil
	}
	out := map[string]int64{}
	for _, cv := range vars {
		if cv.Var.IsRTL {
			continue
		}
		if v, err := strconv.ParseInt(cv.Var.Value, 10, 64); err == nil {
			out[cv.Name] = v
		}
	}
	return out
}

func (e *Evaluator) snapshotContext(id hwmodel.BreakpointID) map[string]string {
	vars, ok := e.symtab.GetContextVariables(id, true)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(vars))
	for _, cv := range vars {
		out[cv.Name] = e.renderVariable(cv.Var)
	}
	return out
}

func (e *Evaluator) snapshotGenerators(id hwmodel.InstanceID) map[string]string {
	vars, ok := e.symtab.GetGeneratorVariable(id, true)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(vars))
	for _, gv := range vars {
		out[gv.Name] = e.renderVariable(gv.Var)
	}
	return out
}

// renderVariable reads an RTL-backed variable live, substituting the
// error sentinel on an unreadable value; a literal variable passes
// through unchanged (spec.md §4.4, "Hit snapshot").
func (e *Evaluator) renderVariable(v hwmodel.Variable) string {
	if !v.IsRTL {
		return v.Value
	}
	val, ok := e.rtl.GetValueByName(v.Value)
	if !ok {
		return hwmodel.ErrorValue
	}
	return strconv.FormatInt(val, 10)
}

func (e *Evaluator) logf(format string, args ...interface{}) {
	if e.log != nil {
		e.log.Errorf(format, args...)
	}
}
