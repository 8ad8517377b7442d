package replay

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hgdb-go/hgdb/internal/rtl"
)

// signalHandle is the concrete type behind rtl.Handle values this
// package hands out: a waveform signal id.
type signalHandle uint64

type callbackEntry struct {
	signalID uint64
	cb       rtl.ValueChangeCallback
}

// rewindRequest is armed by VPIRewind and consumed once by Run's
// scheduling loop, per spec.md §4.3 ("rewind is idempotent within one
// callback invocation").
type rewindRequest struct {
	target  uint64
	clocks  []uint64
}

// Engine drives a rtl.Provider from a Waveform instead of a live
// simulator (spec.md §4.3, component C), grounded on
// tracer/simulator.StateSimulator's mutex-guarded, single-stepped
// state machine, generalized from "advance one log record" to
// "advance to the next timestamp with a tracked change".
type Engine struct {
	mu sync.Mutex

	wf  Waveform
	now uint64

	callbacks  map[int]*callbackEntry
	nextCBID   int
	lastValue  map[uint64]string // signalID -> last fired value, for change detection

	rewind *rewindRequest
	done   bool
}

// NewEngine wraps wf for evaluation by internal/evalloop or direct
// rtl.Provider consumers.
func NewEngine(wf Waveform) *Engine {
	return &Engine{
		wf:        wf,
		callbacks: map[int]*callbackEntry{},
		lastValue: map[uint64]string{},
	}
}

// SetTimestamp forces the engine's reported simulation time without
// running the schedule, used by tests and by `bp_location` style
// seeks that don't need callback replay.
func (e *Engine) SetTimestamp(t uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = t
}

// Finish marks the engine as done; Run returns promptly afterward.
func (e *Engine) Finish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.done = true
}

// VPIRewind requests that Run seek back to the greatest recorded
// change time <= target among clockSignals, then resume forward from
// there. A request made outside an active Run stays pending and is
// applied by the next Run after its first timestamp.
func (e *Engine) VPIRewind(target uint64, clockSignals []rtl.Handle) {
	ids := make([]uint64, 0, len(clockSignals))
	for _, h := range clockSignals {
		if sh, ok := h.(signalHandle); ok {
			ids = append(ids, uint64(sh))
		}
	}
	e.mu.Lock()
	e.rewind = &rewindRequest{target: target, clocks: ids}
	e.mu.Unlock()
}

// Run drives the scheduling loop described in spec.md §4.3: it visits
// every timestamp at which a registered signal changes, in ascending
// order, firing each callback whose value actually changed. blocking
// is accepted for interface symmetry with a live simulator's run
// loop; replay has nothing to block on besides its own iteration, so
// it is ignored.
func (e *Engine) Run(ctx context.Context, blocking bool) error {
	timeline, ok := e.wf.(ChangeTimeline)
	if !ok {
		return errors.New("replay: waveform backend does not support scheduling")
	}

	schedule := e.buildSchedule(timeline)
	i := 0
	for i < len(schedule) {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		e.mu.Lock()
		if e.done {
			e.mu.Unlock()
			return nil
		}
		t := schedule[i]
		e.now = t
		e.mu.Unlock()

		e.fireAt(t)

		e.mu.Lock()
		req := e.rewind
		e.rewind = nil
		e.mu.Unlock()

		if req != nil {
			i = e.resolveRewindIndex(schedule, timeline, req, i)
			continue
		}
		i++
	}
	return nil
}

// buildSchedule merges the change timelines of every registered
// signal into one ascending, deduplicated sequence.
func (e *Engine) buildSchedule(timeline ChangeTimeline) []uint64 {
	e.mu.Lock()
	signalIDs := make([]uint64, 0, len(e.callbacks))
	for _, cb := range e.callbacks {
		signalIDs = append(signalIDs, cb.signalID)
	}
	e.mu.Unlock()

	merged := NewChangeIndex()
	var g errgroup.Group
	var mu sync.Mutex
	for _, id := range signalIDs {
		id := id
		g.Go(func() error {
			times := timeline.ChangeTimes(id)
			mu.Lock()
			for _, t := range times {
				merged.Append(id, t)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // no fallible work above; error return kept for interface symmetry
	merged.Finish()
	return merged.Times()
}

func (e *Engine) fireAt(t uint64) {
	e.mu.Lock()
	entries := make([]*callbackEntry, 0, len(e.callbacks))
	for _, c := range e.callbacks {
		entries = append(entries, c)
	}
	e.mu.Unlock()

	for _, entry := range entries {
		raw, err := e.wf.GetSignalValue(entry.signalID, t)
		if err != nil {
			continue
		}
		e.mu.Lock()
		changed := e.lastValue[entry.signalID] != raw
		if changed {
			e.lastValue[entry.signalID] = raw
		}
		e.mu.Unlock()
		if !changed {
			continue
		}
		v, ok := parseSignalValue(raw)
		entry.cb(v, ok, t)
	}
}

// resolveRewindIndex finds the schedule index to resume from after a
// rewind request: the greatest recorded clock-change time <= target,
// falling back to the current position if no clock in req toggles by
// then.
func (e *Engine) resolveRewindIndex(schedule []uint64, timeline ChangeTimeline, req *rewindRequest, current int) int {
	var best uint64
	found := false
	for _, clockID := range req.clocks {
		for _, t := range timeline.ChangeTimes(clockID) {
			if t <= req.target && (!found || t > best) {
				best = t
				found = true
			}
		}
	}
	if !found {
		return current
	}
	idx := sort.Search(len(schedule), func(i int) bool { return schedule[i] >= best })
	if idx >= len(schedule) {
		return len(schedule)
	}
	return idx
}

// parseSignalValue converts a ConvertStrValue-rendered hex string
// into an int64, reporting ok=false for any unknown ('X'/'Z') digit.
func parseSignalValue(hex string) (int64, bool) {
	for _, r := range hex {
		if r == 'X' || r == 'Z' || r == 'x' || r == 'z' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(hex, 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// --- rtl.Provider ---

func (e *Engine) GetFullName(scoped string) string {
	if _, ok := e.wf.GetSignalID(scoped); ok {
		return scoped
	}
	if _, ok := e.wf.GetInstanceID(scoped); ok {
		return scoped
	}
	return scoped
}

func (e *Engine) GetHandle(scoped string) (rtl.Handle, bool) {
	if id, ok := e.wf.GetSignalID(scoped); ok {
		return signalHandle(id), true
	}
	return nil, false
}

func (e *Engine) GetValue(h rtl.Handle) (int64, bool) {
	sh, ok := h.(signalHandle)
	if !ok {
		return 0, false
	}
	e.mu.Lock()
	t := e.now
	e.mu.Unlock()
	raw, err := e.wf.GetSignalValue(uint64(sh), t)
	if err != nil {
		return 0, false
	}
	return parseSignalValue(raw)
}

func (e *Engine) GetValueByName(scoped string) (int64, bool) {
	h, ok := e.GetHandle(scoped)
	if !ok {
		return 0, false
	}
	return e.GetValue(h)
}

func (e *Engine) GetModuleSignals(moduleScoped string) map[string]rtl.Handle {
	instID, ok := e.wf.GetInstanceID(moduleScoped)
	if !ok {
		return nil
	}
	out := map[string]rtl.Handle{}
	for _, sigID := range e.wf.GetInstanceSignals(instID) {
		sig, ok := e.wf.GetSignal(sigID)
		if !ok {
			continue
		}
		local := sig.Name
		if idx := lastDot(local); idx >= 0 {
			local = local[idx+1:]
		}
		out[local] = signalHandle(sigID)
	}
	return out
}

func (e *Engine) GetSimulationTime() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *Engine) GetSimulatorProduct() string { return "replay" }
func (e *Engine) GetArgv() []string           { return nil }
func (e *Engine) IsVerilator() bool           { return false }

func (e *Engine) RegisterValueChangeCallback(h rtl.Handle, cb rtl.ValueChangeCallback) (rtl.Handle, bool) {
	sh, ok := h.(signalHandle)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextCBID
	e.nextCBID++
	e.callbacks[id] = &callbackEntry{signalID: uint64(sh), cb: cb}
	return id, true
}

func (e *Engine) RemoveCallback(cbHandle rtl.Handle) {
	id, ok := cbHandle.(int)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.callbacks, id)
}

func (e *Engine) Stop() { e.Finish() }

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

var _ rtl.Provider = (*Engine)(nil)
