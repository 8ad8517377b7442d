// Package session is the request dispatcher (spec.md §4.5, component
// E): it maps wire requests to evaluator mutations, gates non-
// connection requests on an initialized symbol database, and paces
// the simulator through Latch. Grounded on
// tracer/restapi/handlers.go's RouterArgs dependency-bundle shape
// (collaborators passed in, not constructed internally) and
// httpserver/server.go's context.CancelFunc-based lifecycle.
package session

import (
	"fmt"
	"sync"

	"github.com/hgdb-go/hgdb/internal/config"
	"github.com/hgdb-go/hgdb/internal/dbglog"
	"github.com/hgdb-go/hgdb/internal/evalloop"
	"github.com/hgdb-go/hgdb/internal/rtl"
	"github.com/hgdb-go/hgdb/internal/symtab"
	"github.com/hgdb-go/hgdb/internal/wire"
)

// notInitializedReason is the exact client-visible error text spec.md
// §4.5 requires.
const notInitializedReason = "Database is not initialized..."

// Broadcaster sends a server-initiated message to the connected
// client, implemented by *wire.Server.
type Broadcaster interface {
	Broadcast(raw []byte)
}

// Session is the dispatcher: it owns the DB client and evaluator (via
// a swap-in at `connection` time), and drives the latch that paces
// the simulator thread.
type Session struct {
	cfg      *config.Config
	provider rtl.Provider
	log      dbglog.Logger
	latch    *Latch
	out      Broadcaster

	mu      sync.Mutex
	client  *symtab.Client
	eval    *evalloop.Evaluator
	dbReady bool
}

// New builds a Session. provider is the already-constructed RTL
// binding (native or replay); out is where breakpoint_hit messages
// are pushed.
func New(cfg *config.Config, provider rtl.Provider, log dbglog.Logger, out Broadcaster) *Session {
	if log == nil {
		log = dbglog.Discard
	}
	return &Session{
		cfg:      cfg,
		provider: provider,
		log:      log,
		latch:    NewLatch(),
		out:      out,
	}
}

// Latch exposes the session's pacing latch so the caller can block
// the simulator-driving goroutine on the initial handshake, matching
// Debugger::run()'s "start server thread, then wait()" sequence.
func (s *Session) Latch() *Latch { return s.latch }

// Dispatch implements wire.Dispatcher: parse one request line, route
// it, and return the marshaled response (nil for requests that never
// answer, matching Debugger::handle_error being a no-op).
func (s *Session) Dispatch(raw []byte) []byte {
	req, err := wire.ParseRequest(raw)
	if err != nil {
		b, _ := wire.Marshal(wire.NewError(nil, err.Error()))
		return b
	}

	switch req.Type {
	case wire.RequestConnection:
		return s.handleConnection(req)
	case wire.RequestBreakpoint:
		return s.handleBreakpoint(req)
	case wire.RequestBreakpointID:
		return s.handleBreakpointID(req)
	case wire.RequestBPLocation:
		return s.handleBPLocation(req)
	case wire.RequestCommand:
		return s.handleCommand(req)
	case wire.RequestDebuggerInfo:
		return s.handleDebuggerInfo(req)
	case wire.RequestError:
		return nil
	default:
		b, _ := wire.Marshal(wire.NewError(req, fmt.Sprintf("unhandled request type %q", req.Type)))
		return b
	}
}

// ready returns the current client/evaluator pair, or ok=false if no
// database has been loaded yet.
func (s *Session) ready() (*symtab.Client, *evalloop.Evaluator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client, s.eval, s.dbReady
}

func notInitialized(req *wire.Request) []byte {
	b, _ := wire.Marshal(wire.NewError(req, notInitializedReason))
	return b
}

func (s *Session) handleConnection(req *wire.Request) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.SkipDBLoad {
		tables, err := symtab.LoadSqlite(req.DBFilename)
		if err != nil {
			s.log.Errorf("session: failed to open db %s: %v", req.DBFilename, err)
			b, _ := wire.Marshal(wire.NewError(req, fmt.Sprintf("Unable to find %s", req.DBFilename)))
			return b
		}
		client, err := symtab.Open(tables, s.cfg.SourceMap)
		if err != nil {
			s.log.Errorf("session: failed to open symbol table client: %v", err)
			b, _ := wire.Marshal(wire.NewError(req, fmt.Sprintf("Unable to find %s", req.DBFilename)))
			return b
		}
		s.client = client
		s.eval = evalloop.New(client, s.provider, s.log)
		s.dbReady = true
		s.log.Infof("session: debug database set to %s", req.DBFilename)
	}

	b, _ := wire.Marshal(wire.NewSuccess(req))
	return b
}

func (s *Session) handleBreakpoint(req *wire.Request) []byte {
	client, eval, ok := s.ready()
	if !ok {
		return notInitialized(req)
	}

	bps := client.GetBreakpoints(req.Filename, req.LineNum, req.ColumnNum)
	if req.Action == wire.ActionAdd {
		if len(bps) == 0 {
			b, _ := wire.Marshal(wire.NewError(req, fmt.Sprintf("%s:%d is not a valid breakpoint", req.Filename, req.LineNum)))
			return b
		}
		for _, bp := range bps {
			if err := eval.AddBreakpoint(bp, req.Condition); err != nil {
				s.log.Errorf("session: add breakpoint %d: %v", bp.ID, err)
			}
		}
	} else {
		for _, bp := range bps {
			eval.RemoveBreakpoint(bp.ID)
		}
	}
	eval.SetMode(evalloop.BreakPointOnly)

	b, _ := wire.Marshal(wire.NewSuccess(req))
	return b
}

func (s *Session) handleBreakpointID(req *wire.Request) []byte {
	client, eval, ok := s.ready()
	if !ok {
		return notInitialized(req)
	}

	if req.Action == wire.ActionAdd {
		bp, found := client.GetBreakpoint(req.ID)
		if !found {
			b, _ := wire.Marshal(wire.NewError(req, fmt.Sprintf("BP (%d) is not a valid breakpoint", req.ID)))
			return b
		}
		if err := eval.AddBreakpoint(bp, req.Condition); err != nil {
			s.log.Errorf("session: add breakpoint %d: %v", bp.ID, err)
		}
	} else {
		eval.RemoveBreakpoint(req.ID)
	}
	eval.SetMode(evalloop.BreakPointOnly)

	b, _ := wire.Marshal(wire.NewSuccess(req))
	return b
}

func (s *Session) handleBPLocation(req *wire.Request) []byte {
	client, _, ok := s.ready()
	if !ok {
		return notInitialized(req)
	}

	bps := client.GetBreakpoints(req.Filename, req.LineNum, req.ColumnNum)
	locs := make([]wire.BreakpointLocation, len(bps))
	for i, bp := range bps {
		locs[i] = wire.BreakpointLocation{ID: bp.ID, Filename: bp.Filename, LineNum: bp.Line, ColumnNum: bp.Column}
	}

	resp := wire.BPLocationResponse{Type: wire.ResponseBPLocation, Token: req.Token, Breakpoints: locs}
	b, _ := wire.Marshal(resp)
	return b
}

func (s *Session) handleCommand(req *wire.Request) []byte {
	_, eval, ok := s.ready()
	if !ok {
		return notInitialized(req)
	}

	switch req.Command {
	case wire.CommandContinue:
		s.log.Infof("session: handle_command: continue_")
		s.latch.Ready()
	case wire.CommandStop:
		s.log.Infof("session: handle_command: stop")
		s.latch.Ready()
		s.provider.Finish()
	case wire.CommandStepOver:
		s.log.Infof("session: handle_command: step_over")
		eval.SetMode(evalloop.StepOver)
		s.latch.Ready()
	}

	b, _ := wire.Marshal(wire.NewSuccess(req))
	return b
}

func (s *Session) handleDebuggerInfo(req *wire.Request) []byte {
	client, eval, ok := s.ready()
	if !ok {
		return notInitialized(req)
	}

	switch req.InfoCommand {
	case wire.DebuggerInfoBreakpoints:
		ids := eval.ActiveBreakpoints()
		locs := make([]wire.BreakpointLocation, 0, len(ids))
		for _, id := range ids {
			bp, found := client.GetBreakpoint(id)
			if !found {
				continue
			}
			locs = append(locs, wire.BreakpointLocation{ID: bp.ID, Filename: bp.Filename, LineNum: bp.Line, ColumnNum: bp.Column})
		}
		resp := wire.DebuggerInfoResponse{Type: wire.ResponseDebuggerInfo, Token: req.Token, Breakpoints: locs}
		b, _ := wire.Marshal(resp)
		return b
	default:
		b, _ := wire.Marshal(wire.NewError(req, "Unknown debugger info command"))
		return b
	}
}

// OnTick is registered as the RTL provider's value-change callback on
// whatever signal drives breakpoint evaluation (typically the design
// clock); each firing runs one evaluator tick. Its signature matches
// rtl.ValueChangeCallback exactly so it can be passed straight to
// RegisterValueChangeCallback.
func (s *Session) OnTick(_ int64, _ bool, simTime uint64) {
	_, eval, ok := s.ready()
	if !ok || eval == nil {
		return
	}
	eval.Tick(s, simTime)
}

// OnHit implements evalloop.HitSink: push the hit to the connected
// client, then block the calling (simulator) goroutine on the latch
// until continue/step_over/stop readies it, mirroring
// Debugger::eval()'s "send_breakpoint_hit, then lock_.wait()" step.
func (s *Session) OnHit(h evalloop.Hit) {
	resp := wire.BreakpointHitResponse{
		Type:         wire.ResponseBreakpointHit,
		Time:         h.Time,
		InstanceID:   h.InstanceID,
		InstanceName: h.InstanceName,
		ID:           h.BreakpointID,
		Filename:     h.Filename,
		Line:         h.Line,
		Column:       h.Column,
		Locals:       h.Locals,
		Generators:   h.Generators,
	}
	b, err := wire.Marshal(resp)
	if err != nil {
		s.log.Errorf("session: marshal breakpoint_hit: %v", err)
		return
	}
	if s.out != nil {
		s.out.Broadcast(b)
	}
	s.latch.Wait()
}

// Status reports a JSON-serializable snapshot for the auxiliary HTTP
// surface (internal/wire/httpapi).
func (s *Session) Status() map[string]interface{} {
	_, eval, ready := s.ready()
	status := map[string]interface{}{
		"db_ready": ready,
	}
	if eval != nil {
		status["active_breakpoints"] = len(eval.ActiveBreakpoints())
		mode := "break_point_only"
		if eval.Mode() == evalloop.StepOver {
			mode = "step_over"
		}
		status["mode"] = mode
	}
	return status
}

var _ evalloop.HitSink = (*Session)(nil)
