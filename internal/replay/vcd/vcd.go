// Package vcd parses Value Change Dump waveform files, one of the two
// concrete backends behind replay.Waveform (spec.md §4.3, §6).
package vcd

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hgdb-go/hgdb/internal/replay"
)

// Reader implements replay.Waveform and replay.ChangeTimeline over a
// fully-parsed VCD file. VCD files are small enough in practice (this
// tool's domain is RTL debugging sessions, not gigascale waveform
// dumps) that parsing the whole file up front, the way
// tracer/storage/index.go builds its in-memory record index, is the
// simplest correct design.
type Reader struct {
	instances     []replay.Instance
	instanceByID  map[uint64]int // instance ID -> index into instances
	instanceByName map[string]uint64
	children      map[uint64][]uint64
	instSignals   map[uint64][]uint64

	signals      []replay.Signal
	signalByName map[string]uint64
	values       map[uint64][]valueChange // signal ID -> changes, ascending time

	idx *replay.ChangeIndex
}

type valueChange struct {
	time uint64
	bits string
}

// Parse reads a complete VCD file from r.
func Parse(r io.Reader) (*Reader, error) {
	p := &parser{
		scanner: bufio.NewScanner(r),
		reader: &Reader{
			instanceByID:   map[uint64]int{},
			instanceByName: map[string]uint64{},
			children:       map[uint64][]uint64{},
			instSignals:    map[uint64][]uint64{},
			signalByName:   map[string]uint64{},
			values:         map[uint64][]valueChange{},
			idx:            replay.NewChangeIndex(),
		},
	}
	p.scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if err := p.run(); err != nil {
		return nil, err
	}
	p.reader.idx.Finish()
	return p.reader, nil
}

func (r *Reader) GetInstanceID(name string) (uint64, bool) {
	id, ok := r.instanceByName[name]
	return id, ok
}

func (r *Reader) GetSignalID(name string) (uint64, bool) {
	id, ok := r.signalByName[name]
	return id, ok
}

func (r *Reader) GetInstanceSignals(instanceID uint64) []uint64 {
	return r.instSignals[instanceID]
}

func (r *Reader) GetChildInstances(instanceID uint64) []uint64 {
	return r.children[instanceID]
}

func (r *Reader) GetSignal(signalID uint64) (replay.Signal, bool) {
	if signalID >= uint64(len(r.signals)) {
		return replay.Signal{}, false
	}
	return r.signals[signalID], true
}

func (r *Reader) GetInstance(instanceID uint64) (replay.Instance, bool) {
	i, ok := r.instanceByID[instanceID]
	if !ok {
		return replay.Instance{}, false
	}
	return r.instances[i], true
}

func (r *Reader) GetSignalValue(signalID uint64, t uint64) (string, error) {
	changes := r.values[signalID]
	if len(changes) == 0 {
		return "", errors.Errorf("vcd: no recorded value for signal %d", signalID)
	}
	at, ok := r.idx.ValueAt(signalID, t)
	if !ok {
		return "", errors.Errorf("vcd: signal %d has no value at or before time %d", signalID, t)
	}
	for _, c := range changes {
		if c.time == at {
			return replay.ConvertStrValue(c.bits), nil
		}
	}
	return "", errors.Errorf("vcd: inconsistent change index for signal %d", signalID)
}

func (r *Reader) ChangeTimes(signalID uint64) []uint64 {
	return r.idx.ChangeTimes(signalID)
}

// parser holds the mutable state of a single top-to-bottom scan.
type parser struct {
	scanner *bufio.Scanner
	reader  *Reader

	scopeStack   []uint64 // instance IDs, outermost first
	codeToSignal map[string]uint64
	curTime      uint64
}

func (p *parser) run() error {
	p.codeToSignal = map[string]uint64{}
	for p.scanner.Scan() {
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "$scope"):
			if err := p.handleScope(line); err != nil {
				return err
			}
		case strings.HasPrefix(line, "$upscope"):
			p.handleUpscope()
			p.consumeEnd(line)
		case strings.HasPrefix(line, "$var"):
			if err := p.handleVar(line); err != nil {
				return err
			}
		case strings.HasPrefix(line, "$enddefinitions"):
			p.consumeEnd(line)
		case line == "$end":
			// closes a $dumpvars/$dumpon/$dumpoff/$dumpall block whose
			// body is real value-change lines, not header text.
		case strings.HasPrefix(line, "$dumpvars"), strings.HasPrefix(line, "$dumpon"),
			strings.HasPrefix(line, "$dumpoff"), strings.HasPrefix(line, "$dumpall"):
			// the directive itself carries no value; its body lines
			// (up to the next standalone $end) are handled individually
			// by the default case below.
		case strings.HasPrefix(line, "$"):
			p.consumeEnd(line)
		case strings.HasPrefix(line, "#"):
			t, err := strconv.ParseUint(line[1:], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "vcd: bad timestamp %q", line)
			}
			p.curTime = t
		default:
			p.handleValueChange(line)
		}
	}
	return p.scanner.Err()
}

// consumeEnd scans forward until a line containing "$end" if the
// current line doesn't already carry one, matching VCD's free-form
// multi-line header blocks ($date ... $end spans several lines).
func (p *parser) consumeEnd(line string) {
	if strings.Contains(line, "$end") {
		return
	}
	for p.scanner.Scan() {
		if strings.Contains(p.scanner.Text(), "$end") {
			return
		}
	}
}

// fullName returns the innermost open scope's already-qualified name,
// or "" at the top level.
func (p *parser) fullName() string {
	if len(p.scopeStack) == 0 {
		return ""
	}
	id := p.scopeStack[len(p.scopeStack)-1]
	return p.reader.instances[p.reader.instanceByID[id]].Name
}

func (p *parser) handleScope(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return errors.Errorf("vcd: malformed $scope line %q", line)
	}
	name := fields[2]

	full := name
	if parent := p.fullName(); parent != "" {
		full = parent + "." + name
	}

	id := uint64(len(p.reader.instances))
	p.reader.instances = append(p.reader.instances, replay.Instance{ID: id, Name: full})
	p.reader.instanceByID[id] = len(p.reader.instances) - 1
	p.reader.instanceByName[full] = id

	if len(p.scopeStack) > 0 {
		parent := p.scopeStack[len(p.scopeStack)-1]
		p.reader.children[parent] = append(p.reader.children[parent], id)
	}
	p.scopeStack = append(p.scopeStack, id)

	p.consumeEnd(line)
	return nil
}

func (p *parser) handleUpscope() {
	if len(p.scopeStack) > 0 {
		p.scopeStack = p.scopeStack[:len(p.scopeStack)-1]
	}
}

func (p *parser) handleVar(line string) error {
	// $var <type> <size> <code> <name> [range] $end
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return errors.Errorf("vcd: malformed $var line %q", line)
	}
	size, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return errors.Wrapf(err, "vcd: bad $var size in %q", line)
	}
	code := fields[3]
	name := fields[4]

	full := name
	if parent := p.fullName(); parent != "" {
		full = parent + "." + name
	}

	id, seen := p.reader.signalByName[full]
	if !seen {
		id = uint64(len(p.reader.signals))
		p.reader.signals = append(p.reader.signals, replay.Signal{ID: id, Name: full, Width: uint32(size)})
		p.reader.signalByName[full] = id
	}
	p.codeToSignal[code] = id

	if len(p.scopeStack) > 0 {
		inst := p.scopeStack[len(p.scopeStack)-1]
		p.reader.instSignals[inst] = append(p.reader.instSignals[inst], id)
	}

	p.consumeEnd(line)
	return nil
}

func (p *parser) handleValueChange(line string) {
	var bits, code string
	switch {
	case line[0] == 'b' || line[0] == 'B':
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return
		}
		bits = parts[0][1:]
		code = parts[1]
	case line[0] == 'r' || line[0] == 'R':
		// real-number values are out of scope for a bit-level debugger;
		// recorded as-is, and GetSignalValue passes them through
		// ConvertStrValue like any other value.
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return
		}
		bits = parts[0][1:]
		code = parts[1]
	default:
		if len(line) < 2 {
			return
		}
		bits = line[:1]
		code = line[1:]
	}

	signalID, ok := p.codeToSignal[code]
	if !ok {
		return
	}
	p.reader.values[signalID] = append(p.reader.values[signalID], valueChange{time: p.curTime, bits: bits})
	p.reader.idx.Append(signalID, p.curTime)
}

var _ replay.Waveform = (*Reader)(nil)
var _ replay.ChangeTimeline = (*Reader)(nil)
