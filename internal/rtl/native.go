package rtl

import "sync"

// NativeProvider is the native Provider binding, backed by a VPI
// seam. It is ported from RTLSimulatorClient in the original
// implementation: handle caching, the module-signal cache, and the
// breadth-first hierarchy-prefix computation are unchanged.
type NativeProvider struct {
	vpi VPI

	mu sync.Mutex

	// hierarchyPrefix maps a design-definition name to its full
	// instance-path prefix (trailing separator included). Populated
	// once by NewNativeProvider's breadth-first walk.
	hierarchyPrefix map[string]string

	// handleCache maps a full name to its resolved handle. Monotonic
	// within a session: handles are never invalidated.
	handleCache map[string]Handle

	// moduleSignalCache maps a module's full name to its net/reg
	// handles, keyed by local signal name.
	moduleSignalCache map[string]map[string]Handle

	netIterKind NetIterKind
	product     string
}

// NewNativeProvider builds a NativeProvider and computes the
// hierarchy-prefix map for the given set of scoped instance names
// (typically every instance name the symbol database knows about).
func NewNativeProvider(vpi VPI, instanceNames []string) *NativeProvider {
	p := &NativeProvider{
		vpi:               vpi,
		hierarchyPrefix:   map[string]string{},
		handleCache:       map[string]Handle{},
		moduleSignalCache: map[string]map[string]Handle{},
	}
	p.product = vpi.Product()
	if p.product == "Verilator" {
		p.netIterKind = IterRegs
	} else {
		p.netIterKind = IterNets
	}

	targets := map[string]struct{}{}
	for _, name := range instanceNames {
		top, _ := SplitScoped(name)
		targets[top] = struct{}{}
	}
	p.computeHierarchyPrefix(targets)
	return p
}

// computeHierarchyPrefix performs a breadth-first walk of the design
// tree starting from the simulator root, matching
// RTLSimulatorClient::compute_hierarchy_name_prefix.
func (p *NativeProvider) computeHierarchyPrefix(targets map[string]struct{}) {
	queue := []Handle{nil}
	for len(queue) > 0 && len(targets) > 0 {
		scope := queue[0]
		queue = queue[1:]
		children := p.vpi.ModuleChildren(scope)
		for _, child := range children {
			defName := p.vpi.DefName(child)
			if _, want := targets[defName]; want {
				p.hierarchyPrefix[defName] = p.vpi.FullName(child) + "."
				delete(targets, defName)
			}
			queue = append(queue, child)
		}
	}
}

// GetFullName implements Provider.GetFullName.
func (p *NativeProvider) GetFullName(scoped string) string {
	top, tail := SplitScoped(scoped)
	prefix, ok := p.hierarchyPrefix[top]
	if !ok {
		return scoped
	}
	if tail == "" {
		return prefix[:len(prefix)-1]
	}
	return prefix + tail
}

// GetHandle implements Provider.GetHandle.
func (p *NativeProvider) GetHandle(scoped string) (Handle, bool) {
	full := p.GetFullName(scoped)

	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.handleCache[full]; ok {
		return h, true
	}
	h, ok := p.vpi.HandleByName(full)
	if !ok {
		return nil, false
	}
	p.handleCache[full] = h
	return h, true
}

// GetValue implements Provider.GetValue.
func (p *NativeProvider) GetValue(h Handle) (int64, bool) {
	if h == nil {
		return 0, false
	}
	return p.vpi.GetValue(h)
}

// GetValueByName implements Provider.GetValueByName.
func (p *NativeProvider) GetValueByName(scoped string) (int64, bool) {
	h, ok := p.GetHandle(scoped)
	if !ok {
		return 0, false
	}
	return p.GetValue(h)
}

// GetModuleSignals implements Provider.GetModuleSignals.
func (p *NativeProvider) GetModuleSignals(moduleScoped string) map[string]Handle {
	full := p.GetFullName(moduleScoped)

	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, ok := p.moduleSignalCache[full]; ok {
		return cached
	}
	moduleHandle, ok := p.handleCache[full]
	if !ok {
		moduleHandle, ok = p.vpi.HandleByName(full)
		if !ok {
			return nil
		}
		p.handleCache[full] = moduleHandle
	}
	if !p.vpi.IsModule(moduleHandle) {
		return nil
	}
	signals := p.vpi.IterateNets(moduleHandle, p.netIterKind)
	p.moduleSignalCache[full] = signals
	return signals
}

// GetSimulationTime implements Provider.GetSimulationTime.
func (p *NativeProvider) GetSimulationTime() uint64 { return p.vpi.SimulationTime() }

// GetSimulatorProduct implements Provider.GetSimulatorProduct.
func (p *NativeProvider) GetSimulatorProduct() string { return p.product }

// GetArgv implements Provider.GetArgv.
func (p *NativeProvider) GetArgv() []string { return p.vpi.Argv() }

// IsVerilator implements Provider.IsVerilator.
func (p *NativeProvider) IsVerilator() bool { return p.netIterKind == IterRegs }

// RegisterValueChangeCallback implements Provider.RegisterValueChangeCallback.
func (p *NativeProvider) RegisterValueChangeCallback(h Handle, cb ValueChangeCallback) (Handle, bool) {
	return p.vpi.RegisterCallback(h, cb)
}

// RemoveCallback implements Provider.RemoveCallback.
func (p *NativeProvider) RemoveCallback(cbHandle Handle) {
	p.vpi.RemoveCallback(cbHandle)
}

// Stop implements Provider.Stop.
func (p *NativeProvider) Stop() { p.vpi.Control(ControlStop) }

// Finish implements Provider.Finish.
func (p *NativeProvider) Finish() { p.vpi.Control(ControlFinish) }

var _ Provider = (*NativeProvider)(nil)
