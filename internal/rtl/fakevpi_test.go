package rtl

// fakeModule is a fake design-tree node used by the fakeVPI below.
type fakeModule struct {
	defName  string
	fullName string
	children []*fakeModule
}

// fakeVPI is an in-memory stand-in for the VPI seam, used to test
// NativeProvider without a real simulator.
type fakeVPI struct {
	root     []*fakeModule
	handles  map[string]int64 // full name -> value, also doubles as the handle registry
	present  map[string]bool  // full name -> value is defined (not x/z)
	product  string
	argv     []string
	simTime  uint64
	nextCB   int
	removed  map[int]bool
	callback map[int]ValueChangeCallback
}

func newFakeVPI() *fakeVPI {
	return &fakeVPI{
		handles:  map[string]int64{},
		present:  map[string]bool{},
		removed:  map[int]bool{},
		callback: map[int]ValueChangeCallback{},
	}
}

func (f *fakeVPI) ModuleChildren(scope Handle) []Handle {
	var mods []*fakeModule
	if scope == nil {
		mods = f.root
	} else {
		m := scope.(*fakeModule)
		mods = m.children
	}
	out := make([]Handle, len(mods))
	for i, m := range mods {
		out[i] = m
	}
	return out
}

func (f *fakeVPI) DefName(h Handle) string  { return h.(*fakeModule).defName }
func (f *fakeVPI) FullName(h Handle) string { return h.(*fakeModule).fullName }

func (f *fakeVPI) HandleByName(name string) (Handle, bool) {
	if _, ok := f.handles[name]; ok {
		return name, true
	}
	// module instances resolve by full name too, as a real VPI does.
	var walk func(mods []*fakeModule) bool
	walk = func(mods []*fakeModule) bool {
		for _, m := range mods {
			if m.fullName == name || walk(m.children) {
				return true
			}
		}
		return false
	}
	if walk(f.root) {
		return name, true
	}
	return nil, false
}

func (f *fakeVPI) IterateNets(module Handle, kind NetIterKind) map[string]Handle {
	prefix := module.(string) + "."
	out := map[string]Handle{}
	for full := range f.handles {
		if len(full) > len(prefix) && full[:len(prefix)] == prefix {
			local := full[len(prefix):]
			out[local] = full
		}
	}
	return out
}

func (f *fakeVPI) IsModule(h Handle) bool { return true }

func (f *fakeVPI) GetValue(h Handle) (int64, bool) {
	name := h.(string)
	if !f.present[name] {
		return 0, false
	}
	return f.handles[name], true
}

func (f *fakeVPI) SimulationTime() uint64 { return f.simTime }
func (f *fakeVPI) Product() string        { return f.product }
func (f *fakeVPI) Argv() []string         { return f.argv }

func (f *fakeVPI) RegisterCallback(h Handle, cb ValueChangeCallback) (Handle, bool) {
	id := f.nextCB
	f.nextCB++
	f.callback[id] = cb
	return id, true
}

func (f *fakeVPI) RemoveCallback(cbHandle Handle) {
	f.removed[cbHandle.(int)] = true
}

func (f *fakeVPI) Control(op ControlOp) {}

func (f *fakeVPI) setValue(fullName string, v int64) {
	f.handles[fullName] = v
	f.present[fullName] = true
}

func (f *fakeVPI) setUnreadable(fullName string) {
	f.present[fullName] = false
	if _, ok := f.handles[fullName]; !ok {
		f.handles[fullName] = 0
	}
}
