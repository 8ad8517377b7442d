package replay

import "sort"

// ChangeIndex records, per signal id, the ascending simulation times
// at which that signal changes, plus the merged timeline of all
// change times, generalizing tracer/storage/index.go's
// "timestamp to record" index from wall-clock record order to
// simulation-time order. Entries are appended in any order and sorted
// once by Finish. Waveform backends embed a ChangeIndex to satisfy
// ChangeTimeline.
type ChangeIndex struct {
	bySignal map[uint64][]uint64 // signal id -> change times, ascending
	times    []uint64            // union of all change times, ascending
	sorted   bool
}

// NewChangeIndex returns an empty ChangeIndex.
func NewChangeIndex() *ChangeIndex {
	return &ChangeIndex{bySignal: map[uint64][]uint64{}}
}

// Append records that signalID changes value at time t. Order of
// Append calls does not matter; Finish sorts everything.
func (idx *ChangeIndex) Append(signalID, t uint64) {
	idx.bySignal[signalID] = append(idx.bySignal[signalID], t)
	idx.times = append(idx.times, t)
	idx.sorted = false
}

// Finish sorts and deduplicates every per-signal and the merged
// timeline. Must be called once after all Append calls and before any
// read.
func (idx *ChangeIndex) Finish() {
	if idx.sorted {
		return
	}
	for id, times := range idx.bySignal {
		idx.bySignal[id] = sortUnique(times)
	}
	idx.times = sortUnique(idx.times)
	idx.sorted = true
}

// ChangeTimes returns signalID's ascending change times, satisfying
// the ChangeTimeline interface.
func (idx *ChangeIndex) ChangeTimes(signalID uint64) []uint64 {
	return idx.bySignal[signalID]
}

// Times returns the merged, ascending timeline of every change across
// every signal in the index.
func (idx *ChangeIndex) Times() []uint64 {
	return idx.times
}

// ValueAt returns the greatest recorded change time for signalID that
// is <= t, and whether one exists.
func (idx *ChangeIndex) ValueAt(signalID, t uint64) (uint64, bool) {
	times := idx.bySignal[signalID]
	i := sort.Search(len(times), func(i int) bool { return times[i] > t })
	if i == 0 {
		return 0, false
	}
	return times[i-1], true
}

func sortUnique(in []uint64) []uint64 {
	sort.Slice(in, func(i, j int) bool { return in[i] < in[j] })
	out := in[:0]
	var last uint64
	haveLast := false
	for _, v := range in {
		if haveLast && v == last {
			continue
		}
		out = append(out, v)
		last = v
		haveLast = true
	}
	return out
}
