package symtab

import (
	"strings"

	"github.com/hgdb-go/hgdb/internal/hwmodel"
)

// srcMapping is an ordered mapping from DB-side path prefixes to
// client-side prefixes (spec.md §3, "Source remap"). Key ordering is
// immaterial but lookups are longest-prefix, so entries are kept
// sorted by descending prefix length.
type srcMapping struct {
	entries []srcMapEntry
}

type srcMapEntry struct {
	dbPrefix     string
	clientPrefix string
}

func newSrcMapping(m map[string]string) *srcMapping {
	sm := &srcMapping{}
	for db, client := range m {
		sm.entries = append(sm.entries, srcMapEntry{dbPrefix: db, clientPrefix: client})
	}
	// longest prefix first so lookups find the most specific match.
	for i := 1; i < len(sm.entries); i++ {
		for j := i; j > 0 && len(sm.entries[j].dbPrefix) > len(sm.entries[j-1].dbPrefix); j-- {
			sm.entries[j], sm.entries[j-1] = sm.entries[j-1], sm.entries[j]
		}
	}
	return sm
}

func (sm *srcMapping) empty() bool { return sm == nil || len(sm.entries) == 0 }

// toClient rewrites a DB-side path to its client-side form using the
// longest matching DB prefix.
func (sm *srcMapping) toClient(dbPath string) string {
	if sm.empty() {
		return dbPath
	}
	for _, e := range sm.entries {
		if rewritten, ok := resolve(e.dbPrefix, e.clientPrefix, dbPath); ok {
			return rewritten
		}
	}
	return dbPath
}

// toDB rewrites a client-side path to its DB-side form using the
// longest matching client prefix.
func (sm *srcMapping) toDB(clientPath string) string {
	if sm.empty() {
		return clientPath
	}
	// entries are sorted by DB prefix, so pick the longest client
	// prefix explicitly.
	best, bestLen := clientPath, -1
	for _, e := range sm.entries {
		if rewritten, ok := resolve(e.clientPrefix, e.dbPrefix, clientPath); ok && len(e.clientPrefix) > bestLen {
			best, bestLen = rewritten, len(e.clientPrefix)
		}
	}
	return best
}

// resolve replaces target's src prefix with dst, matching
// DebugDatabaseClient::resolve. It reports false if target does not
// carry the src prefix.
func resolve(src, dst, target string) (string, bool) {
	if src == "" || !strings.HasPrefix(target, src) {
		return target, false
	}
	return dst + strings.TrimPrefix(target, src), true
}

// baseName strips all leading directory components, used when
// use_base_name is in effect.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// computeUseBaseName implements spec.md §4.2: true iff every stored
// filename contains no directory separator.
func computeUseBaseName(bps []hwmodel.BreakPoint) bool {
	for _, bp := range bps {
		if strings.ContainsAny(bp.Filename, "/\\") {
			return false
		}
	}
	return true
}
