package replay

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildArrayTable implements spec.md §4.3's array synthesis: given the
// dotted element names a waveform backend actually recorded (e.g.
// "top.result.2"), it returns the bracket-indexed aliases
// ("top.result[2]") so that either form resolves to the same
// underlying name. The returned map is keyed by alias, valued by the
// canonical (originally recorded) name; canonical names already in
// dotted form map to themselves.
func BuildArrayTable(names []string) map[string]string {
	aliases := map[string]string{}
	for _, name := range names {
		aliases[name] = name
		if alias, ok := dottedToIndexed(name); ok {
			aliases[alias] = name
		}
	}
	return aliases
}

// dottedToIndexed rewrites a single trailing ".<int>" component (and
// only a trailing one — nested arrays are out of scope) into a
// "[<int>]" suffix: "top.result.2" -> "top.result[2]".
func dottedToIndexed(name string) (string, bool) {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return "", false
	}
	suffix := name[i+1:]
	if _, err := strconv.Atoi(suffix); err != nil {
		return "", false
	}
	return fmt.Sprintf("%s[%s]", name[:i], suffix), true
}
