package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildArrayTable(t *testing.T) {
	table := BuildArrayTable([]string{"top.result.2", "top.a", "top.inst.b"})

	assert.Equal(t, "top.result.2", table["top.result[2]"])
	assert.Equal(t, "top.a", table["top.a"])
	assert.Equal(t, "top.inst.b", table["top.inst.b"])
	_, hasBogusAlias := table["top.inst[b]"]
	assert.False(t, hasBogusAlias, "non-numeric trailing component is not an array index")
}

func TestDottedToIndexed(t *testing.T) {
	alias, ok := dottedToIndexed("top.result.2")
	assert.True(t, ok)
	assert.Equal(t, "top.result[2]", alias)

	_, ok = dottedToIndexed("top.inst")
	assert.False(t, ok)

	_, ok = dottedToIndexed("top.")
	assert.False(t, ok)
}
