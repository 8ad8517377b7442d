package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hgdb-go/hgdb/internal/hwmodel"
)

func TestSrcMapping_ToClientAndToDB(t *testing.T) {
	sm := newSrcMapping(map[string]string{
		"/build/gen": "/home/user/src",
	})

	assert.Equal(t, "/home/user/src/top.sv", sm.toClient("/build/gen/top.sv"))
	assert.Equal(t, "/build/gen/top.sv", sm.toDB("/home/user/src/top.sv"))
	assert.Equal(t, "/other/top.sv", sm.toClient("/other/top.sv"), "non-matching path is unchanged")
}

func TestSrcMapping_LongestPrefixWins(t *testing.T) {
	sm := newSrcMapping(map[string]string{
		"/build":     "/client/short",
		"/build/gen": "/client/long",
	})
	assert.Equal(t, "/client/long/top.sv", sm.toClient("/build/gen/top.sv"))
}

func TestSrcMapping_Empty(t *testing.T) {
	var sm *srcMapping
	assert.Equal(t, "x.sv", sm.toClient("x.sv"))
	assert.Equal(t, "x.sv", sm.toDB("x.sv"))
}

func TestResolve_NoMatch(t *testing.T) {
	out, ok := resolve("/foo", "/bar", "/other/x.sv")
	assert.False(t, ok)
	assert.Equal(t, "/other/x.sv", out)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "top.sv", baseName("/a/b/top.sv"))
	assert.Equal(t, "top.sv", baseName("top.sv"))
}

func TestComputeUseBaseName(t *testing.T) {
	assert.True(t, computeUseBaseName([]hwmodel.BreakPoint{{Filename: "top.sv"}, {Filename: "sub.sv"}}))
	assert.False(t, computeUseBaseName([]hwmodel.BreakPoint{{Filename: "top.sv"}, {Filename: "a/sub.sv"}}))
}
