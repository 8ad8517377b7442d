package vcd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `$timescale 1ns $end
$scope module top $end
$var wire 1 ! clk $end
$scope module inst $end
$var wire 1 " a $end
$var reg 4 # b $end
$upscope $end
$upscope $end
$enddefinitions $end
$dumpvars
0!
0"
b0000 #
$end
#10
1!
b0001 #
#20
0!
b0011 #
`

func mustParse(t *testing.T) *Reader {
	r, err := Parse(strings.NewReader(fixture))
	require.NoError(t, err)
	return r
}

func TestParse_InstanceHierarchy(t *testing.T) {
	r := mustParse(t)

	top, ok := r.GetInstanceID("top")
	require.True(t, ok)
	assert.EqualValues(t, 0, top)

	inst, ok := r.GetInstanceID("top.inst")
	require.True(t, ok)
	assert.EqualValues(t, 1, inst)

	assert.Equal(t, []uint64{inst}, r.GetChildInstances(top))

	_, ok = r.GetInstanceID("top.missing")
	assert.False(t, ok)
}

func TestParse_SignalsPerInstance(t *testing.T) {
	r := mustParse(t)

	top, _ := r.GetInstanceID("top")
	inst, _ := r.GetInstanceID("top.inst")

	assert.Len(t, r.GetInstanceSignals(top), 1)
	assert.Len(t, r.GetInstanceSignals(inst), 2)

	aID, ok := r.GetSignalID("top.inst.a")
	require.True(t, ok)
	sig, ok := r.GetSignal(aID)
	require.True(t, ok)
	assert.Equal(t, "top.inst.a", sig.Name)
	assert.EqualValues(t, 1, sig.Width)
}

func TestParse_SignalValueOverTime(t *testing.T) {
	r := mustParse(t)

	bID, ok := r.GetSignalID("top.inst.b")
	require.True(t, ok)

	v, err := r.GetSignalValue(bID, 0)
	require.NoError(t, err)
	assert.Equal(t, "0", v)

	v, err = r.GetSignalValue(bID, 15)
	require.NoError(t, err)
	assert.Equal(t, "1", v, "value holds from time 10 until the next change")

	v, err = r.GetSignalValue(bID, 20)
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestParse_ChangeTimeline(t *testing.T) {
	r := mustParse(t)

	clkID, ok := r.GetSignalID("top.clk")
	require.True(t, ok)
	assert.Equal(t, []uint64{0, 10, 20}, r.ChangeTimes(clkID))
}

func TestParse_MalformedVarLine(t *testing.T) {
	_, err := Parse(strings.NewReader("$var wire $end\n$enddefinitions $end\n"))
	assert.Error(t, err)
}
