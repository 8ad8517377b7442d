package fsdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgdb-go/hgdb/internal/replay"
)

func TestReader_GetSignalValue_NotImplemented(t *testing.T) {
	r, err := Open("unused.fsdb")
	require.NoError(t, err)

	_, err = r.GetSignalValue(0, 0)
	assert.ErrorIs(t, err, replay.ErrNotImplemented)
}

func TestReader_OtherQueriesReportAbsence(t *testing.T) {
	r, _ := Open("unused.fsdb")

	_, ok := r.GetInstanceID("top")
	assert.False(t, ok)
	_, ok = r.GetSignalID("top.clk")
	assert.False(t, ok)
	assert.Nil(t, r.GetInstanceSignals(0))
}
