package main

import (
	"github.com/pkg/errors"

	"github.com/hgdb-go/hgdb/internal/rtl"
)

// newNativeVPI returns the cgo-backed binding to the simulator's
// procedural interface. This build carries no simulator-specific
// backend (none of the pack's dependencies ships one, and vendoring a
// proprietary VPI header is out of scope — see DESIGN.md's FSDB stub
// decision for the same reasoning); a deployment that links hgdbd
// directly into a Verilator or VCS process replaces this file with a
// real implementation of rtl.VPI behind a build tag.
func newNativeVPI() (rtl.VPI, error) {
	return nil, errors.New("hgdbd: no native VPI backend linked into this build; use hgdbreplay for waveform-only sessions")
}
