package util

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var (
	errExample = errors.New("example error")
	errWrite   = errors.New("something happened while writing")
	errRead    = errors.New("something happened while reading")
	testData   = []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
)

func TestPanicHandler_noPanic(t *testing.T) {
	a := assert.New(t)
	a.NoError(PanicHandler(func() {}))
}
func TestPanicHandler_panicWithError(t *testing.T) {
	a := assert.New(t)
	a.EqualError(PanicHandler(func() {
		panic(errExample)
	}), errExample.Error())
}
func TestPanicHandler_panicWithString(t *testing.T) {
	a := assert.New(t)
	a.EqualError(PanicHandler(func() {
		panic(errExample.Error())
	}), errExample.Error())
}

func TestMustWrite_good(t *testing.T) {
	var gw goodRW
	a := assert.New(t)
	a.NotPanics(func() {
		MustWrite(gw, testData)
	})
}
func TestMustWrite_error(t *testing.T) {
	var ew errorRW
	a := assert.New(t)
	a.PanicsWithValue(errWrite, func() {
		MustWrite(ew, testData)
	})
}
func TestMustWrite_partial(t *testing.T) {
	var pw partialRW
	a := assert.New(t)
	a.PanicsWithValue(ErrPartialWrite, func() {
		MustWrite(pw, testData)
	})
}

func TestMustRead_good(t *testing.T) {
	var gr goodRW
	a := assert.New(t)
	a.NotPanics(func() {
		buf := make([]byte, len(testData))
		MustRead(gr, buf)
	})
}
func TestMustRead_error(t *testing.T) {
	var er errorRW
	a := assert.New(t)
	a.PanicsWithValue(errRead, func() {
		buf := make([]byte, len(testData))
		MustRead(er, buf)
	})
}
func TestMustRead_partial(t *testing.T) {
	var pr partialRW
	a := assert.New(t)
	a.PanicsWithValue(ErrPartialRead, func() {
		buf := make([]byte, len(testData))
		MustRead(pr, buf)
	})
}

type goodRW struct{}

func (goodRW) Read(p []byte) (n int, err error)  { return len(p), nil }
func (goodRW) Write(p []byte) (n int, err error) { return len(p), nil }

type errorRW struct{}

func (errorRW) Read(p []byte) (n int, err error)  { return 0, errRead }
func (errorRW) Write(p []byte) (n int, err error) { return 0, errWrite }

type partialRW struct{}

func (partialRW) Read(p []byte) (n int, err error)  { return len(p) - 1, nil }
func (partialRW) Write(p []byte) (n int, err error) { return len(p) - 1, nil }
