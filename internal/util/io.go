package util

import (
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrPartialWrite is returned by MustWrite when fewer bytes were
	// written than requested.
	ErrPartialWrite = errors.New("partial write")
	// ErrPartialRead is returned by MustRead when fewer bytes were
	// read than requested.
	ErrPartialRead = errors.New("partial read error")
)

// PanicHandler runs fn and converts any panic into an error. If fn does
// not panic, PanicHandler returns nil.
func PanicHandler(fn func()) (err error) {
	defer func() {
		if obj := recover(); obj != nil {
			var ok bool
			err, ok = obj.(error)
			if !ok {
				err = errors.Errorf("%v", obj)
			}
		}
	}()
	fn()
	return nil
}

// MustWrite writes data to w, panicking on any error or short write.
func MustWrite(w io.Writer, data []byte) {
	n, err := w.Write(data)
	if err != nil {
		panic(err)
	}
	if n != len(data) {
		panic(ErrPartialWrite)
	}
}

// MustRead reads len(data) bytes from r, panicking on any error or
// short read.
func MustRead(r io.Reader, data []byte) {
	n, err := r.Read(data)
	if err != nil {
		panic(err)
	}
	if n != len(data) {
		panic(ErrPartialRead)
	}
}
