package stream

import "github.com/wachiwi/streamcam/pkg/camera"

// Ownership tags which release path a transport frame must take.
type Ownership int

const (
	// Borrowed frames view a hardware buffer and are returned to the
	// frame source on release.
	Borrowed Ownership = iota
	// Owned frames hold encoder output and recycle it on release.
	Owned
)

// Frame is one image ready for the wire plus its release obligation.
// Exactly one release path runs per frame, picked by the ownership tag.
type Frame struct {
	Data      []byte
	ownership Ownership
	release   func()
	released  bool
}

// NewBorrowed wraps a hardware frame without copying. Releasing the Frame
// returns the raw buffer to its pool.
func NewBorrowed(raw *camera.RawFrame) Frame {
	return Frame{
		Data:      raw.Data,
		ownership: Borrowed,
		release:   raw.Release,
	}
}

// NewOwned takes over an encoded buffer together with its recycler.
func NewOwned(data []byte, release func()) Frame {
	return Frame{
		Data:      data,
		ownership: Owned,
		release:   release,
	}
}

func (f *Frame) Ownership() Ownership {
	return f.ownership
}

// Release runs the frame's single release path. Further calls are no-ops.
func (f *Frame) Release() {
	if f.released {
		return
	}
	f.released = true
	f.Data = nil
	if f.release != nil {
		f.release()
	}
}
