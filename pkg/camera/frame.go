package camera

// PixelFormat identifies the encoding of a raw frame's bytes.
type PixelFormat int

const (
	// FormatJPEG frames can go onto the wire without re-encoding.
	FormatJPEG PixelFormat = iota
	// FormatRGBA frames are 4 bytes per pixel and need encoding first.
	FormatRGBA
)

func (f PixelFormat) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatRGBA:
		return "rgba"
	default:
		return "unknown"
	}
}

// RawFrame is one captured frame lent out of the hardware pool. The holder
// must call Release exactly once to return the buffer; the data must not be
// touched afterwards.
type RawFrame struct {
	Data   []byte
	Format PixelFormat
	Width  int
	Height int

	pool     *Pool
	released bool
}

// Release returns the frame's buffer to its pool. Safe to call once;
// further calls are no-ops.
func (f *RawFrame) Release() {
	if f.released || f.pool == nil {
		return
	}
	f.released = true
	f.pool.release(f)
}
