package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
)

// JPEGEncoder converts raw pixel frames to JPEG. Output buffers are pooled;
// the release func returned by Encode hands the buffer back, so the caller
// owns the bytes only until it calls release.
type JPEGEncoder struct {
	buffers sync.Pool
}

func NewJPEGEncoder() *JPEGEncoder {
	return &JPEGEncoder{
		buffers: sync.Pool{
			New: func() any { return new(bytes.Buffer) },
		},
	}
}

// Encode produces a JPEG at the given quality from a raw frame. The input
// frame is not released; that stays the caller's job.
func (e *JPEGEncoder) Encode(raw *RawFrame, quality int) ([]byte, func(), error) {
	var img image.Image
	switch raw.Format {
	case FormatRGBA:
		if len(raw.Data) < raw.Width*raw.Height*4 {
			return nil, nil, fmt.Errorf("rgba frame too short: %d bytes for %dx%d", len(raw.Data), raw.Width, raw.Height)
		}
		img = &image.RGBA{
			Pix:    raw.Data,
			Stride: raw.Width * 4,
			Rect:   image.Rect(0, 0, raw.Width, raw.Height),
		}
	default:
		return nil, nil, fmt.Errorf("cannot encode pixel format %s", raw.Format)
	}

	buf := e.buffers.Get().(*bytes.Buffer)
	buf.Reset()
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		e.buffers.Put(buf)
		return nil, nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	release := func() {
		buf.Reset()
		e.buffers.Put(buf)
	}
	return buf.Bytes(), release, nil
}
