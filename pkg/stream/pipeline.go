// Package stream turns hardware frames into a continuous multipart MJPEG
// response for one connected client.
package stream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wachiwi/streamcam/pkg/camera"
)

const (
	// Boundary separates multipart parts; clients depend on the exact token.
	Boundary = "frame"
	// ContentType is the response content type announcing the boundary.
	ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

	// JPEGQuality is the fixed re-encoding quality.
	JPEGQuality = 80
	// ChunkSize bounds a single payload write.
	ChunkSize = 4096
	// FrameDelay paces frames; it is rate limiting, not transport framing.
	FrameDelay = 100 * time.Millisecond
	// RetryBackoff is the wait after a capture or encode failure.
	RetryBackoff = 100 * time.Millisecond
)

// ErrStreamActive is returned when a second session is attempted while one
// is running. The frame pool has no arbitration across consumers, so the
// pipeline admits one session at a time.
var ErrStreamActive = errors.New("a stream session is already active")

// FrameSource lends raw frames. Every successfully acquired frame must be
// released back.
type FrameSource interface {
	Acquire() (*camera.RawFrame, error)
}

// Encoder converts a raw frame to JPEG, returning the bytes and a release
// func that recycles them.
type Encoder interface {
	Encode(raw *camera.RawFrame, quality int) ([]byte, func(), error)
}

// Client is one connected stream consumer.
type Client interface {
	io.Writer
	Flush()
	Disconnected() bool
}

// Pipeline drives a FrameSource and Encoder into multipart sessions. One
// Pipeline serves one camera; concurrent Run calls beyond the first fail
// with ErrStreamActive.
type Pipeline struct {
	source  FrameSource
	encoder Encoder
	active  atomic.Bool
	frames  atomic.Int64

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

func NewPipeline(source FrameSource, encoder Encoder) *Pipeline {
	return &Pipeline{
		source:  source,
		encoder: encoder,
		sleep:   time.Sleep,
	}
}

// Run streams frames to the client until it disconnects. Capture and encode
// failures are absorbed with a bounded backoff and never end the session;
// only client disconnect does. Run never returns a transport error to the
// caller beyond nil/ErrStreamActive: the stream is best effort.
func (p *Pipeline) Run(c Client) error {
	if !p.active.CompareAndSwap(false, true) {
		return ErrStreamActive
	}
	defer p.active.Store(false)

	slog.Info("stream session started")
	frames := 0
	defer func() {
		slog.Info("stream session ended", "frames", frames)
	}()

	for {
		if c.Disconnected() {
			return nil
		}

		frame, ok := p.nextFrame()
		if !ok {
			p.sleep(RetryBackoff)
			continue
		}

		err := p.writePart(c, frame.Data)
		frame.Release()
		if err != nil {
			// Partial writes are not rolled back; the liveness check
			// at the top of the loop ends the session.
			slog.Debug("stream write failed", "error", err)
		} else {
			frames++
			p.frames.Add(1)
		}

		if c.Disconnected() {
			return nil
		}
		p.sleep(FrameDelay)
	}
}

// FramesStreamed reports the total frames delivered across all sessions.
func (p *Pipeline) FramesStreamed() int64 {
	return p.frames.Load()
}

// nextFrame acquires one raw frame and converts it to a transport frame.
// JPEG frames become zero-copy borrowed views; anything else is re-encoded
// into an owned buffer and the hardware buffer is returned before the owned
// bytes ever hit the wire.
func (p *Pipeline) nextFrame() (Frame, bool) {
	raw, err := p.source.Acquire()
	if err != nil {
		slog.Debug("frame acquire failed", "error", err)
		return Frame{}, false
	}
	if len(raw.Data) == 0 {
		// A zero-length frame is a capture failure.
		raw.Release()
		return Frame{}, false
	}

	if raw.Format == camera.FormatJPEG {
		return NewBorrowed(raw), true
	}

	data, release, err := p.encoder.Encode(raw, JPEGQuality)
	raw.Release()
	if err != nil {
		slog.Warn("frame encode failed, dropping frame", "error", err)
		return Frame{}, false
	}
	return NewOwned(data, release), true
}

// writePart emits one multipart part. Payload writes never exceed ChunkSize.
func (p *Pipeline) writePart(c Client, payload []byte) error {
	if _, err := fmt.Fprintf(c, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", Boundary, len(payload)); err != nil {
		return err
	}
	for off := 0; off < len(payload); off += ChunkSize {
		end := off + ChunkSize
		if end > len(payload) {
			end = len(payload)
		}
		if _, err := c.Write(payload[off:end]); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(c, "\r\n"); err != nil {
		return err
	}
	c.Flush()
	return nil
}
