package stream

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wachiwi/streamcam/pkg/camera"
)

type fakeClient struct {
	buf          bytes.Buffer
	writes       []int
	disconnected bool
	// disconnectAfterParts flips disconnected once that many parts flushed.
	disconnectAfterParts int
	parts                int
	onWrite              func()
}

func (c *fakeClient) Write(p []byte) (int, error) {
	if c.onWrite != nil {
		c.onWrite()
		c.onWrite = nil
	}
	c.writes = append(c.writes, len(p))
	return c.buf.Write(p)
}

func (c *fakeClient) Flush() {
	c.parts++
	if c.disconnectAfterParts > 0 && c.parts >= c.disconnectAfterParts {
		c.disconnected = true
	}
}

func (c *fakeClient) Disconnected() bool { return c.disconnected }

type fakeEncoder struct {
	calls    int
	quality  int
	output   []byte
	err      error
	released int
}

func (e *fakeEncoder) Encode(raw *camera.RawFrame, quality int) ([]byte, func(), error) {
	e.calls++
	e.quality = quality
	if e.err != nil {
		return nil, nil, e.err
	}
	return e.output, func() { e.released++ }, nil
}

type failingSource struct {
	acquires int
}

func (s *failingSource) Acquire() (*camera.RawFrame, error) {
	s.acquires++
	return nil, camera.ErrNoFrame
}

func newTestPipeline(source FrameSource, encoder Encoder) *Pipeline {
	p := NewPipeline(source, encoder)
	p.sleep = func(time.Duration) {}
	return p
}

func TestBorrowedPathStreamsJPEGWithoutEncoder(t *testing.T) {
	pool := camera.NewPool()
	payload := bytes.Repeat([]byte{0xAB}, 12345)
	pool.Fill(payload, camera.FormatJPEG, 640, 480)

	enc := &fakeEncoder{}
	client := &fakeClient{disconnectAfterParts: 1}

	if err := newTestPipeline(pool, enc).Run(client); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if enc.calls != 0 {
		t.Errorf("encoder must not run for transport-format frames, ran %d times", enc.calls)
	}

	out := client.buf.String()
	wantHeader := fmt.Sprintf("--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(payload))
	if !strings.HasPrefix(out, wantHeader) {
		t.Errorf("bad part header, got %q", out[:min(len(out), 80)])
	}
	if got := strings.Count(out, "--frame\r\n"); got != 1 {
		t.Errorf("expected exactly one part, got %d", got)
	}
	if !strings.HasSuffix(out, "\r\n") {
		t.Error("part must end with a line terminator")
	}
	if len(out) != len(wantHeader)+len(payload)+2 {
		t.Errorf("unexpected stream length %d", len(out))
	}

	// The borrowed frame must have gone back to the pool.
	pool.Fill([]byte{0x01}, camera.FormatJPEG, 0, 0)
	f, err := pool.Acquire()
	if err != nil {
		t.Errorf("borrowed frame was not returned: %v", err)
	} else {
		f.Release()
	}
}

func TestPayloadWritesNeverExceedChunkSize(t *testing.T) {
	pool := camera.NewPool()
	pool.Fill(make([]byte, 10000), camera.FormatJPEG, 0, 0)

	client := &fakeClient{disconnectAfterParts: 1}
	if err := newTestPipeline(pool, &fakeEncoder{}).Run(client); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	fullChunks := 0
	for _, n := range client.writes {
		if n > ChunkSize {
			t.Errorf("write of %d bytes exceeds chunk bound %d", n, ChunkSize)
		}
		if n == ChunkSize {
			fullChunks++
		}
	}
	// 10000 bytes split as 4096 + 4096 + 1808.
	if fullChunks != 2 {
		t.Errorf("expected 2 full chunks for a 10000-byte payload, got %d (writes %v)", fullChunks, client.writes)
	}
}

func TestOwnedPathEncodesOnceAndReleasesInOrder(t *testing.T) {
	pool := camera.NewPool()
	raw := make([]byte, 16*12*4)
	pool.Fill(raw, camera.FormatRGBA, 16, 12)

	enc := &fakeEncoder{output: []byte("encoded-jpeg-bytes")}
	client := &fakeClient{disconnectAfterParts: 1}
	client.onWrite = func() {
		// By the first transmit byte the hardware buffer must already be
		// back in the pool: acquiring must report no frame, not an
		// outstanding borrow.
		if _, err := pool.Acquire(); !errors.Is(err, camera.ErrNoFrame) {
			t.Errorf("hardware buffer not released before transmit: %v", err)
		}
	}

	if err := newTestPipeline(pool, enc).Run(client); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if enc.calls != 1 {
		t.Errorf("expected exactly one encoder invocation, got %d", enc.calls)
	}
	if enc.quality != 80 {
		t.Errorf("expected encode quality 80, got %d", enc.quality)
	}
	if enc.released != 1 {
		t.Errorf("owned buffer must be released exactly once, got %d", enc.released)
	}

	wantHeader := fmt.Sprintf("Content-Length: %d", len(enc.output))
	if !strings.Contains(client.buf.String(), wantHeader) {
		t.Errorf("part advertises wrong length: %q", client.buf.String())
	}
}

func TestCaptureFailuresNeverEndTheSession(t *testing.T) {
	source := &failingSource{}
	client := &fakeClient{}

	p := NewPipeline(source, &fakeEncoder{})
	backoffs := 0
	p.sleep = func(d time.Duration) {
		if d != RetryBackoff {
			t.Errorf("expected retry backoff %v, got %v", RetryBackoff, d)
		}
		backoffs++
		if backoffs >= 25 {
			client.disconnected = true
		}
	}

	if err := p.Run(client); err != nil {
		t.Fatalf("Run must absorb capture failures, got %v", err)
	}
	if source.acquires < 25 {
		t.Errorf("expected sustained retries, got %d acquires", source.acquires)
	}
	if client.buf.Len() != 0 {
		t.Errorf("no partial data may be sent on capture failure, got %d bytes", client.buf.Len())
	}
}

func TestZeroLengthFrameIsACaptureFailure(t *testing.T) {
	pool := camera.NewPool()
	pool.Fill(nil, camera.FormatJPEG, 0, 0)

	client := &fakeClient{}
	p := newTestPipeline(pool, &fakeEncoder{})
	retries := 0
	p.sleep = func(time.Duration) {
		retries++
		if retries >= 3 {
			client.disconnected = true
		}
	}

	if err := p.Run(client); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if client.buf.Len() != 0 {
		t.Errorf("zero-length frame must not produce output, got %d bytes", client.buf.Len())
	}

	// The rejected frame must not be left checked out.
	pool.Fill([]byte{0x01}, camera.FormatJPEG, 0, 0)
	if _, err := pool.Acquire(); err != nil {
		t.Errorf("zero-length frame was not released: %v", err)
	}
}

func TestEncodeFailureDropsFrameAndRetries(t *testing.T) {
	pool := camera.NewPool()
	pool.Fill(make([]byte, 64), camera.FormatRGBA, 4, 4)

	enc := &fakeEncoder{err: errors.New("encoder out of memory")}
	client := &fakeClient{}
	p := newTestPipeline(pool, enc)
	retries := 0
	p.sleep = func(time.Duration) {
		retries++
		if retries >= 3 {
			client.disconnected = true
		}
	}

	if err := p.Run(client); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if client.buf.Len() != 0 {
		t.Errorf("no partial data may be sent on encode failure, got %d bytes", client.buf.Len())
	}

	// The hardware buffer must have been returned despite the failure.
	pool.Fill([]byte{0x01}, camera.FormatJPEG, 0, 0)
	if _, err := pool.Acquire(); err != nil {
		t.Errorf("raw frame leaked on encode failure: %v", err)
	}
}

func TestSecondConcurrentSessionIsRejected(t *testing.T) {
	p := newTestPipeline(&failingSource{}, &fakeEncoder{})
	p.active.Store(true)

	err := p.Run(&fakeClient{})
	if !errors.Is(err, ErrStreamActive) {
		t.Fatalf("expected ErrStreamActive, got %v", err)
	}

	p.active.Store(false)
	client := &fakeClient{disconnected: true}
	if err := p.Run(client); err != nil {
		t.Errorf("pipeline must admit a new session once idle: %v", err)
	}
}
