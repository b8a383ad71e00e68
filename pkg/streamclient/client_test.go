package streamclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wachiwi/streamcam/pkg/stream"
)

func writePart(w http.ResponseWriter, payload []byte) {
	fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", stream.Boundary, len(payload))
	w.Write(payload)
	io.WriteString(w, "\r\n")
	w.(http.Flusher).Flush()
}

// closeStream terminates the multipart stream so the last part is readable;
// an unterminated trailing part is indistinguishable from a truncated one
// and gets dropped by the client.
func closeStream(w http.ResponseWriter) {
	fmt.Fprintf(w, "--%s--\r\n", stream.Boundary)
	w.(http.Flusher).Flush()
}

func TestRunReadsFramesAndReconnects(t *testing.T) {
	var conns atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := conns.Add(1)
		w.Header().Set("Content-Type", stream.ContentType)
		// Two parts, then the connection drops.
		writePart(w, []byte(fmt.Sprintf("conn%d-frame1", n)))
		writePart(w, []byte(fmt.Sprintf("conn%d-frame2", n)))
		closeStream(w)
	}))
	defer server.Close()

	watcher := New(server.URL)
	backoffs := 0
	watcher.sleep = func(d time.Duration) {
		if d != watcher.ReconnectBackoff {
			t.Errorf("expected reconnect backoff %v, got %v", watcher.ReconnectBackoff, d)
		}
		backoffs++
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var frames []string
	err := watcher.Run(ctx, func(f Frame) error {
		if f.ContentType != "image/jpeg" {
			t.Errorf("expected image/jpeg part, got %q", f.ContentType)
		}
		frames = append(frames, string(f.Data))
		if len(frames) == 4 {
			cancel()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"conn1-frame1", "conn1-frame2", "conn2-frame1", "conn2-frame2"}
	if len(frames) != len(want) {
		t.Fatalf("expected %d frames across reconnects, got %v", len(want), frames)
	}
	for i, w := range want {
		if frames[i] != w {
			t.Errorf("frame %d: expected %q, got %q", i, w, frames[i])
		}
	}
	if conns.Load() < 2 {
		t.Errorf("expected a reconnect after the stream dropped, got %d connections", conns.Load())
	}
	if backoffs < 1 {
		t.Errorf("expected a backoff between connections, got %d", backoffs)
	}
}

func TestRunRetriesWhileDeviceBusy(t *testing.T) {
	var conns atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if conns.Add(1) == 1 {
			http.Error(w, "A stream is already active", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", stream.ContentType)
		writePart(w, []byte("frame"))
		closeStream(w)
	}))
	defer server.Close()

	watcher := New(server.URL)
	watcher.sleep = func(time.Duration) {}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := 0
	err := watcher.Run(ctx, func(f Frame) error {
		frames++
		cancel()
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if frames != 1 {
		t.Errorf("expected one frame past the busy response, got %d", frames)
	}
	if conns.Load() < 2 {
		t.Errorf("expected a retry after 503, got %d connections", conns.Load())
	}
}

func TestRunRejectsNonStreamEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html>not a stream</html>")
	}))
	defer server.Close()

	watcher := New(server.URL)
	watcher.sleep = func(time.Duration) {}

	err := watcher.Run(context.Background(), func(Frame) error { return nil })
	if err == nil {
		t.Fatal("expected error for a non-multipart endpoint")
	}
}

func TestRunStopsOnHandleError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", stream.ContentType)
		writePart(w, []byte("one"))
		writePart(w, []byte("two"))
	}))
	defer server.Close()

	watcher := New(server.URL)
	watcher.sleep = func(time.Duration) {}

	wantErr := errors.New("disk full")
	err := watcher.Run(context.Background(), func(Frame) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the handler's error back, got %v", err)
	}
}
