// Package streamclient consumes a streamcam device's MJPEG stream from the
// network side, the way monitoring nodes watch a device.
package streamclient

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"time"
)

// Frame is one image pulled off the stream.
type Frame struct {
	Data        []byte
	ContentType string
}

// Watcher pulls frames from a device's /stream endpoint. The stream never
// ends on the device's initiative, so every read failure is treated as a
// dropped connection and the watcher redials after a backoff. A busy device
// answering 503 is redialed the same way.
type Watcher struct {
	URL              string
	HTTPClient       *http.Client
	ReconnectBackoff time.Duration

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

func New(url string) *Watcher {
	return &Watcher{
		URL: url,
		// No client timeout: the stream is long-lived on purpose.
		HTTPClient:       &http.Client{},
		ReconnectBackoff: time.Second,
		sleep:            time.Sleep,
	}
}

// Run pulls frames until ctx is cancelled, passing each one to handle. A
// dropped stream is redialed after the backoff; only ctx cancellation, a
// non-stream endpoint, or a handle error ends the run.
func (w *Watcher) Run(ctx context.Context, handle func(Frame) error) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := w.consume(ctx, handle); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		w.sleep(w.ReconnectBackoff)
	}
}

// consume reads one connection's worth of frames. It returns nil when the
// stream drops, so the caller redials; errors mean the run is over.
func (w *Watcher) consume(ctx context.Context, handle func(Frame) error) error {
	req, err := http.NewRequestWithContext(ctx, "GET", w.URL, nil)
	if err != nil {
		return err
	}
	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		// Device unreachable or connection lost before the first byte.
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/x-mixed-replace" || params["boundary"] == "" {
		return fmt.Errorf("%s is not a multipart stream: %q", w.URL, resp.Header.Get("Content-Type"))
	}

	reader := multipart.NewReader(resp.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err != nil {
			return nil
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil
		}
		if err := handle(Frame{Data: data, ContentType: part.Header.Get("Content-Type")}); err != nil {
			return err
		}
	}
}
