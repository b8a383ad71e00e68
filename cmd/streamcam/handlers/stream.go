package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wachiwi/streamcam/pkg/stream"
)

type StreamHandler struct {
	Pipeline *stream.Pipeline
}

// Stream serves the live multipart stream. The response never ends on the
// server's initiative; only client disconnect terminates it. A second
// concurrent viewer is turned away because the frame pool serves one
// consumer at a time.
func (h *StreamHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", stream.ContentType)
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	client := &httpStreamClient{w: c.Writer, ctx: c.Request.Context()}
	if err := h.Pipeline.Run(client); errors.Is(err, stream.ErrStreamActive) {
		// Nothing was written yet, so the response can still be replaced.
		c.Header("Content-Type", "text/plain")
		c.String(http.StatusServiceUnavailable, "A stream is already active")
	}
}

// httpStreamClient adapts the gin response writer to the pipeline's client
// contract. Disconnect is observed through the request context.
type httpStreamClient struct {
	w   gin.ResponseWriter
	ctx context.Context
}

func (s *httpStreamClient) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *httpStreamClient) Flush() {
	s.w.Flush()
}

func (s *httpStreamClient) Disconnected() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}
