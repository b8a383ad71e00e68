package camera

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/wachiwi/streamcam/pkg/config"
)

// Camera owns the capture hardware and the frame pool it feeds. Frames are
// handed out one at a time through Acquire and must be released back.
type Camera struct {
	mu      sync.Mutex
	width   int
	height  int
	fps     int
	pool    *Pool
	running bool
	stop    chan struct{}
}

func New(cfg config.CameraConfig) *Camera {
	return &Camera{
		width:  cfg.Width,
		height: cfg.Height,
		fps:    cfg.FPS,
		pool:   NewPool(),
		stop:   make(chan struct{}),
	}
}

// Start brings up the platform capture backend. A failure here disables the
// streaming feature for the boot; the rest of the device stays up.
func (c *Camera) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("camera is already running")
	}
	if err := c.startCapture(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	c.running = true
	slog.Info("camera started", "width", c.width, "height", c.height, "fps", c.fps)
	return nil
}

// Stop shuts down the capture backend.
func (c *Camera) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.running = false
	close(c.stop)
	slog.Info("camera stopped")
}

// Acquire lends the most recent captured frame. The caller must Release it.
func (c *Camera) Acquire() (*RawFrame, error) {
	return c.pool.Acquire()
}
