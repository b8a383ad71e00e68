//go:build darwin

package camera

import (
	"fmt"
	"log/slog"
	"os/exec"
)

// startCapture uses ffmpeg against the built-in webcam so the full JPEG
// path can be exercised during local development.
func (c *Camera) startCapture() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}

	// Most Mac cameras only support 30 fps.
	cmd := exec.Command(
		"ffmpeg",
		"-f", "avfoundation",
		"-framerate", "30",
		"-video_size", fmt.Sprintf("%dx%d", c.width, c.height),
		"-i", "0", // Device 0 = default camera
		"-f", "mjpeg",
		"-q:v", "5",
		"-hide_banner",
		"-loglevel", "error",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	slog.Info("started camera capture process (ffmpeg)", "width", c.width, "height", c.height)

	go c.pumpMJPEG(stdout)

	go func() {
		err := cmd.Wait()
		slog.Warn("camera capture process exited", "error", err)
	}()

	return nil
}
