//go:build linux && arm64

package camera

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
)

// startCapture launches a persistent libcamera-apps/rpicam-apps process in
// MJPEG streaming mode and pumps its stdout into the frame pool. Keeping one
// process alive avoids re-initializing the camera hardware per frame.
func (c *Camera) startCapture() error {
	// rpicam-vid on newer OS releases, libcamera-vid on older ones.
	cmdName := "rpicam-vid"
	if _, err := exec.LookPath(cmdName); err != nil {
		cmdName = "libcamera-vid"
		if _, err := exec.LookPath(cmdName); err != nil {
			return fmt.Errorf("neither rpicam-vid nor libcamera-vid found")
		}
	}

	cmd := exec.Command(
		cmdName,
		"--width", fmt.Sprintf("%d", c.width),
		"--height", fmt.Sprintf("%d", c.height),
		"--timeout", "0", // Run indefinitely
		"--nopreview",
		"--codec", "mjpeg",
		"--output", "-",
		"--framerate", fmt.Sprintf("%d", c.fps),
		"--awb", "auto",
		"--metering", "average",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w, stderr: %s", cmdName, err, stderr.String())
	}

	slog.Info("started camera capture process", "command", cmdName, "width", c.width, "height", c.height, "fps", c.fps)

	go c.pumpMJPEG(stdout)

	go func() {
		if err := cmd.Wait(); err != nil {
			slog.Warn("camera capture process exited", "error", err, "stderr", stderr.String())
		} else {
			slog.Info("camera capture process exited cleanly")
		}
	}()

	return nil
}
