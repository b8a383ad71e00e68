// streamwatch follows a streamcam device's MJPEG stream, counting frames and
// optionally saving them to disk. It reconnects whenever the stream drops.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/wachiwi/streamcam/pkg/logger"
	"github.com/wachiwi/streamcam/pkg/streamclient"
)

const fpsWindow = 100

var errDone = errors.New("frame count reached")

func main() {
	logger.Setup()

	url := flag.String("url", "http://localhost:8080/stream", "stream URL of the streamcam device")
	dir := flag.String("dir", "", "directory to save frames into, empty disables saving")
	count := flag.Int("count", 0, "stop after this many frames, 0 runs until interrupted")
	flag.Parse()

	if *dir != "" {
		if err := os.MkdirAll(*dir, 0755); err != nil {
			logger.Fatal("failed to create frame directory", "dir", *dir, "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	frames := 0
	windowStart := time.Now()

	watcher := streamclient.New(*url)
	err := watcher.Run(ctx, func(f streamclient.Frame) error {
		frames++
		if *dir != "" {
			name := filepath.Join(*dir, fmt.Sprintf("frame_%06d.jpg", frames))
			if err := os.WriteFile(name, f.Data, 0644); err != nil {
				return fmt.Errorf("failed to save frame: %w", err)
			}
		}
		if frames%fpsWindow == 0 {
			elapsed := time.Since(windowStart).Seconds()
			slog.Info("streaming", "frames", frames, "fps", fmt.Sprintf("%.1f", fpsWindow/elapsed))
			windowStart = time.Now()
		}
		if *count > 0 && frames >= *count {
			return errDone
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDone) {
		logger.Fatal("stream watch failed", "url", *url, "err", err)
	}
	slog.Info("stream watch finished", "url", *url, "frames", frames)
}
