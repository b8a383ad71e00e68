//go:build !darwin && !(linux && arm64)

package camera

import (
	"image"
	"log/slog"
	"time"
)

// startCapture generates a synthetic RGBA test pattern on platforms without
// camera hardware. The frames are deliberately left unencoded so the JPEG
// re-encoding path gets exercised in development.
func (c *Camera) startCapture() error {
	slog.Warn("no camera hardware on this platform, generating test pattern")

	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(c.fps))
		defer ticker.Stop()

		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.pool.Fill(c.testPattern(), FormatRGBA, c.width, c.height)
			}
		}
	}()

	return nil
}

func (c *Camera) testPattern() []byte {
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	shade := byte(time.Now().Unix() % 256)

	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			offset := y*img.Stride + x*4
			img.Pix[offset] = shade
			img.Pix[offset+1] = byte((x * 255) / c.width)
			img.Pix[offset+2] = byte((y * 255) / c.height)
			img.Pix[offset+3] = 255
		}
	}
	return img.Pix
}
