package camera

import (
	"bytes"
	"io"
	"log/slog"
)

const pumpChunkSize = 4096

// JPEG markers
var (
	soi = []byte{0xFF, 0xD8}
	eoi = []byte{0xFF, 0xD9}
)

// pumpMJPEG reads a raw MJPEG byte stream, extracts complete JPEG frames
// between SOI and EOI markers, and deposits each one into the pool. It
// returns when the reader fails, typically because the capture process
// exited.
func (c *Camera) pumpMJPEG(r io.Reader) {
	buf := make([]byte, pumpChunkSize)
	var frameBuffer []byte

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		n, err := r.Read(buf)
		if err != nil {
			slog.Error("capture stream read error", "error", err)
			return
		}
		if n == 0 {
			continue
		}

		chunk := buf[:n]

		// Outside a frame: discard everything before the next SOI.
		if len(frameBuffer) == 0 {
			start := bytes.Index(chunk, soi)
			if start == -1 {
				continue
			}
			chunk = chunk[start:]
		}
		frameBuffer = append(frameBuffer, chunk...)

		// A single read may carry more than one complete frame.
		for {
			end := bytes.Index(frameBuffer, eoi)
			if end == -1 {
				break
			}
			frame := frameBuffer[:end+2]
			if start := bytes.Index(frame, soi); start != -1 {
				c.pool.Fill(frame[start:], FormatJPEG, c.width, c.height)
			}
			// Bytes after EOI belong to the next frame; keep them.
			remaining := frameBuffer[end+2:]
			if len(remaining) > 0 {
				frameBuffer = append(frameBuffer[:0:0], remaining...)
			} else {
				frameBuffer = nil
				break
			}
		}

		// Safety: a stream that never yields an EOI must not grow the
		// buffer forever.
		if len(frameBuffer) > 10*1024*1024 {
			frameBuffer = nil
			slog.Warn("frame buffer overflow, resetting")
		}
	}
}
