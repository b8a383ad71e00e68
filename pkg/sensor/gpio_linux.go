//go:build linux

package sensor

import (
	"fmt"
	"log/slog"

	"github.com/warthog618/go-gpiocdev"
)

// WaterWatcher mirrors an onboard water-level input line into the store.
type WaterWatcher struct {
	line *gpiocdev.Line
}

// WatchWater requests the line with edge detection and pushes every level
// change into the store. The initial level is read once at startup.
func WatchWater(chipName string, offset int, store *Store) (*WaterWatcher, error) {
	handler := func(evt gpiocdev.LineEvent) {
		level := 0
		if evt.Type == gpiocdev.LineEventRisingEdge {
			level = 1
		}
		store.SetWater(level)
		slog.Info("water sensor changed", "level", level)
	}

	line, err := gpiocdev.RequestLine(chipName, offset,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(handler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to request water sensor line %d on %s: %w", offset, chipName, err)
	}

	if v, err := line.Value(); err == nil {
		store.SetWater(v)
	}

	slog.Info("watching water sensor", "chip", chipName, "line", offset)
	return &WaterWatcher{line: line}, nil
}

// Close releases the GPIO line.
func (w *WaterWatcher) Close() {
	if w.line != nil {
		w.line.Close()
	}
}
