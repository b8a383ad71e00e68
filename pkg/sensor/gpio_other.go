//go:build !linux

package sensor

import "fmt"

// WaterWatcher is a stub on platforms without GPIO character devices.
type WaterWatcher struct{}

func WatchWater(chipName string, offset int, store *Store) (*WaterWatcher, error) {
	return nil, fmt.Errorf("gpio not available on this platform")
}

func (w *WaterWatcher) Close() {}
