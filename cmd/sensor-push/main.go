// sensor-push sends a one-shot sensor reading to a streamcam device.
// It is meant for external sensor nodes and for poking a device by hand.
package main

import (
	"flag"
	"log/slog"

	"github.com/wachiwi/streamcam/pkg/logger"
	"github.com/wachiwi/streamcam/pkg/nodeclient"
)

func main() {
	logger.Setup()

	url := flag.String("url", "http://localhost:8080", "base URL of the streamcam device")
	temperature := flag.Float64("temperature", -1000, "temperature reading in degrees celsius")
	humidity := flag.Float64("humidity", -1, "relative humidity in percent")
	water := flag.Int("water", -1, "water sensor state, 0 or 1")
	flag.Parse()

	var reading nodeclient.Reading
	if *temperature > -1000 {
		reading.Temperature = temperature
	}
	if *humidity >= 0 {
		reading.Humidity = humidity
	}
	if *water >= 0 {
		reading.Water = water
	}
	if reading.Temperature == nil && reading.Humidity == nil && reading.Water == nil {
		logger.Fatal("no reading given, pass at least one of -temperature, -humidity, -water")
	}

	client := nodeclient.New(*url)
	ts, err := client.Push(reading)
	if err != nil {
		logger.Fatal("failed to push reading", "err", err)
	}
	slog.Info("reading accepted", "url", *url, "timestamp", ts)
}
