package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wachiwi/streamcam/pkg/alert"
	"github.com/wachiwi/streamcam/pkg/sensor"
	"github.com/wachiwi/streamcam/pkg/wifi"
)

type SensorHandler struct {
	Store           *sensor.Store
	Wifi            *wifi.Manager
	CameraAvailable bool
	Alarm           *alert.Alarm // nil disables the audible alarm
}

// Get returns the current sensor snapshot plus device status. Browsers on
// other origins poll this, so CORS is wide open and caching is disabled.
func (h *SensorHandler) Get(c *gin.Context) {
	setAPIHeaders(c)

	snap := h.Store.Snapshot()
	net := h.Wifi.Snapshot()

	body := gin.H{
		"temperature":     snap.Temperature,
		"humidity":        snap.Humidity,
		"waterSensor":     snap.Water,
		"timestamp":       snap.UpdatedAt.Unix(),
		"serverTime":      time.Now().Unix(),
		"cameraAvailable": h.CameraAvailable,
		"wifiConnected":   net.ClientReachable,
	}
	if net.ClientReachable {
		body["clientIP"] = net.ClientIP
		body["signalStrength"] = net.SignalStrength
	}

	c.JSON(http.StatusOK, body)
}

// Update ingests a sensor node's reading. Any subset of the recognized
// fields is accepted; a body with none of them is a client error.
func (h *SensorHandler) Update(c *gin.Context) {
	setAPIHeaders(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "missing request body"})
		return
	}

	upd, err := sensor.ParseUpdate(body)
	if errors.Is(err, sensor.ErrNoFields) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "no recognized sensor fields"})
		return
	}

	h.Store.Apply(upd)
	if h.Alarm != nil && upd.Water != nil && *upd.Water == 1 {
		h.Alarm.Trigger()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": h.Store.Snapshot().UpdatedAt.Unix(),
	})
}

func setAPIHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}
