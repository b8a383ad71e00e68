package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wachiwi/streamcam/pkg/wifi"
)

type StatusHandler struct {
	Wifi   *wifi.Manager
	APSSID string
}

// NetworkStatus reports the connectivity posture for the dashboard.
func (h *StatusHandler) NetworkStatus(c *gin.Context) {
	setAPIHeaders(c)

	net := h.Wifi.Snapshot()
	body := gin.H{
		"state":         string(net.State),
		"wifiConnected": net.ClientReachable,
		"apSSID":        h.APSSID,
	}
	if net.ClientReachable {
		body["clientIP"] = net.ClientIP
		body["signalStrength"] = net.SignalStrength
	}
	c.JSON(http.StatusOK, body)
}

// RetryJoin is the external re-trigger out of host-only fallback; the
// manager never re-attempts the client network on its own.
func (h *StatusHandler) RetryJoin(c *gin.Context) {
	setAPIHeaders(c)
	h.Wifi.RetryJoin()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": string(h.Wifi.CurrentState())})
}
