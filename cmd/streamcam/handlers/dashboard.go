package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	CameraAvailable bool
}

// Index is the main dashboard with the live stream and sensor readout.
func (h *DashboardHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"cameraAvailable": h.CameraAvailable,
	})
}

// Auto is a reduced page that reloads the sensor readout on a timer, for
// wall-mounted browsers that never get user input.
func (h *DashboardHandler) Auto(c *gin.Context) {
	c.HTML(http.StatusOK, "auto.html", gin.H{
		"cameraAvailable": h.CameraAvailable,
	})
}

// Test is a plain connectivity check page.
func (h *DashboardHandler) Test(c *gin.Context) {
	c.HTML(http.StatusOK, "test.html", nil)
}
