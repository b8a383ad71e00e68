// Package nodeclient is the HTTP client sensor nodes use to push readings
// to a streamcam device.
package nodeclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Reading mirrors the update-sensor wire format. Nil fields are omitted so
// nodes with a single sensor can push partial updates.
type Reading struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Water       *int     `json:"waterSensor,omitempty"`
}

type pushResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// Push posts a reading and returns the device's update timestamp.
func (c *Client) Push(r Reading) (int64, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/update-sensor", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to push reading: %w", err)
	}
	defer resp.Body.Close()

	var pr pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, fmt.Errorf("failed to decode device response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("device rejected reading (%d): %s", resp.StatusCode, pr.Message)
	}
	return pr.Timestamp, nil
}
