// Package cloud is the HTTP client side of the control plane: telemetry
// upload and desired-relay-state polling.
package cloud

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"siboltech/hydroponics/sensor"
)

// StatusError is a non-success HTTP response. The server answered, so the
// link itself is fine; the caller logs and waits for the next natural cycle.
type StatusError int

func (e StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", int(e))
}

// ErrBadPayload marks a response body that did not parse. Like StatusError,
// something answered, so the link stays up.
var ErrBadPayload = errors.New("unparseable response payload")

// Client talks to the ingest/control-plane server. Calls block; the control
// loop is deliberately cooperative and single-threaded.
type Client struct {
	base   string
	key    string
	device string
	http   *http.Client
}

func NewClient(base, key, device string) *Client {
	return &Client{
		base:   base,
		key:    key,
		device: device,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

type uploadReadings struct {
	TemperatureC float64 `json:"temperature_c"`
	Humidity     float64 `json:"humidity"`
	TDSPPM       float64 `json:"tds_ppm"`
	PHVoltageV   float64 `json:"ph_voltage_v"`
	DOVoltageV   float64 `json:"do_voltage_v"`
}

type uploadPayload struct {
	Key      string         `json:"key"`
	Device   string         `json:"device"`
	Readings uploadReadings `json:"readings"`
}

// Upload pushes one snapshot. Fire-and-forget: a failed upload is lost, the
// caller only logs the outcome.
func (c *Client) Upload(s sensor.Snapshot) error {
	body, err := json.Marshal(uploadPayload{
		Key:    c.key,
		Device: c.device,
		Readings: uploadReadings{
			TemperatureC: s.TemperatureC,
			Humidity:     s.Humidity,
			TDSPPM:       s.TDSPPM,
			PHVoltageV:   s.PHVoltage,
			DOVoltageV:   s.DOVoltage,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal readings: %w", err)
	}
	resp, err := c.http.Post(c.base+"/api/ingest", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return StatusError(resp.StatusCode)
	}
	return nil
}

type pendingResponse struct {
	States string `json:"states"`
}

// FetchPending polls the desired relay mask. The caller validates the mask
// length against its bank size.
func (c *Client) FetchPending() (string, error) {
	resp, err := c.http.Get(c.base + "/api/relay/pending")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", StatusError(resp.StatusCode)
	}
	var pending pendingResponse
	if err := json.NewDecoder(resp.Body).Decode(&pending); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return pending.States, nil
}

// Reachable probes the server's ping endpoint once.
func (c *Client) Reachable() bool {
	resp, err := c.http.Get(c.base + "/ping")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
