package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTemperature writes a temperature sample for one sensor.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteTemperature("printer-001", "nozzle", 214.8, 215.0)
//	client.WriteTemperature("printer-001", "bed", 60.1, 60.0)
func (c *Client) WriteTemperature(printerID string, sensor string, actual float64, target float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"temperature",
		map[string]string{
			"printer_id": printerID,
			"sensor":     sensor,
		},
		map[string]interface{}{
			"actual": actual,
			"target": target,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteProgress writes the current print progress percentage.
func (c *Client) WriteProgress(printerID string, percent int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"print_progress",
		map[string]string{
			"printer_id": printerID,
		},
		map[string]interface{}{
			"percent": percent,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteStateChange writes a state transition marker.
//
// State strings are low-cardinality so they go in tags; the field
// carries a constant value to make the point countable.
func (c *Client) WriteStateChange(printerID string, fromState string, toState string, source string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"state_change",
		map[string]string{
			"printer_id": printerID,
			"from":       fromState,
			"to":         toState,
			"source":     source,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
// Tags index the point and should stay low cardinality; fields carry
// the actual data.
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "printlink-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
