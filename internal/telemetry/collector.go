package telemetry

import (
	"strconv"

	"github.com/ondraz/printlink/internal/serial"
)

// Sensor tags used on temperature points.
const (
	SensorHotend = "hotend"
	SensorBed    = "bed"
)

// MetricsSink receives parsed readings. Satisfied by influxdb.Client;
// writes are fire-and-forget, batching and delivery errors are the
// sink's concern.
type MetricsSink interface {
	WriteTemperature(printerID string, sensor string, actual float64, target float64)
	WriteProgress(printerID string, percent int)
}

// MultiSink fans readings out to several sinks.
type MultiSink []MetricsSink

func (m MultiSink) WriteTemperature(printerID string, sensor string, actual float64, target float64) {
	for _, sink := range m {
		sink.WriteTemperature(printerID, sensor, actual, target)
	}
}

func (m MultiSink) WriteProgress(printerID string, percent int) {
	for _, sink := range m {
		sink.WriteProgress(printerID, percent)
	}
}

// Collector turns firmware telemetry lines into time-series points.
type Collector struct {
	printerID string
	sink      MetricsSink
}

// NewCollector registers telemetry handlers on the parser. Temperature
// and percent-done reports are forwarded to the sink tagged with
// printerID.
//
// The M105 reply arrives as an advanced-ok payload ("ok T:...") and is
// claimed whole by the confirmation pattern, so the temperature reading
// is extracted from that payload. Standalone temperature lines, as sent
// by firmwares with periodic autoreporting, are handled too.
func NewCollector(parser *serial.Parser, sink MetricsSink, printerID string) *Collector {
	c := &Collector{
		printerID: printerID,
		sink:      sink,
	}
	parser.Add(serial.ConfirmationRegex, serial.PriorityConfirmation, c.handleConfirmationPayload)
	parser.Add(serial.TemperatureRegex, serial.PriorityDefault, c.handleTemperature)
	parser.Add(serial.PrintInfoRegex, serial.PriorityDefault, c.handleProgress)
	return c
}

// handleConfirmationPayload inspects the trailing payload of an "ok"
// line for a temperature report.
func (c *Collector) handleConfirmationPayload(groups []string) {
	if len(groups) < 2 || groups[1] == "" {
		return
	}
	if m := serial.TemperatureRegex.FindStringSubmatch(groups[1]); m != nil {
		c.handleTemperature(m)
	}
}

// handleTemperature parses temperature submatches: hotend
// actual/target, then bed actual/target.
func (c *Collector) handleTemperature(groups []string) {
	if len(groups) < 5 {
		return
	}
	values := make([]float64, 4)
	for i := range values {
		v, err := strconv.ParseFloat(groups[i+1], 64)
		if err != nil {
			return
		}
		values[i] = v
	}
	c.sink.WriteTemperature(c.printerID, SensorHotend, values[0], values[1])
	c.sink.WriteTemperature(c.printerID, SensorBed, values[2], values[3])
}

// handleProgress parses the percent-done report.
func (c *Collector) handleProgress(groups []string) {
	if len(groups) < 2 {
		return
	}
	percent, err := strconv.Atoi(groups[1])
	if err != nil || percent < 0 {
		return
	}
	c.sink.WriteProgress(c.printerID, percent)
}
