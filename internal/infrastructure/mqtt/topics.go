package mqtt

import "fmt"

// Topic prefixes for the printlink MQTT surface.
//
// All printer topics use the scheme: printlink/{printer_id}/{suffix}.
// The retained state topic always holds the current reportable state so
// new subscribers see the printer's state immediately.
const (
	// TopicPrefix is the base for all printlink topics.
	TopicPrefix = "printlink"

	// TopicPrefixSystem is the base for daemon-level topics.
	TopicPrefixSystem = "printlink/system"
)

// Topics provides builders for printlink MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.PrinterState("printer-001")
//	// Returns: "printlink/printer-001/state"
type Topics struct{}

// PrinterState returns the retained current-state topic for a printer.
//
// Example: printlink/printer-001/state
func (Topics) PrinterState(printerID string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefix, printerID)
}

// PrinterTransition returns the topic for state transition events.
//
// Example: printlink/printer-001/event/transition
func (Topics) PrinterTransition(printerID string) string {
	return fmt.Sprintf("%s/%s/event/transition", TopicPrefix, printerID)
}

// PrinterTelemetry returns the topic for periodic telemetry samples.
//
// Example: printlink/printer-001/telemetry
func (Topics) PrinterTelemetry(printerID string) string {
	return fmt.Sprintf("%s/%s/telemetry", TopicPrefix, printerID)
}

// PrinterJob returns the topic for job lifecycle events.
//
// Example: printlink/printer-001/event/job
func (Topics) PrinterJob(printerID string) string {
	return fmt.Sprintf("%s/%s/event/job", TopicPrefix, printerID)
}

// PrinterCommand returns the topic the daemon listens on for remote
// job commands (pause, resume, stop).
//
// Example: printlink/printer-001/command
func (Topics) PrinterCommand(printerID string) string {
	return fmt.Sprintf("%s/%s/command", TopicPrefix, printerID)
}

// SystemStatus returns the daemon status topic (also used for LWT).
//
// Example: printlink/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllPrinterStates returns a pattern matching every printer's state topic.
//
// Pattern: printlink/+/state
func (Topics) AllPrinterStates() string {
	return fmt.Sprintf("%s/+/state", TopicPrefix)
}

// AllPrinterEvents returns a pattern matching every printer event topic.
//
// Pattern: printlink/+/event/+
func (Topics) AllPrinterEvents() string {
	return fmt.Sprintf("%s/+/event/+", TopicPrefix)
}

// AllTopics returns a pattern matching all printlink topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: printlink/#
func (Topics) AllTopics() string {
	return "printlink/#"
}
