// Package report publishes printer state to the MQTT broker.
//
// The Reporter listens to the state manager's changed signal. Signal
// subscribers run while the manager's lock is held, so the callback
// only enqueues onto a buffered channel; a single goroutine does the
// actual publishing.
//
//	state.Manager ──OnStateChange──► Reporter ──channel──► mqtt.Client
//
// Published topics, per printer:
//
//	printlink/<id>/state            retained reduced state
//	printlink/<id>/event/transition transition with attribution
//	printlink/<id>/event/job        job lifecycle events
//	printlink/<id>/telemetry        temperature and progress readings
//
// The Listener goes the other way: it subscribes to
// printlink/<id>/command and forwards pause/resume/stop actions to the
// job driver, so a broker-side controller can manage a running print.
//
// Broker availability itself is covered by the client's last-will
// message on printlink/system/status.
package report
