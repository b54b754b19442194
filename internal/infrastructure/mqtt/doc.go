// Package mqtt provides MQTT client connectivity for printlink.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// printlink publishes printer state, transition events and telemetry to
// a local broker so dashboards and home-automation systems can follow
// the printer without polling the HTTP API.
//
//	printlink ──► MQTT Broker ──► subscribers (dashboards, automations)
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Publish the retained current state
//	topic := mqtt.Topics{}.PrinterState("printer-001")
//	client.Publish(topic, []byte(`{"state":"PRINTING"}`), 1, true)
package mqtt
