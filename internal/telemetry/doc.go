// Package telemetry polls the printer for temperatures, SD status and
// print progress, and forwards parsed readings to InfluxDB.
//
// The Poller sends the query commands on a fixed interval; responses
// come back on the ordinary output stream and are dispatched by the
// serial parser like any other line. The Collector registers the
// handlers that turn those lines into time-series points.
//
//	Poller ──M105/M27/M73──► printer ──response lines──► serial.Parser
//	                                                        │
//	                                     Collector ◄────────┘
//	                                        │
//	                                        ▼
//	                                  influxdb.Client
//
// The polling loop wakes frequently and polls rarely, so shutdown is
// never delayed by a long interval.
package telemetry
