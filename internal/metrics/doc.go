// Package metrics exposes garage remote operational metrics to Prometheus.
//
// Metrics implements garage.Recorder for event counters and provides a
// store Observer that mirrors the current connection status and door state
// into gauges. Everything is registered on a private registry served by
// Handler, so tests and multiple instances never collide on the global
// default registerer.
//
// Exported series:
//   - garage_sessions_opened_total
//   - garage_state_messages_total{result}
//   - garage_commands_published_total{result}
//   - garage_failures_total{kind}
//   - garage_connection_status{status}
//   - garage_door_state{state}
//   - garage_last_update_timestamp_seconds
package metrics
