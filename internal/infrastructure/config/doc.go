// Package config handles loading and validating garage remote configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with GARAGE_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Broker credentials should be set via GARAGE_MQTT_USERNAME and
//     GARAGE_MQTT_PASSWORD rather than committed to the config file
//   - The config file should have restricted permissions (0600)
//   - The API binds to 127.0.0.1 by default; it has no authentication
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	params := cfg.ConnectionParams()
package config
