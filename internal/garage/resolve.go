package garage

import (
	"fmt"
	"strings"
)

// Default topic layout shared with the door controller firmware.
const (
	topicRoot          = "garage"
	commandTopicSuffix = "command"
	stateTopicSuffix   = "state"
)

// CommandTopic returns the default command topic for a device.
//
// Example: garage/door1/command
func CommandTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", topicRoot, deviceID, commandTopicSuffix)
}

// StateTopic returns the default state topic for a device.
//
// Example: garage/door1/state
func StateTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", topicRoot, deviceID, stateTopicSuffix)
}

// Resolve validates params and derives the topics for one session.
//
// Resolve is a pure function: identical input always yields an equal
// ResolvedConnection. Explicit topic overrides win over the defaults.
//
// Returns:
//   - ResolvedConnection: Normalised connection details
//   - error: *ValidationError if the device id or URL is blank
func Resolve(params ConnectionParams) (ResolvedConnection, error) {
	deviceID := strings.TrimSpace(params.DeviceID)
	if deviceID == "" {
		return ResolvedConnection{}, &ValidationError{Field: "deviceId", Message: "Device ID is required"}
	}

	url := strings.TrimSpace(params.URL)
	if url == "" {
		return ResolvedConnection{}, &ValidationError{Field: "url", Message: "Broker URL is required"}
	}

	commandTopic := strings.TrimSpace(params.CommandTopic)
	if commandTopic == "" {
		commandTopic = CommandTopic(deviceID)
	}

	stateTopic := strings.TrimSpace(params.StateTopic)
	if stateTopic == "" {
		stateTopic = StateTopic(deviceID)
	}

	return ResolvedConnection{
		URL:          url,
		Username:     strings.TrimSpace(params.Username),
		Password:     params.Password,
		DeviceID:     deviceID,
		CommandTopic: commandTopic,
		StateTopic:   stateTopic,
	}, nil
}
