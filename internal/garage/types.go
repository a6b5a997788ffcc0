package garage

// DeviceState is the door controller state reported on the state topic.
type DeviceState string

const (
	StateListening  DeviceState = "LISTENING"
	StateTriggering DeviceState = "TRIGGERING"
	StateThrottled  DeviceState = "THROTTLED"

	// StateUnknown is used until a state message arrives or when the
	// reported value cannot be interpreted.
	StateUnknown DeviceState = "UNKNOWN"
)

// parseDeviceState maps a reported value onto the known states.
func parseDeviceState(v string) DeviceState {
	switch DeviceState(v) {
	case StateListening, StateTriggering, StateThrottled, StateUnknown:
		return DeviceState(v)
	default:
		return StateUnknown
	}
}

// ConnectionStatus is the broker session status exposed to user interfaces.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

// ConnectionParams is the user-supplied input for one connection attempt.
type ConnectionParams struct {
	URL          string `json:"url"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	DeviceID     string `json:"deviceId"`
	CommandTopic string `json:"commandTopic,omitempty"`
	StateTopic   string `json:"stateTopic,omitempty"`
}

// ResolvedConnection is the normalised form of ConnectionParams.
// It is immutable for the lifetime of one session.
type ResolvedConnection struct {
	URL          string
	Username     string
	Password     string
	DeviceID     string
	CommandTopic string
	StateTopic   string
}

// PublicConnection is the credential-free echo of a ResolvedConnection.
type PublicConnection struct {
	URL          string `json:"url"`
	DeviceID     string `json:"deviceId"`
	StateTopic   string `json:"stateTopic"`
	CommandTopic string `json:"commandTopic"`
}

// Public returns the fields of the connection that may be shown to a user.
func (r ResolvedConnection) Public() PublicConnection {
	return PublicConnection{
		URL:          r.URL,
		DeviceID:     r.DeviceID,
		StateTopic:   r.StateTopic,
		CommandTopic: r.CommandTopic,
	}
}

// Snapshot is the latest synchronised view of connection and device state.
//
// Pointer fields are never mutated after a Snapshot is published; updates
// always allocate new values.
type Snapshot struct {
	Status      ConnectionStatus  `json:"status"`
	Error       string            `json:"error,omitempty"`
	GarageState DeviceState       `json:"garageState"`
	CooldownMs  *int64            `json:"cooldownMs,omitempty"`
	LastUpdate  *int64            `json:"lastUpdate,omitempty"`
	Connection  *PublicConnection `json:"connection,omitempty"`
}

// InitialSnapshot returns the construction-time defaults.
func InitialSnapshot() Snapshot {
	return Snapshot{
		Status:      StatusDisconnected,
		GarageState: StateUnknown,
	}
}
