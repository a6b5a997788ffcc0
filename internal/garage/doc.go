// Package garage implements the connection and state-synchronisation client
// for a remotely triggered garage door opener.
//
// This package manages:
//   - Topic resolution from a device identity (Resolve)
//   - Broker session lifecycle without automatic reconnect (Manager)
//   - Decoding of state messages published by the door controller (Decoder)
//   - The single observable status value consumed by user interfaces (Store)
//
// # Architecture
//
// The door controller publishes its state to garage/<device>/state and
// listens for commands on garage/<device>/command:
//
//	UI ↔ Manager ↔ MQTT Broker ↔ Door Controller
//
// The Manager never talks to the broker directly. It drives a Transport,
// which in production is the paho-backed session from
// internal/infrastructure/mqtt, and publishes every observable change
// through its Store.
//
// # State Machine
//
//	disconnected → connecting → connected → disconnected
//	connecting → error      (session create or subscribe failure)
//	connected  → error      (transport error)
//	error      → connecting (explicit Connect)
//	any        → disconnected, full reset (Disconnect)
//
// Reconnection is deliberately absent: after a lost connection the caller
// must invoke Connect again.
//
// # Usage
//
//	mgr := garage.NewManager(garage.ManagerOptions{Transport: transport, Logger: log})
//	unsubscribe := mgr.Subscribe(func(s garage.Snapshot) {
//	    log.Info("status", "status", s.Status, "state", s.GarageState)
//	})
//	defer unsubscribe()
//
//	if err := mgr.Connect(garage.ConnectionParams{URL: "mqtts://broker:8883", DeviceID: "door1"}); err != nil {
//	    return err // validation failure
//	}
//	...
//	if err := mgr.OpenDoor(); errors.Is(err, garage.ErrNotConnected) {
//	    ...
//	}
package garage
