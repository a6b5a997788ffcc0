// Package api provides the HTTP REST API and WebSocket server for the
// garage remote.
//
// It exposes the connection manager to a browser UI: connect and disconnect,
// trigger the door, read and change the UI language, and follow every
// status transition live over a WebSocket.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
