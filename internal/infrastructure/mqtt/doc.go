// Package mqtt provides broker sessions for the garage remote.
//
// This package manages:
//   - Opening one paho.mqtt.golang session per connection attempt
//   - Broker URL validation and TLS for secure schemes
//   - Asynchronous subscribe and publish with acknowledgement callbacks
//   - Detaching listeners so a superseded session cannot report events
//
// # Architecture
//
// A Session is deliberately short-lived. Reconnection is never automatic:
// when a connection drops, the session reports an error followed by close,
// and the owner decides whether to open a new one.
//
//	garage.Manager -> Dialer.Open -> Session <-> MQTT Broker <-> Door controller
//
// Every callback is delivered on a paho goroutine. Open, Subscribe and
// Publish return immediately; outcomes arrive through the Listener or the
// done callback passed to each request.
//
// # Security Considerations
//
//   - ssl://, tls://, mqtts://, tcps:// and wss:// dial with TLS 1.2 or newer
//   - LoadTLSConfig adds a private CA and client certificates from PEM files
//   - Credentials are only sent when a username is configured
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	dialer := mqtt.NewDialer(logger)
//	session, err := dialer.Open("wss://broker.example:8884/mqtt", mqtt.Options{
//	    ClientID:     "garage-web-1a2b3c4d",
//	    CleanSession: true,
//	}, mqtt.Listener{
//	    OnConnect: func() { log.Println("connected") },
//	    OnMessage: func(topic string, payload []byte) { log.Printf("%s: %s", topic, payload) },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.End(false)
//
//	session.Subscribe("garage/door1/state", 1, func(err error) {
//	    if err != nil {
//	        log.Printf("subscribe: %v", err)
//	    }
//	})
package mqtt
