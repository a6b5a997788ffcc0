package main

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/nerrad567/garage-remote/internal/garage"
	"github.com/nerrad567/garage-remote/internal/infrastructure/config"
	"github.com/nerrad567/garage-remote/internal/infrastructure/logging"
	"github.com/nerrad567/garage-remote/internal/infrastructure/mqtt"
)

// mqttTransport adapts the paho dialer to garage.Transport and adds the
// broker settings that are not per connection.
type mqttTransport struct {
	dialer         *mqtt.Dialer
	logger         *logging.Logger
	tlsConfig      *tls.Config
	connectTimeout time.Duration
}

// newMQTTTransport builds a transport from the broker section of cfg.
func newMQTTTransport(cfg *config.Config, log *logging.Logger) (*mqttTransport, error) {
	tlsConfig, err := mqtt.LoadTLSConfig(cfg.Broker.TLS.CAFile, cfg.Broker.TLS.CertFile, cfg.Broker.TLS.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("loading broker TLS settings: %w", err)
	}
	return &mqttTransport{
		dialer:         mqtt.NewDialer(log),
		logger:         log,
		tlsConfig:      tlsConfig,
		connectTimeout: cfg.GetConnectTimeout(),
	}, nil
}

// Open implements garage.Transport.
func (t *mqttTransport) Open(brokerURL string, opts garage.SessionOptions, listener garage.Listener) (garage.Session, error) {
	options := t.options(brokerURL, opts)
	session, err := t.dialer.Open(brokerURL, options, mqtt.Listener(listener))
	if err != nil {
		return nil, err
	}
	return session, nil
}

// options maps garage session options onto paho options. TLS material is
// only attached to secure URLs.
func (t *mqttTransport) options(brokerURL string, opts garage.SessionOptions) mqtt.Options {
	options := mqtt.Options{
		ClientID:        opts.ClientID,
		ProtocolVersion: opts.ProtocolVersion,
		CleanSession:    opts.Clean,
		AutoReconnect:   opts.Reconnect,
		KeepAlive:       opts.KeepAlive,
		ConnectTimeout:  t.connectTimeout,
		Username:        opts.Username,
		Password:        opts.Password,
	}
	if t.tlsConfig != nil {
		if mqtt.IsSecureURL(brokerURL) {
			options.TLSConfig = t.tlsConfig
		} else {
			t.logger.Warn("broker TLS settings ignored for plaintext URL", "url", brokerURL)
		}
	}
	return options
}

var (
	_ garage.Transport = (*mqttTransport)(nil)
	_ garage.Session   = (*mqtt.Session)(nil)
)
