package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"net/url"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connection constants.
const (
	// defaultDisconnectQuiesce is the time to wait for pending operations on
	// a graceful disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultKeepAlive is the keepalive interval used when Options leaves it unset.
	defaultKeepAlive = 60 * time.Second

	// protocolVersion311 is the MQTT 3.1.1 protocol level.
	protocolVersion311 = 4

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// maxPayloadSize bounds outgoing payloads (1MB).
	maxPayloadSize = 1 << 20

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// secureSchemes are broker URL schemes that dial over TLS.
var secureSchemes = map[string]bool{
	"ssl":   true,
	"tls":   true,
	"mqtts": true,
	"tcps":  true,
	"wss":   true,
}

// plainSchemes are broker URL schemes that dial without TLS.
var plainSchemes = map[string]bool{
	"tcp":  true,
	"mqtt": true,
	"ws":   true,
}

// Options configures a single broker session.
type Options struct {
	// ClientID identifies the session to the broker. Required.
	ClientID string

	// ProtocolVersion is the MQTT protocol level. Default: 4 (MQTT 3.1.1).
	ProtocolVersion uint

	// CleanSession discards broker-side session state on connect.
	CleanSession bool

	// AutoReconnect lets paho reconnect after a lost connection.
	AutoReconnect bool

	// KeepAlive is the PINGREQ interval. Default: 60s.
	KeepAlive time.Duration

	// ConnectTimeout bounds the network dial. Zero keeps paho's default.
	ConnectTimeout time.Duration

	// Username and Password are sent when Username is non-empty.
	Username string
	Password string

	// TLSConfig overrides the TLS settings for secure schemes.
	TLSConfig *tls.Config
}

// buildClientOptions creates paho MQTT options for one session.
//
// This configures:
//   - Broker URL, validated against the schemes paho can dial
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Clean session and reconnect policy
//   - TLS configuration for ssl, tls, mqtts, tcps and wss
//
// Returns:
//   - *pahomqtt.ClientOptions: Options ready for pahomqtt.NewClient
//   - error: ErrInvalidBrokerURL, ErrUnsupportedScheme or ErrInvalidClientID
func buildClientOptions(brokerURL string, o Options) (*pahomqtt.ClientOptions, error) {
	u, err := parseBrokerURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(o.ClientID) == "" {
		return nil, ErrInvalidClientID
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(u.String())
	opts.SetClientID(o.ClientID)

	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	version := o.ProtocolVersion
	if version == 0 {
		version = protocolVersion311
	}
	opts.SetProtocolVersion(version)

	opts.SetCleanSession(o.CleanSession)

	// A failed initial connect is reported, never retried in the background.
	opts.SetAutoReconnect(o.AutoReconnect)
	opts.SetConnectRetry(false)

	keepAlive := o.KeepAlive
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	opts.SetKeepAlive(keepAlive)

	if o.ConnectTimeout > 0 {
		opts.SetConnectTimeout(o.ConnectTimeout)
	}

	if secureSchemes[u.Scheme] {
		tlsConfig := o.TLSConfig
		if tlsConfig == nil {
			tlsConfig = &tls.Config{MinVersion: tlsMinVersion}
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts, nil
}

// parseBrokerURL validates a broker URL and lower-cases its scheme.
func parseBrokerURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBrokerURL, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q must be scheme://host[:port]", ErrInvalidBrokerURL, raw)
	}
	if !secureSchemes[u.Scheme] && !plainSchemes[u.Scheme] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return u, nil
}

// IsSecureURL reports whether brokerURL dials over TLS.
func IsSecureURL(brokerURL string) bool {
	u, err := parseBrokerURL(brokerURL)
	if err != nil {
		return false
	}
	return secureSchemes[u.Scheme]
}

// LoadTLSConfig builds a client TLS configuration from PEM files.
//
// caFile is trusted in addition to the system roots. certFile and keyFile,
// when both set, enable client certificate authentication. With every
// argument empty it returns nil so the default configuration applies.
//
// Returns:
//   - *tls.Config: Configuration for Options.TLSConfig, or nil
//   - error: ErrInvalidTLSConfig wrapping the read or parse failure
func LoadTLSConfig(caFile, certFile, keyFile string) (*tls.Config, error) {
	if caFile == "" && certFile == "" && keyFile == "" {
		return nil, nil
	}

	cfg := &tls.Config{MinVersion: tlsMinVersion}

	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("%w: reading CA file: %w", ErrInvalidTLSConfig, err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: no certificates in %s", ErrInvalidTLSConfig, caFile)
		}
		cfg.RootCAs = pool
	}

	if certFile != "" || keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: loading client certificate: %w", ErrInvalidTLSConfig, err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}
