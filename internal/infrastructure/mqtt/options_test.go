package mqtt

import (
	"crypto/tls"
	"errors"
	"testing"
	"time"
)

func TestBuildClientOptions(t *testing.T) {
	opts, err := buildClientOptions("tcp://127.0.0.1:1883", Options{
		ClientID:     "garage-web-test",
		CleanSession: true,
		Username:     "alice",
		Password:     "secret",
	})
	if err != nil {
		t.Fatalf("buildClientOptions() error = %v", err)
	}

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want [tcp://127.0.0.1:1883]", opts.Servers)
	}
	if opts.ClientID != "garage-web-test" {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, "garage-web-test")
	}
	if opts.Username != "alice" || opts.Password != "secret" {
		t.Errorf("credentials = (%q, %q), want (alice, secret)", opts.Username, opts.Password)
	}
	if opts.ProtocolVersion != 4 {
		t.Errorf("ProtocolVersion = %d, want 4", opts.ProtocolVersion)
	}
	if !opts.CleanSession {
		t.Error("CleanSession = false, want true")
	}
	if opts.AutoReconnect {
		t.Error("AutoReconnect = true, want false")
	}
	if opts.ConnectRetry {
		t.Error("ConnectRetry = true, want false")
	}
	if opts.KeepAlive != 60 {
		t.Errorf("KeepAlive = %d, want 60", opts.KeepAlive)
	}
	if opts.TLSConfig != nil && len(opts.TLSConfig.Certificates) > 0 {
		t.Error("unexpected TLS certificates for plain scheme")
	}
}

func TestBuildClientOptions_NoCredentials(t *testing.T) {
	opts, err := buildClientOptions("mqtt://broker.local", Options{ClientID: "c", Password: "ignored"})
	if err != nil {
		t.Fatalf("buildClientOptions() error = %v", err)
	}
	if opts.Username != "" || opts.Password != "" {
		t.Errorf("credentials = (%q, %q), want empty", opts.Username, opts.Password)
	}
}

func TestBuildClientOptions_KeepAliveAndTimeout(t *testing.T) {
	opts, err := buildClientOptions("ws://broker.local:8080/mqtt", Options{
		ClientID:       "c",
		KeepAlive:      15 * time.Second,
		ConnectTimeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("buildClientOptions() error = %v", err)
	}
	if opts.KeepAlive != 15 {
		t.Errorf("KeepAlive = %d, want 15", opts.KeepAlive)
	}
	if opts.ConnectTimeout != 3*time.Second {
		t.Errorf("ConnectTimeout = %v, want 3s", opts.ConnectTimeout)
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	tests := []struct {
		url     string
		wantTLS bool
	}{
		{url: "wss://broker.example:8884/mqtt", wantTLS: true},
		{url: "mqtts://broker.example:8883", wantTLS: true},
		{url: "ssl://broker.example:8883", wantTLS: true},
		{url: "TLS://broker.example:8883", wantTLS: true},
		{url: "tcp://broker.example:1883", wantTLS: false},
		{url: "ws://broker.example:8080", wantTLS: false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			opts, err := buildClientOptions(tt.url, Options{ClientID: "c"})
			if err != nil {
				t.Fatalf("buildClientOptions() error = %v", err)
			}
			if IsSecureURL(tt.url) != tt.wantTLS {
				t.Errorf("IsSecureURL() = %v, want %v", !tt.wantTLS, tt.wantTLS)
			}
			if !tt.wantTLS {
				return
			}
			if opts.TLSConfig == nil {
				t.Fatal("TLSConfig = nil, want configured")
			}
			if opts.TLSConfig.MinVersion != tls.VersionTLS12 {
				t.Errorf("MinVersion = %x, want TLS 1.2", opts.TLSConfig.MinVersion)
			}
		})
	}
}

func TestBuildClientOptions_CustomTLS(t *testing.T) {
	custom := &tls.Config{MinVersion: tls.VersionTLS13, ServerName: "broker"}
	opts, err := buildClientOptions("mqtts://broker:8883", Options{ClientID: "c", TLSConfig: custom})
	if err != nil {
		t.Fatalf("buildClientOptions() error = %v", err)
	}
	if opts.TLSConfig != custom {
		t.Error("TLSConfig not passed through")
	}
}

func TestBuildClientOptions_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		opts    Options
		wantErr error
	}{
		{name: "missing scheme", url: "broker.local:1883", opts: Options{ClientID: "c"}, wantErr: ErrInvalidBrokerURL},
		{name: "empty", url: "", opts: Options{ClientID: "c"}, wantErr: ErrInvalidBrokerURL},
		{name: "unparseable", url: "tcp://[::1", opts: Options{ClientID: "c"}, wantErr: ErrInvalidBrokerURL},
		{name: "unsupported scheme", url: "ftp://broker.local", opts: Options{ClientID: "c"}, wantErr: ErrUnsupportedScheme},
		{name: "http scheme", url: "http://broker.local", opts: Options{ClientID: "c"}, wantErr: ErrUnsupportedScheme},
		{name: "empty client id", url: "tcp://broker.local", opts: Options{ClientID: "  "}, wantErr: ErrInvalidClientID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildClientOptions(tt.url, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("buildClientOptions() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
