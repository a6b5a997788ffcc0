package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/garage-remote/internal/garage"
	"github.com/nerrad567/garage-remote/internal/infrastructure/config"
	"github.com/nerrad567/garage-remote/internal/infrastructure/logging"
)

// app carries the process-wide collaborators shared by every command.
type app struct {
	out io.Writer

	// transport overrides the paho-backed transport (tests).
	transport garage.Transport

	configPath string

	// serving is called with the bound API address once serve is ready (tests).
	serving func(addr string)
}

func newApp(out io.Writer) *app {
	return &app{out: out}
}

// connectionFlags override the broker and device sections of the config.
type connectionFlags struct {
	url          string
	username     string
	password     string
	deviceID     string
	commandTopic string
	stateTopic   string
}

func (f *connectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "url", "", "broker URL (overrides broker.url)")
	cmd.Flags().StringVar(&f.username, "username", "", "broker username")
	cmd.Flags().StringVar(&f.password, "password", "", "broker password (prefer GARAGE_MQTT_PASSWORD)")
	cmd.Flags().StringVar(&f.deviceID, "device", "", "device id (overrides device.id)")
	cmd.Flags().StringVar(&f.commandTopic, "command-topic", "", "command topic override")
	cmd.Flags().StringVar(&f.stateTopic, "state-topic", "", "state topic override")
}

// params merges the flags over the configured connection.
func (f *connectionFlags) params(cfg *config.Config) garage.ConnectionParams {
	p := cfg.ConnectionParams()
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&p.URL, f.url)
	override(&p.Username, f.username)
	override(&p.Password, f.password)
	override(&p.DeviceID, f.deviceID)
	override(&p.CommandTopic, f.commandTopic)
	override(&p.StateTopic, f.stateTopic)
	return p
}

// newRootCmd builds the command tree. Running the root command serves.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "garageremote",
		Short:         "Remote control for an MQTT garage door opener",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath(),
		"path to config.yaml (empty for defaults and environment only)")

	root.AddCommand(
		newServeCmd(a),
		newOpenCmd(a),
		newWatchCmd(a),
		newMigrateCmd(a),
		newVersionCmd(a),
	)
	return root
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "garageremote %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// defaultConfigPath returns GARAGE_CONFIG or "" for defaults only.
func defaultConfigPath() string {
	return os.Getenv("GARAGE_CONFIG")
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// consoleLogger keeps stdout free for command output.
func consoleLogger(cfg *config.Config) *logging.Logger {
	lc := cfg.Logging
	if lc.Output == "" || lc.Output == "stdout" {
		lc.Output = "stderr"
	}
	return logging.New(lc, version)
}

// newManager builds a connection manager from the config.
// recorder may be nil.
func (a *app) newManager(cfg *config.Config, log *logging.Logger, recorder garage.Recorder) (*garage.Manager, error) {
	transport := a.transport
	if transport == nil {
		t, err := newMQTTTransport(cfg, log.With("component", "mqtt"))
		if err != nil {
			return nil, err
		}
		transport = t
	}
	return garage.NewManager(garage.ManagerOptions{
		Transport:      transport,
		Logger:         log.With("component", "garage"),
		Recorder:       recorder,
		Source:         cfg.Command.Source,
		KeepAlive:      cfg.GetKeepAlive(),
		ClientIDPrefix: cfg.Broker.ClientIDPrefix,
	}), nil
}
