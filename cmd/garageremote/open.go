package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/garage-remote/internal/garage"
	"github.com/nerrad567/garage-remote/internal/infrastructure/config"
)

const (
	// defaultOpenTimeout bounds connect, publish and acknowledgement.
	defaultOpenTimeout = 10 * time.Second

	// snapshotBuffer is the number of status updates queued for a command.
	snapshotBuffer = 16
)

// errClosedBeforeConnect is returned when the session closes while connecting.
var errClosedBeforeConnect = errors.New("connection closed before it was established")

func newOpenCmd(a *app) *cobra.Command {
	var (
		flags   connectionFlags
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Connect, send one open command and disconnect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return a.runOpen(cmd.Context(), cfg, flags.params(cfg), timeout)
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", defaultOpenTimeout, "overall deadline for the command")
	return cmd
}

// commandRecorder reports publish completion back to the open command.
type commandRecorder struct {
	published chan error
}

func (r *commandRecorder) SessionOpened()    {}
func (r *commandRecorder) StateMessage(bool) {}
func (r *commandRecorder) Failure(string)    {}

func (r *commandRecorder) CommandPublished(err error) {
	select {
	case r.published <- err:
	default:
	}
}

// runOpen connects, waits for the state subscription, publishes one open
// command and waits for the broker acknowledgement.
func (a *app) runOpen(ctx context.Context, cfg *config.Config, params garage.ConnectionParams, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	recorder := &commandRecorder{published: make(chan error, 1)}
	manager, err := a.newManager(cfg, consoleLogger(cfg), recorder)
	if err != nil {
		return err
	}
	defer manager.Disconnect()

	updates := make(chan garage.Snapshot, snapshotBuffer)
	defer manager.Subscribe(func(s garage.Snapshot) {
		select {
		case updates <- s:
		default:
		}
	})()
	<-updates // initial snapshot

	if err := manager.Connect(params); err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	if err := waitConnected(ctx, updates); err != nil {
		return err
	}

	if err := manager.OpenDoor(); err != nil {
		return fmt.Errorf("sending open command: %w", err)
	}
	select {
	case err := <-recorder.published:
		if err != nil {
			return fmt.Errorf("publishing open command: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("waiting for publish acknowledgement: %w", ctx.Err())
	}

	snap := manager.Snapshot()
	topic := ""
	if snap.Connection != nil {
		topic = snap.Connection.CommandTopic
	}
	fmt.Fprintf(a.out, "open command sent to %s\n", topic)
	return nil
}

// waitConnected consumes updates until the session is connected or fails.
func waitConnected(ctx context.Context, updates <-chan garage.Snapshot) error {
	for {
		select {
		case s := <-updates:
			switch s.Status {
			case garage.StatusConnected:
				return nil
			case garage.StatusError:
				return fmt.Errorf("connecting: %s", s.Error)
			case garage.StatusDisconnected:
				return errClosedBeforeConnect
			}
		case <-ctx.Done():
			return fmt.Errorf("waiting for connection: %w", ctx.Err())
		}
	}
}
