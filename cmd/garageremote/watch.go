package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nerrad567/garage-remote/internal/garage"
	"github.com/nerrad567/garage-remote/internal/infrastructure/config"
)

func newWatchCmd(a *app) *cobra.Command {
	var flags connectionFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect and print status changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return a.runWatch(cmd.Context(), cfg, flags.params(cfg))
		},
	}
	flags.register(cmd)
	return cmd
}

// runWatch prints every snapshot until ctx is cancelled.
func (a *app) runWatch(ctx context.Context, cfg *config.Config, params garage.ConnectionParams) error {
	manager, err := a.newManager(cfg, consoleLogger(cfg), nil)
	if err != nil {
		return err
	}
	printer := &statusPrinter{out: a.out, now: time.Now}
	defer manager.Subscribe(printer.Print)()

	if err := manager.Connect(params); err != nil {
		return fmt.Errorf("connecting: %w", err)
	}

	<-ctx.Done()
	manager.Disconnect()
	return nil
}

// statusPrinter renders snapshots as single coloured lines.
type statusPrinter struct {
	out io.Writer
	now func() time.Time
}

var (
	statusColors = map[garage.ConnectionStatus]*color.Color{
		garage.StatusConnected:    color.New(color.FgGreen, color.Bold),
		garage.StatusConnecting:   color.New(color.FgYellow),
		garage.StatusError:        color.New(color.FgRed, color.Bold),
		garage.StatusDisconnected: color.New(color.Faint),
	}
	stateColors = map[garage.DeviceState]*color.Color{
		garage.StateListening:  color.New(color.FgGreen),
		garage.StateTriggering: color.New(color.FgCyan, color.Bold),
		garage.StateThrottled:  color.New(color.FgMagenta),
		garage.StateUnknown:    color.New(color.Faint),
	}
	errorColor = color.New(color.FgRed)
)

// Print is a garage.Observer.
func (p *statusPrinter) Print(s garage.Snapshot) {
	var b strings.Builder
	b.WriteString(p.now().Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(colorFor(statusColors, s.Status).Sprintf("%-12s", s.Status))
	b.WriteString(" door=")
	b.WriteString(colorFor(stateColors, s.GarageState).Sprint(s.GarageState))
	if s.CooldownMs != nil {
		fmt.Fprintf(&b, " cooldown=%s", time.Duration(*s.CooldownMs)*time.Millisecond)
	}
	if s.Connection != nil && s.Status == garage.StatusConnected {
		fmt.Fprintf(&b, " device=%s", s.Connection.DeviceID)
	}
	if s.Error != "" {
		b.WriteByte(' ')
		b.WriteString(errorColor.Sprint(s.Error))
	}
	fmt.Fprintln(p.out, b.String())
}

func colorFor[K comparable](palette map[K]*color.Color, key K) *color.Color {
	if c, ok := palette[key]; ok {
		return c
	}
	return color.New(color.Reset)
}
