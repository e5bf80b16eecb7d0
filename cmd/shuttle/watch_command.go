package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"shuttle/internal/device"
	"shuttle/internal/monitor"
	"shuttle/internal/session"
)

var newMonitor = func(ctx *commandContext, handler monitor.Handler) (hotplugMonitor, error) {
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	return monitor.New(logger, handler), nil
}

type hotplugMonitor interface {
	Start(ctx context.Context) error
	Stop()
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run detection whenever a disk is plugged in or removed (Linux)",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return ctx.withSession(runCtx, func(s *session.Session) error {
				var mu sync.Mutex
				render := func(devices []device.Device) {
					mu.Lock()
					defer mu.Unlock()
					if jsonOut {
						_ = writeJSON(cmd, devices)
						return
					}
					out := cmd.OutOrStdout()
					if len(devices) == 0 {
						fmt.Fprintln(out, "No removable devices found")
						return
					}
					fmt.Fprintln(out, renderDevices(devices, ""))
				}

				mon, err := newMonitor(ctx, func(evtCtx context.Context, evt monitor.Event) {
					if !jsonOut {
						mu.Lock()
						fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", evt.Action, evt.Device)
						mu.Unlock()
					}
					render(s.Detect(evtCtx))
				})
				if err != nil {
					return err
				}

				render(s.Detect(runCtx))
				if err := mon.Start(runCtx); err != nil {
					if errors.Is(err, monitor.ErrUnsupported) {
						return fmt.Errorf("watch: %w", err)
					}
					return fmt.Errorf("start hotplug monitor: %w", err)
				}
				defer mon.Stop()

				<-runCtx.Done()
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output each detection as JSON")
	return cmd
}
