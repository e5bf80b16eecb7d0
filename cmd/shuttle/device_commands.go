package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shuttle/internal/device"
	"shuttle/internal/session"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "List removable storage devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session.Session) error {
				devices := s.Detect(cmd.Context())
				if jsonOut {
					return writeJSON(cmd, devices)
				}
				out := cmd.OutOrStdout()
				if len(devices) == 0 {
					fmt.Fprintln(out, "No removable devices found")
					return nil
				}
				selected := ""
				if sel, ok := s.Selected(); ok {
					selected = sel.ID
				}
				fmt.Fprintln(out, renderDevices(devices, selected))
				fmt.Fprintln(out, "Use `shuttle select <index>` to choose a device.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newSelectCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "select <index>",
		Short: "Select a detected device by index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], device.ErrInvalidSelection)
			}
			return ctx.withSession(cmd.Context(), func(s *session.Session) error {
				dev, err := s.Select(cmd.Context(), index)
				if err != nil {
					if len(s.Devices()) == 0 {
						return fmt.Errorf("%w; run `shuttle detect` first", err)
					}
					return err
				}
				if jsonOut {
					return writeJSON(cmd, dev)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Selected %s (%s, %s)\n", dev.ID, dev.Model, dev.Size)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
