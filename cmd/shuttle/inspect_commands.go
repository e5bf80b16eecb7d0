package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"shuttle/internal/journal"
	"shuttle/internal/session"
	"shuttle/internal/volume"
	"shuttle/internal/wallet"
)

type pathsOutput struct {
	MountPoint    string            `json:"mount_point"`
	Paths         map[string]string `json:"paths"`
	WalletPresent bool              `json:"wallet_present"`
	Usage         *volume.Usage     `json:"usage,omitempty"`
}

func newPathsCommand(ctx *commandContext) *cobra.Command {
	var (
		mountPoint string
		prepare    bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Show wallet, inbox and outbox paths on the mounted device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session.Session) error {
				paths := s.WalletPaths(mountPoint)
				if prepare {
					prepared, err := s.PrepareWallet(mountPoint)
					if err != nil {
						return fmt.Errorf("prepare wallet: %w", err)
					}
					paths = prepared
				}
				if len(paths) == 0 {
					return fmt.Errorf("%w; mount a device or pass --mount-point", wallet.ErrNoMountPoint)
				}

				result := pathsOutput{
					MountPoint:    s.WalletMountPoint(mountPoint),
					Paths:         paths,
					WalletPresent: s.WalletExists(mountPoint),
				}
				if usage, err := s.VolumeUsage(cmd.Context(), result.MountPoint); err == nil {
					result.Usage = &usage
				}
				if jsonOut {
					return writeJSON(cmd, result)
				}

				keys := make([]string, 0, len(paths))
				for key := range paths {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				rows := make([][]string, 0, len(keys))
				for _, key := range keys {
					rows = append(rows, []string{key, paths[key]})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"Name", "Path"}, rows, nil))
				fmt.Fprintf(out, "Wallet present: %s\n", yesNo(result.WalletPresent))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&mountPoint, "mount-point", "m", "", "Resolve paths under this directory instead of the active mount")
	cmd.Flags().BoolVar(&prepare, "prepare", false, "Create the wallet, inbox and outbox directories")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show selection, active mount and journal state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session.Session) error {
				st := s.Status(cmd.Context())
				if jsonOut {
					return writeJSON(cmd, st)
				}
				out := cmd.OutOrStdout()
				for _, line := range statusLines(st, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded mount sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session.Session) error {
				sessions, err := s.History(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("read history: %w", err)
				}
				if jsonOut {
					return writeJSON(cmd, sessions)
				}
				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No mount sessions recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Mounted", "Device", "Mount point", "State", "Ended"},
					historyRows(sessions),
					nil,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func historyRows(sessions []journal.Session) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, sess := range sessions {
		ended := "-"
		if sess.Unmounted != nil {
			ended = sess.Unmounted.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{
			sess.MountedAt.Local().Format(time.DateTime),
			sess.Device,
			sess.MountPoint,
			sess.State(),
			ended,
		})
	}
	return rows
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Close stale sessions and remove empty mount point directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session.Session) error {
				report, err := s.Cleanup(cmd.Context())
				if err != nil {
					return fmt.Errorf("cleanup: %w", err)
				}
				if jsonOut {
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Closed %d stale session(s)\n", report.Reconciled)
				for _, dir := range report.Removed {
					fmt.Fprintf(out, "Removed %s\n", dir)
				}
				for _, skip := range report.Skipped {
					fmt.Fprintf(out, "Kept %s: %s\n", skip.MountPoint, skip.Reason)
				}
				if len(report.Removed) == 0 && len(report.Skipped) == 0 {
					fmt.Fprintln(out, "No mount point directories to remove")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
