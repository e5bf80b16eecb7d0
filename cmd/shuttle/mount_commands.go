package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shuttle/internal/mount"
	"shuttle/internal/session"
)

func newMountCommand(ctx *commandContext) *cobra.Command {
	var (
		devicePath string
		mountPoint string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "mount",
		Short: "Mount the selected device, or the one given with --device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session.Session) error {
				res, err := s.Mount(cmd.Context(), mount.Request{Device: devicePath, MountPoint: mountPoint})
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, res)
				}
				out := cmd.OutOrStdout()
				if res.Reused {
					fmt.Fprintf(out, "%s already mounted at %s\n", res.Device, res.MountPoint)
					return nil
				}
				fmt.Fprintf(out, "Mounted %s at %s\n", res.Device, res.MountPoint)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&devicePath, "device", "d", "", "Device or partition path to mount")
	cmd.Flags().StringVarP(&mountPoint, "mount-point", "m", "", "Directory to mount on (POSIX only)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

type unmountOutput struct {
	MountPoint string `json:"mount_point"`
	Unmounted  bool   `json:"unmounted"`
}

func newUnmountCommand(ctx *commandContext) *cobra.Command {
	var (
		mountPoint string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "unmount",
		Short: "Unmount the active mount, or the one given with --mount-point",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session.Session) error {
				target := strings.TrimSpace(mountPoint)
				if target == "" {
					target = s.Registry().ActiveMountPoint()
				}
				if err := s.Unmount(cmd.Context(), target); err != nil {
					return err
				}
				result := unmountOutput{MountPoint: target, Unmounted: target != ""}
				if jsonOut {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				if !result.Unmounted {
					fmt.Fprintln(out, "Nothing to unmount")
					return nil
				}
				fmt.Fprintf(out, "Unmounted %s\n", target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&mountPoint, "mount-point", "m", "", "Mount point to detach")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
