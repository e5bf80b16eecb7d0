package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"shuttle/internal/platform"
	"shuttle/internal/preflight"
	"shuttle/internal/privilege"
)

var errNotReady = errors.New("required readiness checks failed")

var hostElevated = func(p platform.Platform) bool {
	return privilege.New(p, nil).IsElevated()
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check detection tools, privileges and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p := platform.Host()
			results := preflight.RunAll(cmd.Context(), cfg, p, hostElevated(p))
			if jsonOut {
				return writeJSON(cmd, results)
			}
			out := cmd.OutOrStdout()
			lines, ready := doctorLines(results, shouldColorize(out))
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			if !ready {
				return errNotReady
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
