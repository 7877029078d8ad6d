package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturn597/stem/internal/version"
)

// newVersionCmd creates the Cobra command printing the version of run-tests
// and of the tor binary it would test against.
func newVersionCmd() *cobra.Command {
	var torPath string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of run-tests and tor",
		Long:  `Prints the version of run-tests and the version reported by the tor binary integration tests would run against.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "run-tests version %s\n", cmd.Root().Version)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			detected, err := version.NewDetector(torPath).Version(ctx)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "tor version unknown (%v)\n", err)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tor version %s\n", detected)
		},
	}
	cmd.Flags().StringVar(&torPath, "tor", "tor", "tor binary to query")
	return cmd
}
