package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app, err := wireApp()
	if err != nil {
		rootCmd := newRootSkeleton()
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	return newRootCmdWith(app)
}

func newRootCmdWith(app *app) *cobra.Command {
	rootCmd := newRootSkeleton()

	var verbose bool
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newProfileCmd(app),
		newConfigureCmd(app),
		newDeployCmd(app),
		newCheckCmd(app),
		newDiagnoseCmd(app),
	)

	return rootCmd
}

func newRootSkeleton() *cobra.Command {
	return &cobra.Command{
		Use:           "slotctl",
		Short:         "slotctl: deploy and reconcile slot node instances",
		Long:          "slotctl resolves slot ownership from the on-chain registry, deploys one container instance per owned slot, reports drift between owned and running, and tears down orphaned resources.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
}
