package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slotwise/slotctl/internal/application"
	"github.com/slotwise/slotctl/internal/domain"
)

func newDeployCmd(app *app) *cobra.Command {
	var (
		profileFlag string
		chain       string
		market      string
		slots       string
		workers     int
		noSessions  bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy container instances for owned slots",
		Long:  "deploy resolves slot ownership from the on-chain registry, plans which requested slots need starting, and starts one container instance per slot with its own network, ports, and workspace. Already-running slots are left untouched.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			selection, err := domain.ParseSlotSelection(slots)
			if err != nil {
				return err
			}

			scope, chainCfg, bundle, err := resolveScope(app, cmd, profileFlag, chain, market)
			if err != nil {
				return err
			}

			if err := app.runtime.Ping(ctx); err != nil {
				return err
			}

			slotLedger, err := app.ledgerFor(chainCfg)
			if err != nil {
				return err
			}
			owned, err := slotLedger.OwnedSlots(ctx, scope.Wallet)
			if err != nil {
				return err
			}

			running, unparsed, err := app.inventory.ListRunning(ctx, scope.Chain, scope.Market)
			if err != nil {
				return err
			}
			for _, name := range unparsed {
				app.logger.Warn().Str("container", name).Msg("ignoring container with unrecognized name")
			}

			plan := application.Plan(owned, selection, running, scope, domain.OrphanByOwnership)

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "owned: %d, already running: %d, to start: %d\n",
				len(owned), len(plan.AlreadyRunning), len(plan.ToStart))
			if len(plan.UnownedRequested) > 0 {
				// Rejected per slot; owned siblings in the same request
				// still deploy.
				_, _ = fmt.Fprintf(out, "rejected (not owned by %s): slots %s\n",
					scope.Wallet.Short(), domain.FormatSlotIDs(plan.UnownedRequested))
			}
			if len(plan.Orphaned) > 0 {
				_, _ = fmt.Fprintf(out, "note: %d orphaned instance(s) running (slots %s); run slotctl diagnose to clean up\n",
					len(plan.Orphaned), domain.FormatSlotIDs(plan.Orphaned))
			}

			var results []application.DeployResult
			if len(plan.ToStart) == 0 {
				_, _ = fmt.Fprintln(out, "nothing to deploy")
			} else {
				if workers > 0 {
					app.deploy.SetWorkers(workers)
				}
				if noSessions {
					app.deploy.SetAttachSessions(false)
				}

				results = app.deploy.DeployBatch(ctx, scope, plan.ToStart, bundle)
				for _, r := range results {
					if r.Err != nil {
						_, _ = fmt.Fprintf(out, "slot %d: FAILED: %v\n", r.Slot, r.Err)
						continue
					}
					if r.Started {
						_, _ = fmt.Fprintf(out, "slot %d: started %s (subnet %s, ports %s)\n",
							r.Slot, r.Instance.ContainerName, r.Instance.Subnet, formatPorts(r.Instance.HostPorts))
					} else {
						_, _ = fmt.Fprintf(out, "slot %d: already running as %s\n", r.Slot, r.Instance.ContainerName)
					}
				}
			}

			var problems []string
			if failed := application.FailedSlots(results); len(failed) > 0 {
				problems = append(problems, fmt.Sprintf("%d of %d deployment(s) failed: slots %s",
					len(failed), len(results), domain.FormatSlotIDs(failed)))
			}
			if len(plan.UnownedRequested) > 0 {
				problems = append(problems, fmt.Sprintf("%d requested slot(s) not owned by %s: %s",
					len(plan.UnownedRequested), scope.Wallet.Short(), domain.FormatSlotIDs(plan.UnownedRequested)))
			}
			if len(problems) > 0 {
				return errors.New(strings.Join(problems, "; "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profileFlag, "profile", "", "profile to deploy from (default: active profile)")
	cmd.Flags().StringVar(&chain, "chain", "mainnet", "target chain ("+strings.Join(domain.ChainNames(), ", ")+")")
	cmd.Flags().StringVar(&market, "market", "", "data market name")
	cmd.Flags().StringVar(&slots, "slots", "all", "slot selection: \"all\", a list (1,2,3), or ranges (10-12)")
	cmd.Flags().IntVar(&workers, "workers", 0, "max concurrent deployments (default 4)")
	cmd.Flags().BoolVar(&noSessions, "no-sessions", false, "skip attaching detachable log sessions")
	_ = cmd.MarkFlagRequired("market")

	return cmd
}

func formatPorts(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ",")
}
