package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/slotwise/slotctl/internal/application"
	"github.com/slotwise/slotctl/internal/domain"
)

func newDiagnoseCmd(app *app) *cobra.Command {
	var (
		profileFlag string
		chain       string
		market      string
		slots       string
		orphansOnly bool
		yes         bool
		dryRun      bool
		parallelism int
		stopTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Tear down slot instances and their resources",
		Long:  "diagnose dismantles the containers, log sessions, workspaces, and networks of selected slots. By default it targets orphaned instances (running but not owned); pass --slots to target specific slots instead. Teardown escalates from graceful stop to kill, and networks are removed last.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			scope, chainCfg, _, err := resolveScope(app, cmd, profileFlag, chain, market)
			if err != nil {
				return err
			}

			if err := app.runtime.Ping(ctx); err != nil {
				return err
			}

			running, unparsed, err := app.inventory.ListRunning(ctx, scope.Chain, scope.Market)
			if err != nil {
				return err
			}
			for _, name := range unparsed {
				app.logger.Warn().Str("container", name).Msg("ignoring container with unrecognized name")
			}

			var targets []domain.RuntimeInstance
			switch {
			case slots != "":
				if orphansOnly {
					return fmt.Errorf("--slots and --orphans are mutually exclusive")
				}
				selection, err := domain.ParseSlotSelection(slots)
				if err != nil {
					return err
				}
				targets = selectInstances(running, selection)
			default:
				slotLedger, err := app.ledgerFor(chainCfg)
				if err != nil {
					return err
				}
				owned, err := slotLedger.OwnedSlots(ctx, scope.Wallet)
				if err != nil {
					return err
				}
				plan := application.Plan(owned, domain.SlotSelection{All: true}, running, scope, domain.OrphanByOwnership)
				targets = selectInstances(running, domain.SlotSelection{IDs: plan.Orphaned})
			}

			if len(targets) == 0 {
				_, _ = fmt.Fprintln(out, "nothing to tear down")
				return nil
			}

			sessionSlots, err := app.inventory.SessionSlots(ctx, scope.Chain, scope.Market)
			if err != nil {
				app.logger.Warn().Err(err).Msg("could not list log sessions; tearing down containers only")
				sessionSlots = nil
			}

			var handles []domain.ResourceHandle
			for _, inst := range targets {
				if inst.Session == "" {
					inst.Session = sessionSlots[inst.Slot]
				}
				handles = append(handles, application.HandlesForInstance(inst)...)
			}

			names := make([]string, len(targets))
			for i, inst := range targets {
				names[i] = inst.ContainerName
			}
			_, _ = fmt.Fprintf(out, "tearing down %d instance(s): %s\n", len(targets), strings.Join(names, ", "))

			if !yes && !dryRun {
				ok, err := app.confirm(out, fmt.Sprintf("remove %d resource(s)?", len(handles)))
				if err != nil {
					return err
				}
				if !ok {
					_, _ = fmt.Fprintln(out, "aborted")
					return nil
				}
			}

			outcomes := app.teardown.Teardown(ctx, handles, application.TeardownOptions{
				Parallelism: parallelism,
				StopTimeout: stopTimeout,
				DryRun:      dryRun,
			})

			hardFailures := 0
			for _, o := range outcomes {
				line := fmt.Sprintf("%s %s: %s", o.Handle.Kind, o.Handle.Name, o.Status)
				if len(o.Steps) > 0 {
					line += fmt.Sprintf(" (%s)", joinSteps(o.Steps))
				}
				if o.Reason != "" {
					line += " " + o.Reason
				}
				_, _ = fmt.Fprintln(out, line)

				if o.Status == domain.TeardownFailed && !o.Advisory {
					hardFailures++
				}
			}

			if hardFailures > 0 {
				return fmt.Errorf("%d of %d teardown(s) failed", hardFailures, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profileFlag, "profile", "", "profile scope (default: active profile)")
	cmd.Flags().StringVar(&chain, "chain", "mainnet", "target chain ("+strings.Join(domain.ChainNames(), ", ")+")")
	cmd.Flags().StringVar(&market, "market", "", "data market name")
	cmd.Flags().StringVar(&slots, "slots", "", "specific slots to tear down (default: orphaned instances)")
	cmd.Flags().BoolVar(&orphansOnly, "orphans", false, "tear down orphaned instances (the default)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify resources without removing anything")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "max concurrent teardowns (default 4)")
	cmd.Flags().DurationVar(&stopTimeout, "stop-timeout", 0, "graceful stop timeout before escalating (default 10s)")
	_ = cmd.MarkFlagRequired("market")

	return cmd
}

func selectInstances(running []domain.RuntimeInstance, selection domain.SlotSelection) []domain.RuntimeInstance {
	if selection.All {
		return running
	}
	wanted := make(map[domain.SlotID]struct{}, len(selection.IDs))
	for _, id := range selection.IDs {
		wanted[id] = struct{}{}
	}

	var out []domain.RuntimeInstance
	for _, inst := range running {
		if _, ok := wanted[inst.Slot]; ok {
			out = append(out, inst)
		}
	}
	return out
}

func joinSteps(steps []domain.TeardownStep) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = string(s)
	}
	return strings.Join(parts, " > ")
}
