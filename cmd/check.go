package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slotwise/slotctl/internal/adapters/render/report"
	"github.com/slotwise/slotctl/internal/domain"
)

func newCheckCmd(app *app) *cobra.Command {
	var (
		profileFlag  string
		chain        string
		market       string
		jsonOut      bool
		showSessions bool
		orphanPolicy string
	)

	cmd := &cobra.Command{
		Use:     "check",
		Aliases: []string{"status"},
		Short:   "Report drift between owned and running slots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope, chainCfg, _, err := resolveScope(app, cmd, profileFlag, chain, market)
			if err != nil {
				return err
			}

			policy, err := parseOrphanPolicy(orphanPolicy)
			if err != nil {
				return err
			}
			app.check.SetOrphanPolicy(policy)

			if err := app.runtime.Ping(cmd.Context()); err != nil {
				return err
			}

			rep, err := app.check.Check(cmd.Context(), scope, chainCfg)
			if err != nil {
				return err
			}

			if jsonOut {
				data, err := json.MarshalIndent(rep, "", "  ")
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				rendered, err := app.renderReport(rep, report.RenderOptions{ShowSessions: showSessions})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			}

			if len(rep.NotRunning) > 0 {
				return fmt.Errorf("%d owned slot(s) not running: %s",
					len(rep.NotRunning), domain.FormatSlotIDs(rep.NotRunning))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profileFlag, "profile", "", "profile to check (default: active profile)")
	cmd.Flags().StringVar(&chain, "chain", "mainnet", "target chain ("+strings.Join(domain.ChainNames(), ", ")+")")
	cmd.Flags().StringVar(&market, "market", "", "data market name")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the report as JSON")
	cmd.Flags().BoolVar(&showSessions, "sessions", false, "include container/log-session cross-checks")
	cmd.Flags().StringVar(&orphanPolicy, "orphan-policy", "ownership", "orphan classification: ownership or profile")
	_ = cmd.MarkFlagRequired("market")

	return cmd
}

func parseOrphanPolicy(s string) (domain.OrphanPolicy, error) {
	switch s {
	case "ownership":
		return domain.OrphanByOwnership, nil
	case "profile":
		return domain.OrphanByOwnershipAndProfile, nil
	default:
		return domain.OrphanByOwnership, fmt.Errorf("unknown orphan policy %q (ownership or profile)", s)
	}
}
