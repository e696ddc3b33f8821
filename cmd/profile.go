package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slotwise/slotctl/internal/domain"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage configuration profiles",
	}

	cmd.AddCommand(
		newProfileListCmd(app),
		newProfileCreateCmd(app),
		newProfileDeleteCmd(app),
		newProfileUseCmd(app),
		newProfileShowCmd(app),
	)

	return cmd
}

func newProfileListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := app.profiles.List(cmd.Context())
			if err != nil {
				return err
			}
			active, err := app.profiles.Resolve(cmd.Context(), "")
			if err != nil {
				return err
			}

			for _, p := range profiles {
				marker := " "
				if p.Name == active {
					marker = "*"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\n", marker, p.Name, p.Description)
			}
			return nil
		},
	}
}

func newProfileCreateCmd(app *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := app.profiles.Create(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created profile %s\n", profile.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "profile description")
	return cmd
}

func newProfileDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.profiles.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted profile %s\n", args[0])
			return nil
		},
	}
}

func newProfileUseCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use NAME",
		Short: "Set the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.profiles.Use(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "active profile is now %s\n", args[0])
			return nil
		},
	}
}

func newProfileShowCmd(app *app) *cobra.Command {
	var profileFlag string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a profile's configured chain/market bundles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := app.profiles.Resolve(cmd.Context(), profileFlag)
			if err != nil {
				return err
			}
			keys, err := app.profiles.Bundles(cmd.Context(), profile)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "profile: %s\n", profile)
			if len(keys) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no bundles configured; run slotctl configure")
				return nil
			}
			for _, key := range keys {
				bundle, err := app.profiles.LoadBundle(cmd.Context(), profile, key)
				if err != nil {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s/%s\t(invalid: %v)\n", key.Chain, key.Market, err)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s/%s\twallet=%s signer=%s image=%s\n",
					key.Chain, key.Market, bundle.WalletAddress.Short(), bundle.SignerAddress.Short(), bundle.Image)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&profileFlag, "profile", "", "profile to show (default: active profile)")
	return cmd
}

func resolveScope(app *app, cmd *cobra.Command, profileFlag, chain, market string) (domain.ProfileScope, domain.ChainConfig, domain.ConfigBundle, error) {
	profile, err := app.profiles.Resolve(cmd.Context(), profileFlag)
	if err != nil {
		return domain.ProfileScope{}, domain.ChainConfig{}, domain.ConfigBundle{}, err
	}

	chainCfg, err := domain.ChainByName(chain)
	if err != nil {
		return domain.ProfileScope{}, domain.ChainConfig{}, domain.ConfigBundle{}, err
	}

	bundle, err := app.profiles.LoadBundle(cmd.Context(), profile, domain.BundleKey{Chain: chainCfg.Name, Market: market})
	if err != nil {
		return domain.ProfileScope{}, domain.ChainConfig{}, domain.ConfigBundle{}, err
	}
	if bundle.ChainRPCURL != "" {
		chainCfg.RPCURL = bundle.ChainRPCURL
	}

	scope := domain.ProfileScope{
		Profile: profile,
		Wallet:  bundle.WalletAddress,
		Chain:   chainCfg.Name,
		Market:  market,
	}
	return scope, chainCfg, bundle, nil
}
