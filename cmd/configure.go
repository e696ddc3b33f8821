package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slotwise/slotctl/internal/domain"
)

func newConfigureCmd(app *app) *cobra.Command {
	var (
		profileFlag  string
		chain        string
		market       string
		wallet       string
		signer       string
		signerKey    string
		signerKeyRef string
		sourceRPC    string
		chainRPC     string
		image        string
		telegramChat string
		telegramURL  string
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store the deployment bundle for a chain/market pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := app.profiles.Resolve(cmd.Context(), profileFlag)
			if err != nil {
				return err
			}

			chainCfg, err := domain.ChainByName(chain)
			if err != nil {
				return err
			}

			walletAddr, err := domain.ParseAddress(wallet)
			if err != nil {
				return fmt.Errorf("wallet address: %w", err)
			}
			signerAddr, err := domain.ParseAddress(signer)
			if err != nil {
				return fmt.Errorf("signer address: %w", err)
			}

			if signerKey != "" && signerKeyRef != "" {
				return fmt.Errorf("--signer-key and --signer-key-ref are mutually exclusive")
			}
			keyRef := signerKeyRef
			if signerKey != "" {
				// The key itself goes to the secret store; only the
				// reference lands in the profiles file.
				keyRef = fmt.Sprintf("signer/%s/%s/%s", profile, chainCfg.Name, market)
				if err := app.secretStore.Put(cmd.Context(), keyRef, strings.TrimSpace(signerKey)); err != nil {
					return fmt.Errorf("store signer key: %w", err)
				}
			}

			if chainRPC == "" {
				chainRPC = chainCfg.RPCURL
			}

			bundle := domain.ConfigBundle{
				WalletAddress:        walletAddr,
				SignerAddress:        signerAddr,
				SignerKeyRef:         keyRef,
				SourceRPCURL:         sourceRPC,
				ChainRPCURL:          chainRPC,
				Image:                image,
				TelegramChatID:       telegramChat,
				TelegramReportingURL: telegramURL,
			}
			key := domain.BundleKey{Chain: chainCfg.Name, Market: market}
			if err := app.profiles.SaveBundle(cmd.Context(), profile, key, bundle); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "configured %s/%s in profile %s\n", key.Chain, key.Market, profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&profileFlag, "profile", "", "profile to configure (default: active profile)")
	cmd.Flags().StringVar(&chain, "chain", "mainnet", "target chain ("+strings.Join(domain.ChainNames(), ", ")+")")
	cmd.Flags().StringVar(&market, "market", "", "data market name")
	cmd.Flags().StringVar(&wallet, "wallet", "", "slot-holder wallet address")
	cmd.Flags().StringVar(&signer, "signer", "", "signer account address")
	cmd.Flags().StringVar(&signerKey, "signer-key", "", "signer private key (stored in the secret store)")
	cmd.Flags().StringVar(&signerKeyRef, "signer-key-ref", "", "reference to an already-stored signer key")
	cmd.Flags().StringVar(&sourceRPC, "source-rpc", "", "source chain RPC URL")
	cmd.Flags().StringVar(&chainRPC, "rpc", "", "protocol chain RPC URL (overrides the chain default)")
	cmd.Flags().StringVar(&image, "image", "", "container image for slot instances")
	cmd.Flags().StringVar(&telegramChat, "telegram-chat", "", "telegram chat id for reporting (optional)")
	cmd.Flags().StringVar(&telegramURL, "telegram-url", "", "telegram reporting service URL (optional)")
	_ = cmd.MarkFlagRequired("market")
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("signer")
	_ = cmd.MarkFlagRequired("source-rpc")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}
