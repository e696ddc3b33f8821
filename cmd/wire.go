package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/slotwise/slotctl/internal/adapters/dockerrt"
	"github.com/slotwise/slotctl/internal/adapters/ledger"
	"github.com/slotwise/slotctl/internal/adapters/render/report"
	tomlrepo "github.com/slotwise/slotctl/internal/adapters/repo/toml"
	"github.com/slotwise/slotctl/internal/adapters/screen"
	chainstore "github.com/slotwise/slotctl/internal/adapters/secrets/chain"
	workspacestore "github.com/slotwise/slotctl/internal/adapters/workspace"
	"github.com/slotwise/slotctl/internal/application"
	"github.com/slotwise/slotctl/internal/ports"
)

// confirmFunc asks the operator a yes/no question. Swapped out in
// tests and by --yes.
type confirmFunc func(out io.Writer, prompt string) (bool, error)

type app struct {
	profiles    *application.ProfileService
	inventory   *application.Inventory
	deploy      *application.DeployService
	teardown    *application.TeardownService
	check       *application.CheckService
	runtime     ports.ContainerRuntime
	secretStore ports.SecretStore
	ledgerFor   ports.LedgerFactory

	renderReport func(application.Report, report.RenderOptions) (string, error)
	confirm      confirmFunc
	logger       zerolog.Logger
}

func wireApp() (*app, error) {
	logger := newLogger()

	repo, err := tomlrepo.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire profile repository: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(filepath.Join(homeDir, ".slotctl", "secrets"))
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	runtime, err := dockerrt.New(logger)
	if err != nil {
		return nil, fmt.Errorf("wire container runtime: %w", err)
	}

	workspaceRoot, err := workspacestore.DefaultRoot()
	if err != nil {
		return nil, err
	}
	workspaces, err := workspacestore.New(workspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("wire workspace store: %w", err)
	}

	sessions := screen.New(logger)

	deploy := application.NewDeployService(runtime, sessions, workspaces, application.NewAllocator(runtime), logger)
	deploy.SetAttachSessions(sessions.Available())

	inventory := application.NewInventory(runtime, sessions, logger)
	ledgerFor := ledger.Factory(logger)

	return &app{
		profiles:     application.NewProfileService(repo, ports.SystemClock{}),
		inventory:    inventory,
		deploy:       deploy,
		teardown:     application.NewTeardownService(runtime, sessions, workspaces, logger),
		check:        application.NewCheckService(inventory, ledgerFor, logger),
		runtime:      runtime,
		secretStore:  secretStore,
		ledgerFor:    ledgerFor,
		renderReport: report.Render,
		confirm:      promptConfirm,
		logger:       logger,
	}, nil
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if parsed, err := zerolog.ParseLevel(os.Getenv("SLOTCTL_LOG")); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func promptConfirm(out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
