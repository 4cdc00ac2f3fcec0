package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/maniacs-sfa/orleans/internal/cliconfig"
	"github.com/maniacs-sfa/orleans/sdk/go/harness"
)

var (
	flagServer string
	flagConfig string
)

var rootCmd = &cobra.Command{
	Use:   "siloharness",
	Short: "Fault-injection and introspection control plane for silo tests",
	Long: "Arms probabilistic message loss between silo endpoints, snapshots the\n" +
		"grain directory, and resolves providers through the isolation-boundary\n" +
		"safety check. Runs as a control server inside the test host; the other\n" +
		"commands act as the out-of-process test driver.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Control server base URL")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", cliconfig.DefaultPath(), "Path to CLI config TOML")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the CLI config file, if any.
func loadConfig() (cliconfig.Config, error) {
	return cliconfig.Load(flagConfig)
}

// newClient builds an SDK client from flags and config, flag wins.
func newClient() (*harness.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	base := flagServer
	if base == "" {
		base = cfg.Server
	}
	if base == "" {
		base = harness.DefaultBaseURL
	}
	return harness.New(harness.WithBaseURL(base)), nil
}
