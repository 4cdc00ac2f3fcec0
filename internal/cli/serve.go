package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maniacs-sfa/orleans/internal/faults"
	"github.com/maniacs-sfa/orleans/internal/journal"
	"github.com/maniacs-sfa/orleans/internal/server"
	"github.com/maniacs-sfa/orleans/internal/silo"
)

var (
	serveAddr     string
	serveScenario string
	serveJournal  string
	serveSeed     uint64
	serveVerbose  bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:7171", "Control server listen address")
	serveCmd.Flags().StringVar(&serveScenario, "scenario", "", "Path to loss scenario YAML (hot-reloaded)")
	serveCmd.Flags().StringVar(&serveJournal, "journal", "", "Path to SQLite decision journal")
	serveCmd.Flags().Uint64Var(&serveSeed, "seed", 0, "Seed for deterministic drop decisions (0 = shared source)")
	serveCmd.Flags().BoolVar(&serveVerbose, "verbose", false, "Debug logging")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host a silo control plane",
	Long: "Runs an in-memory silo host with its fault-injection control server.\n" +
		"Driver commands (enable, disable, query, ...) connect to it over HTTP.\n" +
		"Supports hot-reload of the scenario file.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveScenario == "" {
		serveScenario = cfg.Scenario
	}
	if serveJournal == "" {
		serveJournal = cfg.Journal
	}

	log := newLogger(serveVerbose)

	var jrnl *journal.Journal
	if serveJournal != "" {
		jrnl, err = journal.Open(serveJournal, log)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer jrnl.Close()
	}

	faultOpts := []faults.Option{
		faults.WithDecisionObserver(jrnl.RecordDecision),
	}
	if serveSeed != 0 {
		faultOpts = append(faultOpts, faults.WithSeed(serveSeed))
	}
	host := silo.NewHost(silo.WithFaultOptions(faultOpts...))

	srv := server.New(host, jrnl, server.Config{
		Addr:         serveAddr,
		ScenarioPath: serveScenario,
	}, log)
	defer srv.Close()

	if err := srv.ReloadScenario(); err != nil {
		return fmt.Errorf("failed to apply scenario: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if serveScenario != "" {
		reloader, err := server.NewReloader(srv, log)
		if err != nil {
			log.Warn().Err(err).Msg("hot-reload disabled")
		} else {
			go reloader.Run(ctx)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info().Msg("shutting down control server")
		cancel()
		srv.Close()
	}()

	return srv.ListenAndServe()
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
