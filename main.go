package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/codetesla51/raw-http-db/server"
	"github.com/spf13/cobra"
)

// defaultConfigFile is read from the working directory when --config is not given
const defaultConfigFile = "rawdb.yaml"

var (
	configPath      string
	root            string
	dbPath          string
	noDB            bool
	noStatic        bool
	workers         int
	debug           bool
	legacyWhere     bool
	legacyExtension bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rawdb [port]",
		Short:         "Serve static files and sqlite tables over raw HTTP",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to YAML config file (default: "+defaultConfigFile+" if present)")
	flags.StringVar(&root, "root", "", "directory static files are served from")
	flags.StringVar(&dbPath, "db", "", "sqlite database file")
	flags.BoolVar(&noDB, "no-db", false, "disable the table endpoints")
	flags.BoolVar(&noStatic, "no-static", false, "disable static file serving")
	flags.IntVar(&workers, "workers", 0, "number of connection workers (default: number of CPUs)")
	flags.BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	flags.BoolVar(&legacyWhere, "legacy-where", false, "omit the separator before the first WHERE condition")
	flags.BoolVar(&legacyExtension, "legacy-extension", false, "drop the path's last character when computing extensions")

	return cmd
}

// buildConfig loads the config file and applies flags and the port argument
func buildConfig(cmd *cobra.Command, args []string) (*server.Config, error) {
	var cfg *server.Config
	if configPath != "" {
		loaded, err := server.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = server.LoadConfigOrDefault(defaultConfigFile)
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = root
	}
	if flags.Changed("db") {
		cfg.Database.Path = dbPath
	}
	if noDB {
		cfg.Database.Enabled = false
	}
	if noStatic {
		cfg.Static = false
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if debug {
		cfg.Logging.Debug = true
	}
	if legacyWhere {
		cfg.Legacy.WhereSeparator = true
	}
	if legacyExtension {
		cfg.Legacy.ExtensionOffByOne = true
	}

	if len(args) == 1 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", args[0], err)
		}
		cfg.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *server.Config) error {
	logger := server.NewLogger(cfg.Logging, os.Stderr)

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		srv.Shutdown()
	}()

	logger.Info().
		Int("port", cfg.Port).
		Int("workers", cfg.WorkerCount()).
		Bool("static", cfg.Static).
		Bool("database", cfg.Database.Enabled).
		Msg("starting server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, server.ErrServerClosed) {
		srv.Shutdown()
		return err
	}
	return nil
}
