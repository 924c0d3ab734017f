package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eleven-am/agentpool"
	"github.com/eleven-am/agentpool/internal/xjson"
)

// app carries the per-invocation viper instance shared by subcommands.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New(), stdout: os.Stdout, stderr: os.Stderr}

	root := &cobra.Command{
		Use:   "agentpool",
		Short: "Dispatch work across typed agent pools and resolve cold start policies",
		Long: `agentpool runs an in-process agent pool: instance selection, health
sweeps and cold start policy resolution against the configured pattern store.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.stdout = cmd.OutOrStdout()
			a.stderr = cmd.ErrOrStderr()
			return a.initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (YAML)")
	flags.String("storage-backend", "", "pattern store backend: memory, badger or sqlite")
	flags.String("storage-path", "", "path of the badger directory or sqlite file")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")

	_ = a.v.BindPFlag("config", flags.Lookup("config"))
	_ = a.v.BindPFlag("storage.backend", flags.Lookup("storage-backend"))
	_ = a.v.BindPFlag("storage.path", flags.Lookup("storage-path"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(
		a.simulateCommand(),
		a.coldStartCommand(),
		a.sparsityCommand(),
		a.feedbackCommand(),
		a.seedCommand(),
		a.serveCommand(),
	)
	return root
}

func (a *app) initConfig() error {
	a.v.SetEnvPrefix("AGENTPOOL")
	// AGENTPOOL_STORAGE_BACKEND for storage.backend
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()
	return nil
}

func (a *app) logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log.level"))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", a.v.GetString("log.level"), err)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch a.v.GetString("log.format") {
	case "json":
		return slog.New(slog.NewJSONHandler(a.stderr, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(a.stderr, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", a.v.GetString("log.format"))
	}
}

// loadConfig reads the config file when one is given, then applies flag
// and environment overrides.
func (a *app) loadConfig() (*agentpool.Config, error) {
	cfg := agentpool.DefaultConfig()
	if path := a.v.GetString("config"); path != "" {
		loaded, err := agentpool.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if backend := a.v.GetString("storage.backend"); backend != "" {
		cfg.Storage.Backend = agentpool.StorageBackend(backend)
	}
	if path := a.v.GetString("storage.path"); path != "" {
		cfg.Storage.Path = path
	}

	logger, err := a.logger()
	if err != nil {
		return nil, err
	}
	cfg.Logger = logger
	return cfg, nil
}

func (a *app) openPool() (*agentpool.Manager, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	return agentpool.New(cfg)
}

func (a *app) printJSON(v interface{}) error {
	data, err := xjson.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, string(data))
	return err
}
