package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"rodigy/internal/settings"
	rodigy "rodigy/pkg/rodigy"
)

type globalFlags struct {
	store      *string
	dataDir    *string
	dbPath     *string
	configPath *string
	logLevel   *string
}

func bindGlobalFlags(fs *flag.FlagSet) globalFlags {
	return globalFlags{
		store:      fs.String("store", "", "store backend: memory|file|sqlite"),
		dataDir:    fs.String("data-dir", "", "directory holding configurations and history"),
		dbPath:     fs.String("db-path", "", "sqlite database path (default <data-dir>/rodigy.db)"),
		configPath: fs.String("config", "", "settings file (default <data-dir>/rodigy.yaml)"),
		logLevel:   fs.String("log-level", "", "log level: debug|info|warn|error"),
	}
}

func (g globalFlags) overrides() settings.Overrides {
	return settings.Overrides{
		ConfigPath: *g.configPath,
		Store:      *g.store,
		DataDir:    *g.dataDir,
		DBPath:     *g.dbPath,
		LogLevel:   *g.logLevel,
	}
}

func openClient(ctx context.Context, g globalFlags) (*rodigy.Client, settings.Settings, error) {
	s, err := settings.Load(g.overrides(), os.Getenv)
	if err != nil {
		return nil, settings.Settings{}, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: s.SlogLevel()}))

	client, err := rodigy.New(rodigy.Options{
		StoreKind: s.Store,
		DataDir:   s.DataDir,
		DBPath:    s.DBPath,
		Logger:    logger,
	})
	if err != nil {
		return nil, settings.Settings{}, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, settings.Settings{}, err
	}
	return client, s, nil
}

// parseInterspersed accepts flags after positional arguments too.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
