package main

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"LinkCart/internal/config"
	"LinkCart/internal/kv"
	"LinkCart/internal/links"
	"LinkCart/pkg/kit"
)

const service = "linkcart"

// app is the state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	cfg *config.Config
	log *zap.Logger

	envFile   string
	backend   string
	badgerDir string
	policy    string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   service,
		Short: "Save shop product links and export them as CSV",
		Long: `linkcart keeps product links (price, image, quantity) in a local
store, serves the popup page and JSON API, exports the collection as CSV
and expands $key tokens in text.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading LINKCART_* variables")
	f.StringVar(&a.backend, "store", "", "store backend: memory, badger or postgres (overrides LINKCART_STORE_BACKEND)")
	f.StringVar(&a.badgerDir, "badger-dir", "", "badger data directory (overrides LINKCART_STORE_BADGER_DIR)")
	f.StringVar(&a.policy, "policy", "", "insert policy: append or prepend (overrides LINKCART_STORE_INSERT_POLICY)")
	f.StringVar(&a.logLevel, "log-level", "", "log level (overrides LINKCART_LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newScrapeCmd(a),
		newDeleteCmd(a),
		newClearCmd(a),
		newExportCmd(a),
		newExpandCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.Store.Backend = a.backend
	}
	if a.badgerDir != "" {
		cfg.Store.BadgerDir = a.badgerDir
	}
	if a.policy != "" {
		cfg.Store.InsertPolicy = a.policy
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = kit.NewLogger(service, cfg.LogLevel).With(zap.String("cmd", cmd.Name()))
	return nil
}

// openStore opens the configured backend. The returned func closes it.
func (a *app) openStore(ctx context.Context, opts ...links.Option) (*links.Store, func(), error) {
	policy, err := a.cfg.Policy()
	if err != nil {
		return nil, nil, err
	}

	backend, err := kv.Open(ctx, a.cfg.KVOptions())
	if err != nil {
		return nil, nil, err
	}

	opts = append([]links.Option{links.WithPolicy(policy), links.WithLogger(a.log)}, opts...)
	closeFn := func() {
		if err := backend.Close(); err != nil {
			a.log.Warn("close store", zap.Error(err))
		}
	}
	return links.NewStore(backend, opts...), closeFn, nil
}
