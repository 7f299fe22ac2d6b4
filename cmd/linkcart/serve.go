package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"LinkCart/internal/export"
	"LinkCart/internal/links"
	"LinkCart/internal/popup"
	"LinkCart/internal/scrape"
	"LinkCart/pkg/kit"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the popup page and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			store, closeStore, err := a.openStore(cmd.Context(), links.WithMetrics(links.NewMetrics(reg)))
			if err != nil {
				return err
			}
			defer closeStore()

			schema, err := export.ParseSchema(a.cfg.Export.Schema)
			if err != nil {
				return err
			}

			s := &popup.Server{
				Store:   store,
				Fetcher: scrape.NewClient(a.cfg.Scrape.Timeout, a.log),
				Exporter: &export.Exporter{
					Source:     store,
					Schema:     schema,
					ClearAfter: a.cfg.Export.ClearAfter,
					Log:        a.log,
				},
				Validator: popup.NewValidator(),
				Log:       a.log,
			}

			h := popup.NewHandler(s, popup.HTTPDeps{
				Log:               a.log,
				Service:           service,
				Registry:          reg,
				MetricsEnabled:    metrics,
				MetricsToken:      a.cfg.MetricsToken,
				ScrapeLimit:       a.cfg.Scrape.RateLimit,
				ScrapeLimitWindow: a.cfg.Scrape.RateLimitWindow,
			})

			a.log.Info("serving",
				zap.String("addr", addr),
				zap.String("store", a.cfg.Store.Backend),
				zap.String("policy", string(store.Policy())),
			)
			return kit.RunHTTPServer(cmd.Context(), addr, h, a.log, kit.ServerOptions{
				ShutdownTimeout: a.cfg.HTTP.ShutdownTimeout,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides LINKCART_HTTP_ADDR)")
	cmd.Flags().BoolVar(&metrics, "metrics", true, "expose /metrics")
	return cmd
}
