package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/Jonatas020918/myflyticketsearcher/pipeline"
	"github.com/Jonatas020918/myflyticketsearcher/search"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	returnDate string
	output     string
	format     string
	metrics    string
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search FROM TO DATE",
		Short: "Scrape every source for one route and date, then export the offers.",
		Example: "  scraper search JFK LAX 2026-11-20\n" +
			"  scraper search JFK LAX 2026-11-20 --return 2026-11-27 --format dual",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("output") {
				cfg.OutputFile = opts.output
			}
			if flags.Changed("format") {
				cfg.OutputFormat = opts.format
			}
			if flags.Changed("metrics-addr") {
				cfg.MetricsAddr = opts.metrics
			}

			req := search.SearchRequest{
				FromLocation: args[0],
				ToLocation:   args[1],
				InitialDate:  args[2],
				ReturnDate:   opts.returnDate,
			}
			return runSearch(cmd.Context(), cfg.MetricsAddr, req, func(ctx context.Context) (*app, error) {
				return newApp(ctx, cfg, logger)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.returnDate, "return", "", "Return date (YYYY-MM-DD), validated and echoed")
	flags.StringVar(&opts.output, "output", "", "Output file path")
	flags.StringVar(&opts.format, "format", "", "Output format: csv, json, or dual")
	flags.StringVar(&opts.metrics, "metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	return cmd
}

func runSearch(ctx context.Context, metricsAddr string, req search.SearchRequest, build func(context.Context) (*app, error)) error {
	a, err := build(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error("release resources", slog.Any("error", err))
		}
	}()
	cfg, logger := a.cfg, a.logger

	var metricsServer *http.Server
	if metricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: promhttp.HandlerFor(a.metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		logger.Info("metrics server enabled", slog.String("addr", metricsAddr))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	startTime := time.Now()
	resp, err := a.service.Search(ctx, req)
	if err != nil {
		var verr *search.ValidationError
		if errors.As(err, &verr) {
			printValidation(verr)
		}
		return err
	}

	writer, err := pipeline.NewWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("create writer: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("close writer", slog.Any("error", err))
		}
	}()

	p, err := pipeline.NewPipeline(ctx, writer, cfg, logger)
	if err != nil {
		return err
	}
	p.Start(1)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	flights := make([]*models.Flight, len(resp.Flights))
	for i := range resp.Flights {
		flights[i] = &resp.Flights[i].Flight
	}
	if err := p.Process(flights...); err != nil {
		p.Close()
		return fmt.Errorf("export flights: %w", err)
	}
	if err := p.Close(); err != nil {
		return fmt.Errorf("pipeline shutdown: %w", err)
	}

	printSummary(resp, time.Since(startTime), cfg.OutputFile, p.Stats())
	return nil
}
