// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/kernelsearch/config"
	"github.com/AleutianAI/kernelsearch/dataset"
	"github.com/AleutianAI/kernelsearch/journal"
	"github.com/AleutianAI/kernelsearch/kernel"
	"github.com/AleutianAI/kernelsearch/pkg/logging"
	"github.com/AleutianAI/kernelsearch/pkg/ux"
	"github.com/AleutianAI/kernelsearch/predict"
	"github.com/AleutianAI/kernelsearch/sampler"
)

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Observability.LogLevel),
		Service: "kernelsearch",
	})
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	data, err := dataset.LoadCSV(dataPath)
	if err != nil {
		return err
	}
	train, test := data.Rescale().Split(cfg.Run.TrainFraction)
	logger.Info("dataset loaded",
		"path", dataPath,
		"points", data.Len(),
		"train", train.Len(),
		"test", test.Len(),
	)

	opts := sampler.ChainsOptions{Logger: logger.Slog()}
	opts.Tracer = sampler.NewTracer(logger.Slog(), cfg.Observability.TracingEnabled)

	var metricsServer *http.Server
	if cfg.Observability.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		opts.Metrics = sampler.NewMetrics(registry)
		metricsServer = startMetricsServer(cfg.Observability.MetricsAddr, registry, logger)
		defer shutdownMetricsServer(metricsServer, logger)
	}

	if cfg.Observability.JournalDir != "" {
		jnl, err := journal.Open(cfg.Observability.JournalDir, logger.Slog())
		if err != nil {
			return err
		}
		defer jnl.Close()
		// Journal keys use the chain index, which is known before the
		// chain's run id is drawn.
		opts.Observers = func(chain int) sampler.Observer {
			chainID := fmt.Sprintf("chain-%d", chain)
			return func(iteration int, tree kernel.Node, noise, logProb float64) {
				err := jnl.Append(chainID, journal.Entry{
					Iteration: iteration,
					Kernel:    tree.String(),
					Noise:     noise,
					LogProb:   logProb,
					At:        time.Now().UTC(),
				})
				if err != nil {
					logger.Warn("journal append failed", "chain", chain, "error", err)
				}
			}
		}
	}

	start := time.Now()
	best, err := sampler.RunChains(ctx, cfg, train.Xs, train.Ys, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, ux.Errorf("inference failed: %v", err))
		return err
	}
	elapsed := time.Since(start)

	rows := []ux.Row{
		{Label: "Kernel", Value: best.Tree.String()},
		{Label: "Noise", Value: fmt.Sprintf("%.4f", best.Noise)},
		{Label: "Log probability", Value: fmt.Sprintf("%.4f", best.LogProb)},
		{Label: "Structural accepts", Value: fmt.Sprintf("%d / %d", best.StructuralAccepts, best.Iterations)},
		{Label: "Noise accepts", Value: fmt.Sprintf("%d / %d", best.NoiseAccepts, best.Iterations)},
		{Label: "Chains", Value: fmt.Sprintf("%d", cfg.Run.Chains)},
		{Label: "Elapsed", Value: elapsed.Round(time.Millisecond).String()},
	}

	if test.Len() > 0 {
		ll, err := predict.LogLikelihood(best.Tree, best.Noise, train.Xs, train.Ys, test.Xs, test.Ys)
		if err != nil {
			logger.Warn("predictive log-likelihood failed", "error", err)
		} else {
			rows = append(rows, ux.Row{Label: "Held-out log-lik", Value: fmt.Sprintf("%.4f", ll)})
		}
		mse, err := predict.MSE(best.Tree, best.Noise, train.Xs, train.Ys, test.Xs, test.Ys)
		if err != nil {
			logger.Warn("predictive MSE failed", "error", err)
		} else {
			rows = append(rows, ux.Row{Label: "Held-out MSE", Value: fmt.Sprintf("%.6f", mse)})
		}
	}

	fmt.Println(ux.Summary{Title: "Kernel Structure Search", Rows: rows}.Render())
	return nil
}

// loadConfig resolves configuration, then applies CLI flag overrides on
// top (flags > env > file > defaults).
func loadConfig() (config.Config, error) {
	if logLevel != "" {
		os.Setenv("KERNELSEARCH_LOG_LEVEL", logLevel)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	if iterations > 0 {
		cfg.Run.Iterations = iterations
	}
	if chains > 0 {
		cfg.Run.Chains = chains
	}
	if seed > 0 {
		cfg.Run.Seed = seed
	}
	if metricsAddr != "" {
		cfg.Observability.MetricsAddr = metricsAddr
	}
	if journalDir != "" {
		cfg.Observability.JournalDir = journalDir
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func startMetricsServer(addr string, registry *prometheus.Registry, logger *logging.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server := &http.Server{Addr: addr, Handler: router}
	go func() {
		logger.Info("metrics listener started", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", "error", err)
		}
	}()
	return server
}

func shutdownMetricsServer(server *http.Server, logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("metrics listener shutdown", "error", err)
	}
}
