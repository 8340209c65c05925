package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/petsaude/iasys"
	httpAdapter "github.com/petsaude/iasys/internal/adapters/http"
	"github.com/petsaude/iasys/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the assistant in server mode, exposing the chat as a JSON API over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
			cfg.Addr = addr
		}
		logger := newLogger(cfg)

		registry := prometheus.NewRegistry()
		metrics, err := observability.New(registry, observability.WithLogger(logger))
		if err != nil {
			fmt.Printf("Error registering metrics: %v\n", err)
			os.Exit(1)
		}

		assistant, err := newAssistant(cfg, logger, iasys.WithLifecycleHooks(metrics.Hooks()))
		if err != nil {
			fmt.Printf("Error initializing assistant: %v\n", err)
			os.Exit(1)
		}
		defer assistant.Close()

		registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "iasys_active_sessions",
				Help: "Number of live conversation sessions",
			},
			func() float64 { return float64(assistant.Sessions()) },
		))

		handler := httpAdapter.NewHandler(assistant,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithGatherer(registry),
		)

		srv := &http.Server{
			Addr:    cfg.Addr,
			Handler: handler,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			logger.Info("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
}
