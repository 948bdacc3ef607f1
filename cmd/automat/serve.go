package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/automat/internal/cli"
	httpadapter "github.com/aretw0/automat/pkg/adapters/http"
	"github.com/aretw0/automat/pkg/observability"
	"github.com/aretw0/automat/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve instances of the machine over HTTP",
	Long:  `Starts an HTTP server exposing the graph, the instances and their inputs, plus Prometheus metrics on /metrics.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		def, err := cli.LoadDefinition(definitionPath(cmd, args), nil)
		if err != nil {
			return err
		}

		p, err := cli.OpenStore(storeOptions(cmd))
		if err != nil {
			return err
		}
		defer p.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}

		sopts := []session.Option{
			session.WithLogger(logger),
			session.WithTracer(observability.ChainTracers(
				metrics.Tracer(def.Name()),
				observability.LogTracer(logger, def.Name()),
			)),
		}
		if p.Locker != nil {
			sopts = append(sopts, session.WithLocker(p.Locker))
		}
		mgr := session.NewManager(def, p.Store, sopts...)

		addr, _ := cmd.Flags().GetString("addr")
		srv := &http.Server{
			Addr:    addr,
			Handler: httpadapter.NewHandler(mgr, httpadapter.WithLogger(logger), httpadapter.WithMetrics(reg)),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "Serving machine %q on %s\n", def.Name(), addr)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			fmt.Fprintf(cmd.OutOrStdout(), "\nShutting down (signal: %v)...\n", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	addStoreFlags(serveCmd, "memory")
}
