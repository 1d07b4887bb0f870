package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sprouts/internal/ask"
	"github.com/ziadkadry99/sprouts/internal/audit"
	"github.com/ziadkadry99/sprouts/internal/dashboard"
	"github.com/ziadkadry99/sprouts/internal/metrics"
	"github.com/ziadkadry99/sprouts/internal/server"
)

var (
	serverHost string
	serverPort int
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP chat gateway",
	Long:  `Starts the HTTP gateway with POST /ask, GET /health, GET /metrics, the demo chat page and, when enabled, the audit API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverHost != "" {
			cfg.Host = serverHost
		}
		if serverPort != 0 {
			cfg.Port = serverPort
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		gw, err := buildGateway(ctx, cfg)
		if err != nil {
			return err
		}
		defer gw.Close()

		srv := server.New(server.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			AllowAll: cfg.CORSAllowAll,
			Timeout:  cfg.Timeout,
		})
		registerAllRoutes(srv, gw, cfg.Timeout)

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "sprouts server %s starting on %s\n", Version, srv.Addr())
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", cfg.Provider, cfg.Model)
		if gw.db != nil {
			fmt.Fprintf(os.Stderr, "  Audit: %s\n", gw.db.Path())
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// registerAllRoutes wires the feature routes onto the server.
func registerAllRoutes(srv *server.Server, gw *gateway, timeout time.Duration) {
	r := srv.Router()

	ask.RegisterRoutes(r, gw.pipeline)
	metrics.RegisterRoutes(r, gw.counters)

	// The dashboard treats a nil EventSource as "no audit trail"; a typed
	// nil *audit.Store would not compare equal to nil.
	var events dashboard.EventSource
	if gw.events != nil {
		audit.RegisterRoutes(r, gw.events)
		events = gw.events
	}

	dash := dashboard.New(gw.pipeline, gw.counters, events, timeout)
	dash.RegisterRoutes(r)
}

func init() {
	serverCmd.Flags().StringVar(&serverHost, "host", "", "host to bind (overrides config)")
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
