package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/ziadkadry99/sprouts/internal/ask"
	"github.com/ziadkadry99/sprouts/internal/audit"
	"github.com/ziadkadry99/sprouts/internal/config"
	"github.com/ziadkadry99/sprouts/internal/db"
	"github.com/ziadkadry99/sprouts/internal/llm"
	"github.com/ziadkadry99/sprouts/internal/metrics"
	"github.com/ziadkadry99/sprouts/internal/moderation"
	"github.com/ziadkadry99/sprouts/internal/notifications"
	"github.com/ziadkadry99/sprouts/internal/qna"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `sprouts init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// gateway holds everything a command needs to run conversations.
type gateway struct {
	pipeline *ask.Pipeline
	counters *metrics.Counters
	// events is nil when the audit trail is disabled.
	events *audit.Store
	db     *db.DB

	stopAlerts context.CancelFunc
	alertsDone chan struct{}
}

// buildGateway constructs the completion provider, the three pipeline stages
// and, when enabled, the audit trail and webhook alerts.
func buildGateway(ctx context.Context, cfg *config.Config) (*gateway, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model, cfg.ProviderOptions())
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", cfg.Provider, err)
	}

	g := &gateway{counters: metrics.New()}

	var opts []ask.Option
	if cfg.Audit.Enabled {
		database, err := db.Open(cfg.Audit.Path)
		if err != nil {
			return nil, fmt.Errorf("opening audit database: %w", err)
		}
		g.db = database
		g.events = audit.NewStore(database)

		if n, err := g.events.Prune(ctx, cfg.Audit.Retention); err != nil {
			log.Printf("audit: pruning failed: %v", err)
		} else if n > 0 {
			log.Printf("audit: pruned %d events older than %s", n, cfg.Audit.Retention)
		}
		opts = append(opts, ask.WithObserver(audit.NewRecorder(g.events)))
	}

	if len(cfg.Alerts.Webhooks) > 0 {
		dispatcher := notifications.NewDispatcher(cfg.Alerts.Webhooks, cfg.Alerts.MinSeverity)
		alertCtx, cancel := context.WithCancel(ctx)
		g.stopAlerts = cancel
		g.alertsDone = make(chan struct{})
		go func() {
			defer close(g.alertsDone)
			dispatcher.Run(alertCtx)
		}()
		opts = append(opts, ask.WithObserver(dispatcher))
	}

	g.pipeline = ask.NewPipeline(
		moderation.NewClassifier(provider, cfg.Settings(cfg.ClassifierTemperature)),
		qna.NewClarifier(provider, cfg.Settings(cfg.ClarifierTemperature)),
		qna.NewAnswerer(provider, cfg.Settings(cfg.AnswererTemperature)),
		g.counters,
		opts...,
	)
	return g, nil
}

// Close flushes pending alerts and releases the audit database.
func (g *gateway) Close() error {
	if g.stopAlerts != nil {
		g.stopAlerts()
		<-g.alertsDone
	}
	if g.db != nil {
		return g.db.Close()
	}
	return nil
}
