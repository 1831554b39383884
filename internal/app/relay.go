package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/bizdesk/internal/config"
	"github.com/samvad-hq/bizdesk/internal/domain"
	"github.com/samvad-hq/bizdesk/internal/logger"
	"github.com/samvad-hq/bizdesk/internal/metrics"
	"github.com/samvad-hq/bizdesk/internal/relay"
	"github.com/samvad-hq/bizdesk/pkg/apiclient"
	"github.com/samvad-hq/bizdesk/pkg/publishers"
)

// Relay is the snapshot relay runtime. It owns the relay loop, the publisher
// fanout, the metrics endpoint and the client runtime they share.
type Relay struct {
	cfg      *config.Config
	runtime  *Runtime
	fanout   *publishers.Fanout
	service  *relay.Service
	metrics  *metrics.Metrics
	interval time.Duration
	log      logger.Logger
}

// NewRelay builds a relay runtime from config files.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients, publishers.WithSendTimeout(cfg.PublishTimeout))
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	m := metrics.New()
	rt, err := NewRuntime(cfg, log, apiclient.WithObserver(m.ObserveCall))
	if err != nil {
		_ = fanout.Close()
		return nil, err
	}

	service := relay.NewService(
		relay.DefaultSources(rt.Services),
		rt.Client.BaseURL(),
		rt.Services.Auth,
		rt.Sessions,
		domain.Credentials{Email: cfg.RelayEmail, Password: cfg.RelayPassword},
		fanout,
		rt.Store,
		m,
		log,
		relay.Options{RetryAttempts: cfg.RelayRetryAttempts},
	)

	return &Relay{
		cfg:      cfg,
		runtime:  rt,
		fanout:   fanout,
		service:  service,
		metrics:  m,
		interval: cfg.RelayInterval,
		log:      log,
	}, nil
}

// Run starts the relay loop until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("relay is not initialized")
	}
	defer r.close()

	if r.cfg.MetricsAddr != "" {
		go func() {
			if err := r.metrics.Serve(ctx, r.cfg.MetricsAddr, r.log); err != nil {
				r.log.ErrorObj("metrics server failed", "error", err)
			}
		}()
	}

	r.log.InfoObj("relay loop starting", "relay_state", map[string]any{
		"publishers_count": r.fanout.Size(),
		"relay_interval":   r.interval.String(),
		"api_base_url":     r.runtime.Client.BaseURL(),
	})

	if err := r.runOnce(ctx); err != nil {
		r.log.ErrorObj("initial relay pass failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("relay loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				r.log.ErrorObj("scheduled relay pass failed", "error", err)
			}
		}
	}
}

func (r *Relay) runOnce(ctx context.Context) error {
	start := time.Now()
	r.log.DebugObj("relay pass started", "relay_meta", map[string]any{"started_at": start.UTC()})
	if err := r.service.Run(ctx); err != nil {
		return err
	}
	r.log.InfoObj("relay pass completed", "relay_meta", map[string]any{
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func (r *Relay) close() {
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publisher close failed", "error", err)
	}
	r.runtime.Close()
}
