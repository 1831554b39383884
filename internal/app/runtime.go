package app

import (
	"fmt"

	"github.com/samvad-hq/bizdesk/internal/config"
	"github.com/samvad-hq/bizdesk/internal/logger"
	"github.com/samvad-hq/bizdesk/internal/preferences"
	"github.com/samvad-hq/bizdesk/internal/session"
	"github.com/samvad-hq/bizdesk/internal/storage"
	"github.com/samvad-hq/bizdesk/pkg/apiclient"
	"github.com/samvad-hq/bizdesk/pkg/resources"
)

// Runtime is the client stack shared by the CLI and the relay: durable store,
// persisted cookie jar, API client, resource services, session and preferences.
type Runtime struct {
	Store    storage.Store
	Jar      *session.CookieJar
	Client   *apiclient.Client
	Services *resources.Services
	Sessions *session.Manager
	Prefs    *preferences.Store

	log logger.Logger
}

// NewRuntime opens storage and builds the API client from cfg. Extra client
// options (observer, transport) are applied after the defaults.
func NewRuntime(cfg *config.Config, log logger.Logger, opts ...apiclient.Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		DigestTTL:       cfg.DigestTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.DebugObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"digest_ttl_seconds":       int(cfg.DigestTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	jar, err := session.NewCookieJar(store, cfg.APIBaseURL, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	prefs := preferences.New(store)
	clientOpts := []apiclient.Option{
		apiclient.WithCookieJar(jar),
		apiclient.WithLogger(log),
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithLanguage(prefs.LanguageTag(cfg.APILanguage)),
	}
	client, err := apiclient.New(cfg.APIBaseURL, append(clientOpts, opts...)...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	return &Runtime{
		Store:    store,
		Jar:      jar,
		Client:   client,
		Services: resources.New(client),
		Sessions: session.NewManager(store, cfg.SessionTTL, session.WithCookieJar(jar), session.WithLogger(log)),
		Prefs:    prefs,
		log:      log,
	}, nil
}

// Close releases the storage backend, logging any errors encountered.
func (r *Runtime) Close() {
	if r == nil || r.Store == nil {
		return
	}
	if err := r.Store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err)
	}
}
