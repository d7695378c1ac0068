package app

import (
	"context"
	"fmt"

	"github.com/samvad-hq/library-client/internal/config"
	"github.com/samvad-hq/library-client/internal/credentials"
	"github.com/samvad-hq/library-client/internal/domain"
	"github.com/samvad-hq/library-client/internal/guard"
	"github.com/samvad-hq/library-client/internal/logger"
	"github.com/samvad-hq/library-client/internal/notify"
	"github.com/samvad-hq/library-client/internal/pipeline"
	"github.com/samvad-hq/library-client/internal/refresh"
	"github.com/samvad-hq/library-client/pkg/api"
	"github.com/samvad-hq/library-client/pkg/endpoints"
	"github.com/samvad-hq/library-client/pkg/httpclient"
)

// Options carries the collaborators a front end plugs into the runtime.
type Options struct {
	// Navigator is told to show the login entry point when credentials expire.
	Navigator pipeline.Navigator
	// Sinks receive every notification in addition to the queue and the log.
	Sinks []notify.Sink
	// Transport replaces the resty transport built from config.
	Transport httpclient.Client
	// Backend replaces the credential backend built from config.
	Backend credentials.Backend
}

// Client represents the library portal client runtime. It owns the
// credential store, the notification queue and the request pipeline, and
// exposes the session operations built on top of them.
type Client struct {
	cfg       *config.Config
	log       logger.Logger
	store     *credentials.Store
	queue     *notify.Queue
	fanout    *notify.Fanout
	refresher *refresh.Coordinator
	pipeline  *pipeline.Pipeline
	guard     *guard.Guard
	api       *api.Service
}

// NewClient builds a client runtime from config.
func NewClient(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	catalog := endpoints.DefaultCatalog()
	if cfg.EndpointsFile != "" {
		loaded, err := endpoints.LoadCatalog(cfg.EndpointsFile)
		if err != nil {
			return nil, fmt.Errorf("load endpoints catalog: %w", err)
		}
		catalog = loaded
	}
	log.InfoObj("endpoint catalog loaded", "catalog_meta", map[string]any{
		"count": catalog.Size(),
		"file":  cfg.EndpointsFile,
	})

	backend := opts.Backend
	if backend == nil {
		var err error
		backend, err = credentials.NewBackend(cfg.CredentialStore, credentials.Options{
			BBoltPath:      cfg.BBoltPath,
			RedisAddr:      cfg.RedisAddr,
			RedisPassword:  cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			RedisKeyPrefix: cfg.RedisKeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("init credential store: %w", err)
		}
	}
	store := credentials.NewStore(backend)
	if _, err := store.AccessToken(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("probe credential store: %w", err)
	}
	log.InfoObj("credential store initialized", "storage_config", map[string]any{
		"type": cfg.CredentialStore,
		"path": cfg.BBoltPath,
	})

	queue := notify.NewQueue(cfg.NotifyDisplay)
	sinks := append([]notify.Sink{queue, notify.NewLogSink(log)}, opts.Sinks...)
	if cfg.NotifyWebhookURL != "" {
		hook, err := notify.NewWebhookSink(notify.WebhookConfig{
			App:     cfg.AppName,
			URL:     cfg.NotifyWebhookURL,
			Method:  cfg.NotifyWebhookMethod,
			Timeout: cfg.NotifyWebhookTimeout,
		}, nil, log)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("init notification webhook: %w", err)
		}
		sinks = append(sinks, hook)
		log.InfoObj("notification webhook enabled", "webhook_config", map[string]any{
			"url":    cfg.NotifyWebhookURL,
			"method": cfg.NotifyWebhookMethod,
		})
	}
	fanout := notify.NewFanout(sinks...)

	transport := opts.Transport
	if transport == nil {
		transport = httpclient.NewRestyClient(cfg.APIBaseURL, cfg.RequestTimeout)
	}

	refresher := refresh.NewCoordinator(transport, store, refresh.Options{
		Path:     cfg.RefreshPath,
		Coalesce: cfg.RefreshCoalesce,
		Log:      log,
	})
	p := pipeline.New(transport, store, refresher, pipeline.Options{
		Sink:      fanout,
		Navigator: opts.Navigator,
		Log:       log,
	})
	g := guard.New(store, guard.Options{
		LoginRoute: cfg.LoginRoute,
		HomeRoute:  cfg.HomeRoute,
		Rules:      guard.AdminOnly(cfg.AdminRoutes...),
		Log:        log,
	})
	svc := api.NewService(p, store, api.Options{Catalog: catalog, Log: log})

	log.InfoObj("client runtime ready", "client_state", map[string]any{
		"base_url":         cfg.APIBaseURL,
		"timeout":          cfg.RequestTimeout.String(),
		"refresh_coalesce": cfg.RefreshCoalesce,
		"sinks_count":      fanout.Size(),
	})

	return &Client{
		cfg:       cfg,
		log:       log,
		store:     store,
		queue:     queue,
		fanout:    fanout,
		refresher: refresher,
		pipeline:  p,
		guard:     g,
		api:       svc,
	}, nil
}

// Refresh forces a refresh exchange outside of the pipeline.
func (c *Client) Refresh(ctx context.Context) (domain.TokenPair, error) {
	return c.refresher.Refresh(ctx)
}

// Config returns the configuration the runtime was built from.
func (c *Client) Config() *config.Config { return c.cfg }

// API returns the session operations.
func (c *Client) API() *api.Service { return c.api }

// Guard returns the route guard.
func (c *Client) Guard() *guard.Guard { return c.guard }

// Pipeline returns the request pipeline for raw requests.
func (c *Client) Pipeline() *pipeline.Pipeline { return c.pipeline }

// Notifications returns the visible notification queue.
func (c *Client) Notifications() *notify.Queue { return c.queue }

// Store returns the credential store.
func (c *Client) Store() *credentials.Store { return c.store }

// Close stops pending notification timers and closes the credential backend.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.queue != nil {
		c.queue.Close()
	}
	if c.store == nil {
		return nil
	}
	if err := c.store.Close(); err != nil {
		c.log.ErrorObj("credential store close failed", "error", err)
		return err
	}
	return nil
}
