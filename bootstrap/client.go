package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/zamanivault/zamanivault-go/api"
	"github.com/zamanivault/zamanivault-go/config"
	"github.com/zamanivault/zamanivault-go/notify"
	"github.com/zamanivault/zamanivault-go/session"
	"github.com/zamanivault/zamanivault-go/store"
	"github.com/zamanivault/zamanivault-go/store/filestore"
	"github.com/zamanivault/zamanivault-go/store/memstore"
	"github.com/zamanivault/zamanivault-go/store/redisstore"
	"github.com/zamanivault/zamanivault-go/transport"
)

// Client bundles the fully wired client surfaces.
type Client struct {
	Gateway   *transport.Gateway
	Session   *session.Manager
	Content   *api.ContentClient
	Account   *api.AccountClient
	Analytics *api.AnalyticsClient
}

// ClientOptions carries optional collaborators for NewClient.
type ClientOptions struct {
	// Sink receives user-facing notifications. Optional.
	Sink notify.Sink

	// HTTPClient overrides the gateway's HTTP client. Optional.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// NewClient wires the credential store, gateway, session manager, and
// API clients from configuration. Call Session.Restore afterwards to
// rehydrate a persisted session.
func NewClient(cfg config.AppConfig, opts ClientOptions) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	credStore, redisClient, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	gw, err := transport.NewGateway(transport.Options{
		BaseURL:     cfg.API.BaseURL,
		Store:       credStore,
		Client:      clientFor(cfg, opts),
		RefreshPath: cfg.API.RefreshPath,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	mgr, err := session.NewManager(session.Options{
		Backend: gw,
		Store:   credStore,
		Sink:    opts.Sink,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create session manager: %w", err)
	}
	gw.BindTokens(mgr)

	content, err := api.NewContentClient(api.ContentClientOptions{
		Backend: gw,
		Cache:   buildCache(cfg, redisClient),
		TTL:     cfg.Cache.TTL,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create content client: %w", err)
	}
	account, err := api.NewAccountClient(api.AccountClientOptions{Backend: gw, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("create account client: %w", err)
	}
	analytics, err := api.NewAnalyticsClient(api.AnalyticsClientOptions{Backend: gw, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("create analytics client: %w", err)
	}

	return &Client{
		Gateway:   gw,
		Session:   mgr,
		Content:   content,
		Account:   account,
		Analytics: analytics,
	}, nil
}

// buildStore selects the credential store backend from configuration.
// The Redis client is returned alongside so the content cache can share
// the connection when Redis is in play.
func buildStore(cfg config.AppConfig) (store.Store, redis.UniversalClient, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return memstore.New(), nil, nil
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisstore.NewWithPrefix(client, cfg.Storage.Prefix), client, nil
	case config.StorageFile:
		fs, err := filestore.New(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("create file store: %w", err)
		}
		return fs, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// buildCache returns the content cache, or nil when caching is disabled.
func buildCache(cfg config.AppConfig, redisClient redis.UniversalClient) api.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	if redisClient != nil {
		return api.NewRedisCache(redisClient, cfg.Storage.Prefix+"cache:")
	}
	return api.NewMemoryCache()
}

func clientFor(cfg config.AppConfig, opts ClientOptions) *http.Client {
	if opts.HTTPClient != nil {
		return opts.HTTPClient
	}
	return &http.Client{Timeout: cfg.API.Timeout}
}
