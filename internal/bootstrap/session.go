package bootstrap

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/tractify/tractify-go/config"
	"github.com/tractify/tractify-go/internal/adapters/devauth"
	"github.com/tractify/tractify-go/internal/adapters/memory"
	"github.com/tractify/tractify-go/internal/adapters/oidc"
	redisadapter "github.com/tractify/tractify-go/internal/adapters/redis"
	"github.com/tractify/tractify-go/internal/backend"
	"github.com/tractify/tractify-go/internal/ports"
	"github.com/tractify/tractify-go/internal/service"
)

// SessionOptions contains configuration for the session core.
type SessionOptions struct {
	Config    config.AppConfig
	Navigator ports.Navigator
	Logger    *slog.Logger
}

// BuildSessionManager creates the session manager based on the configured
// auth mode. Returns nil if auth is not configured or configuration is
// invalid.
func BuildSessionManager(ctx context.Context, opts SessionOptions) *service.SessionManager {
	provider := buildProvider(ctx, opts)
	if provider == nil {
		return nil
	}

	client, err := backend.NewClient(backend.ClientOptions{
		BaseURL: opts.Config.Backend.BaseURL,
		Timeout: opts.Config.Backend.Timeout,
		Logger:  opts.Logger,
	})
	if err != nil {
		if opts.Logger != nil {
			opts.Logger.Warn("failed to create backend client, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewSessionManager(service.SessionManagerOptions{
		Provider: provider,
		API:      client,
		Deps: service.SessionManagerDeps{
			Cache:     BuildSessionCache(opts.Config.Cache),
			Navigator: opts.Navigator,
			Logger:    opts.Logger,
		},
		Config: service.SessionConfig{
			RestoreTimeout: opts.Config.Session.RestoreTimeout,
			RestoreBackoff: opts.Config.Session.RestoreBackoff,
		},
	})
}

// BuildSessionCache creates the snapshot cache. Redis when enabled,
// process memory otherwise.
func BuildSessionCache(cfg config.CacheConfig) ports.SessionCache {
	if !cfg.Enabled {
		return memory.NewSessionCache()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return redisadapter.NewSessionCacheWithKey(client, "tractify:session", cfg.SnapshotTTL)
}

func buildProvider(ctx context.Context, opts SessionOptions) ports.IdentityProvider {
	switch opts.Config.Auth.Mode {
	case config.AuthModeMock:
		return buildDevProvider(opts)
	case config.AuthModeOIDC:
		return buildOIDCProvider(ctx, opts)
	default:
		return nil
	}
}

func buildDevProvider(opts SessionOptions) ports.IdentityProvider {
	dev := opts.Config.Auth.DevAuth
	prov, err := devauth.NewProvider(devauth.Config{
		UserID:     dev.UserID,
		Email:      dev.Email,
		Password:   dev.Password,
		AutoSignIn: dev.AutoSignIn,
		TokenTTL:   dev.TokenTTL,
	})
	if err != nil {
		if opts.Logger != nil {
			opts.Logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
		}
		return nil
	}
	return prov
}

func buildOIDCProvider(ctx context.Context, opts SessionOptions) ports.IdentityProvider {
	// Only enable when fully configured
	oc := opts.Config.Auth.OIDC
	if oc.DiscoveryURL == "" || oc.ClientID == "" {
		if opts.Logger != nil {
			opts.Logger.Warn("AuthModeOIDC selected but required config missing; auth disabled",
				"discovery_url_empty", oc.DiscoveryURL == "",
				"client_id_empty", oc.ClientID == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:           oc.ClientID,
		ClientSecret:       oc.ClientSecret,
		Scope:              oc.Scope,
		DiscoveryURL:       oc.DiscoveryURL,
		SignupURL:          oc.SignupURL,
		VerificationURL:    oc.VerificationURL,
		StoredRefreshToken: oc.StoredRefreshToken,
	})
	if err != nil {
		if opts.Logger != nil {
			opts.Logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		}
		return nil
	}
	return prov
}
