// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/app/system/ratelimit"
	"github.com/dalemusser/tccsite/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB builds the key-value store client.
//
// The client dials lazily, so an unreachable store does not stop the
// server: content reads fall back to the markdown files until it comes
// back. One connection attempt is made here only to log the outcome.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	dial, err := kv.Dialer(storeConfig(appCfg), logger)
	if err != nil {
		return DBDeps{}, err
	}
	store := kv.NewClient(dial, kv.Options{
		ConnectTimeout: appCfg.StoreConnectTimeout,
		RetryCooldown:  appCfg.StoreRetryCooldown,
		Logger:         logger,
	})

	if store.EnsureConnection(ctx) {
		logger.Info("connected to store", zap.String("backend", store.BackendName()))
	} else {
		logger.Warn("store unavailable at startup; serving content from files",
			zap.String("backend", appCfg.StoreBackend),
			zap.Error(store.LastError()))
	}

	limiter := ratelimit.New(float64(appCfg.ViewsRateLimit), appCfg.ViewsRateBurst).
		TrustProxyHeaders(appCfg.TrustProxyHeaders)

	return DBDeps{
		Store:       store,
		Probe:       workers.NewStoreProbe(store, logger, appCfg.HealthProbeInterval),
		ViewLimiter: limiter,
	}, nil
}

// EnsureSchema creates store indexes where the backend has any.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := deps.Store.EnsureSchema(ctx); err != nil {
		logger.Error("store schema setup failed", zap.Error(err))
		return err
	}
	return nil
}
