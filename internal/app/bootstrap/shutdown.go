// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background workers and closes the store client.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Probe != nil {
		deps.Probe.Stop()
	}
	if deps.ViewLimiter != nil {
		deps.ViewLimiter.Stop()
	}
	if deps.Store != nil {
		logger.Info("closing store client", zap.String("backend", deps.Store.BackendName()))
		if err := deps.Store.Close(ctx); err != nil {
			logger.Error("store close failed", zap.Error(err))
			return err
		}
	}
	return nil
}
