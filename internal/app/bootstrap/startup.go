// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/tccsite/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after the store client
// and schema setup are complete, but before the HTTP handler is built.
// It applies timeout overrides and starts the store probe.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		cur := timeouts.Current()
		logger.Info("timeouts configured from environment",
			zap.Int("overrides", n),
			zap.Duration("ping", cur.Ping),
			zap.Duration("read", cur.Read),
			zap.Duration("write", cur.Write),
			zap.Duration("fetch", cur.Fetch),
			zap.Duration("batch", cur.Batch))
	}

	if deps.Probe != nil {
		deps.Probe.Start()
	}
	return nil
}
