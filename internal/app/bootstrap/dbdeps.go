// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/app/system/ratelimit"
	"github.com/dalemusser/tccsite/internal/app/system/workers"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Store is the process-wide key-value client. It is created in ConnectDB,
// passed to every component that needs it, and closed in Shutdown.
//
// ViewLimiter guards view increments and is stopped in Shutdown.
type DBDeps struct {
	Store       *kv.Client
	Probe       *workers.StoreProbe
	ViewLimiter *ratelimit.Limiter
}
