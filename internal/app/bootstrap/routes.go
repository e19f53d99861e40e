// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	admincontentfeature "github.com/dalemusser/tccsite/internal/app/features/admincontent"
	collectionsfeature "github.com/dalemusser/tccsite/internal/app/features/collections"
	errorsfeature "github.com/dalemusser/tccsite/internal/app/features/errors"
	healthfeature "github.com/dalemusser/tccsite/internal/app/features/health"
	researchfilesfeature "github.com/dalemusser/tccsite/internal/app/features/researchfiles"
	storeadminfeature "github.com/dalemusser/tccsite/internal/app/features/storeadmin"
	viewsfeature "github.com/dalemusser/tccsite/internal/app/features/views"
	"github.com/dalemusser/tccsite/internal/app/store/content"
	"github.com/dalemusser/tccsite/internal/app/store/mdfiles"
	"github.com/dalemusser/tccsite/internal/app/system/auditlog"
	"github.com/dalemusser/tccsite/internal/app/system/auth"
	"github.com/dalemusser/tccsite/internal/app/system/migrate"
	"github.com/dalemusser/tccsite/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, the store client, schema setup,
// and Startup have completed. The content repository built here is shared
// by every feature; the admin routes sit behind the bearer-token guard.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	repo := content.New(deps.Store, mdfiles.NewReader(appCfg.ContentDir), content.Options{
		KeyPrefix:       appCfg.KeyPrefix,
		MutationRetries: uint(appCfg.MutationRetries),
	}, logger)

	// Create error logger and audit logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)
	audit := auditlog.New(logger, auditlog.Config{Admin: appCfg.AuditLogAdmin})
	guard := auth.NewAdminGuard(appCfg.AdminTokenHash, audit, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Store, deps.Probe, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli).
	// Local research PDFs redirect here.
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public content reads
	collectionsHandler := collectionsfeature.NewHandler(repo, errLog, logger)
	r.Mount("/api/content", collectionsfeature.Routes(collectionsHandler))
	collectionsfeature.MountAnnouncements(r, collectionsHandler)

	// Research view counter (increments are rate limited per client IP)
	limiter := deps.ViewLimiter
	if limiter == nil {
		limiter = ratelimit.New(float64(appCfg.ViewsRateLimit), appCfg.ViewsRateBurst).
			TrustProxyHeaders(appCfg.TrustProxyHeaders)
	}
	viewsHandler := viewsfeature.NewHandler(repo, errLog, logger)
	r.Mount("/api/research/views", viewsfeature.Routes(viewsHandler, limiter.Middleware))

	// Research PDFs
	filesHandler := researchfilesfeature.NewHandler(repo, appCfg.PDFTrustedHosts, appCfg.PDFFetchTimeout, errLog, logger)
	r.Mount("/research/files", researchfilesfeature.Routes(filesHandler))

	// Admin API
	adminHandler := admincontentfeature.NewHandler(repo, audit, errLog, logger)
	storeAdminHandler := storeadminfeature.NewHandler(repo, migrate.New(repo, logger), coreCfg.Env, audit, errLog, logger)
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(guard.RequireAdmin)
		storeadminfeature.MountRoutes(r, storeAdminHandler)
		admincontentfeature.MountRoutes(r, adminHandler)
	})

	return r, nil
}
