// internal/app/features/storeadmin/handler.go
package storeadmin

import (
	uierrors "github.com/dalemusser/tccsite/internal/app/features/errors"
	"github.com/dalemusser/tccsite/internal/app/store/content"
	"github.com/dalemusser/tccsite/internal/app/system/auditlog"
	"github.com/dalemusser/tccsite/internal/app/system/migrate"
	"go.uber.org/zap"
)

// Handler owns the store maintenance endpoints: migration and backup.
type Handler struct {
	Repo     *content.Repository
	Migrator *migrate.Migrator
	Env      string
	Audit    *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs a store admin Handler. env labels backups.
func NewHandler(repo *content.Repository, migrator *migrate.Migrator, env string, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Repo:     repo,
		Migrator: migrator,
		Env:      env,
		Audit:    audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}
