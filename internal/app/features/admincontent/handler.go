// internal/app/features/admincontent/handler.go
package admincontent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	uierrors "github.com/dalemusser/tccsite/internal/app/features/errors"
	"github.com/dalemusser/tccsite/internal/app/store/content"
	"github.com/dalemusser/tccsite/internal/app/system/auditlog"
	"github.com/dalemusser/tccsite/internal/domain/models"
	"go.uber.org/zap"
)

// MaxBodyBytes caps an admin request body.
const MaxBodyBytes = 5 << 20

// Handler owns the admin mutation endpoints for every collection.
type Handler struct {
	Repo   *content.Repository
	Audit  *auditlog.Logger
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs an admin content Handler.
func NewHandler(repo *content.Repository, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Repo:   repo,
		Audit:  audit,
		Log:    logger,
		ErrLog: errLog,
	}
}

// payload is a decoded request body: a sequence or a single record.
type payload struct {
	records []models.Record
	record  models.Record
	isList  bool
}

// readPayload decodes a JSON array of records or a single JSON object.
// Any other shape is a validation error.
func readPayload(w http.ResponseWriter, r *http.Request) (payload, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return payload{}, fmt.Errorf("%w: %v", content.ErrValidation, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return payload{}, fmt.Errorf("%w: request body is empty", content.ErrValidation)
	}
	switch raw[0] {
	case '[':
		var recs []models.Record
		if err := json.Unmarshal(raw, &recs); err != nil {
			return payload{}, fmt.Errorf("%w: expected an array of records: %v", content.ErrValidation, err)
		}
		if recs == nil {
			recs = []models.Record{}
		}
		return payload{records: recs, isList: true}, nil
	case '{':
		var rec models.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return payload{}, fmt.Errorf("%w: expected a record: %v", content.ErrValidation, err)
		}
		return payload{record: rec}, nil
	default:
		return payload{}, fmt.Errorf("%w: body must be a JSON array or object", content.ErrValidation)
	}
}
