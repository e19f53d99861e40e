package content

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dalemusser/tccsite/internal/app/store/kv"
	"github.com/dalemusser/tccsite/internal/domain/models"
	"go.uber.org/zap"
)

// Views returns an article's view count. A missing counter, an
// unreachable store and an unreadable value all read as 0.
func (r *Repository) Views(ctx context.Context, slug string) int64 {
	slug = strings.TrimSpace(slug)
	if slug == "" || !r.store.EnsureConnection(ctx) {
		return 0
	}
	raw, ok, err := r.store.Get(ctx, models.ViewCounterKey(r.prefix, slug))
	if err != nil {
		r.log.Warn("view counter read failed", zap.String("slug", slug), zap.Error(err))
		return 0
	}
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		r.log.Warn("view counter not an integer", zap.String("slug", slug), zap.String("value", raw))
		return 0
	}
	return n
}

// IncrementViews atomically adds one view and returns the new count.
// Unlike Views it reports an unreachable store as kv.ErrUnavailable.
func (r *Repository) IncrementViews(ctx context.Context, slug string) (int64, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return 0, fmt.Errorf("%w: slug is required", ErrValidation)
	}
	if !r.store.EnsureConnection(ctx) {
		return 0, kv.ErrUnavailable
	}
	return r.store.Incr(ctx, models.ViewCounterKey(r.prefix, slug))
}
