// Package records is the authoritative record store: it loads full typed
// collections from a backing source. No caching, no filtering — that is
// the cached record service's job.
package records

import (
	"context"

	"hr-assistant/internal/models"
)

// Source loads the full collection for one record kind. An unreadable or
// malformed backing source yields a DATA_LOAD_FAILED error.
type Source interface {
	LoadAll(ctx context.Context, kind models.RecordKind) ([]models.Record, error)
}
