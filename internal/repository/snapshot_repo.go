package repository

import (
	"context"
	"time"

	"github.com/user/connections-scraper/internal/entity"
)

// SnapshotRepository archives raw page captures so selector drift can be debugged
// after a run.
type SnapshotRepository interface {
	// Save stores the snapshot keyed by its URL, expiring after expiry.
	Save(ctx context.Context, snapshot entity.Snapshot, expiry time.Duration) error
}
