package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/connections-scraper/internal/entity"
	"github.com/user/connections-scraper/pkg/utils"
)

const snapshotPrefix = "snapshot:"

// SnapshotRepoImpl provides a concrete implementation for the SnapshotRepository interface using Redis.
type SnapshotRepoImpl struct {
	client *redis.Client
}

// NewSnapshotRepo creates a new instance of SnapshotRepoImpl.
func NewSnapshotRepo(client *redis.Client) *SnapshotRepoImpl {
	return &SnapshotRepoImpl{client: client}
}

// generateKey creates a consistent Redis key for a given URL by hashing it.
func (r *SnapshotRepoImpl) generateKey(url string) string {
	return fmt.Sprintf("%s%s", snapshotPrefix, utils.HashURL(url))
}

// Save stores the snapshot as JSON with an expiry. A later capture of the same URL
// replaces the earlier one.
func (r *SnapshotRepoImpl) Save(ctx context.Context, snapshot entity.Snapshot, expiry time.Duration) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.generateKey(snapshot.URL), payload, expiry).Err()
}

// Find returns the archived snapshot for url. It returns redis.Nil when absent.
func (r *SnapshotRepoImpl) Find(ctx context.Context, url string) (*entity.Snapshot, error) {
	payload, err := r.client.Get(ctx, r.generateKey(url)).Bytes()
	if err != nil {
		return nil, err
	}
	var snapshot entity.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
