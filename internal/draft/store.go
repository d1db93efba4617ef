package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for unknown or expired drafts.
var ErrNotFound = errors.New("draft not found")

// Store persists drafts as JSON with a sliding TTL.
type Store struct {
	R   *redis.Client
	TTL time.Duration
}

func (s Store) key(id string) string {
	return "draft:" + id
}

func (s Store) ttl() time.Duration {
	if s.TTL <= 0 {
		return 12 * time.Hour
	}
	return s.TTL
}

// Load reads a draft and extends its lifetime.
func (s Store) Load(ctx context.Context, id string) (*Draft, error) {
	data, err := s.R.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", id, err)
	}
	if err := s.R.Expire(ctx, s.key(id), s.ttl()).Err(); err != nil {
		return nil, fmt.Errorf("touch draft: %w", err)
	}
	return &d, nil
}

// Save writes the draft and restarts its TTL.
func (s Store) Save(ctx context.Context, d *Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.R.Set(ctx, s.key(d.ID), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Delete removes a draft. Deleting a missing draft is not an error.
func (s Store) Delete(ctx context.Context, id string) error {
	return s.R.Del(ctx, s.key(id)).Err()
}
