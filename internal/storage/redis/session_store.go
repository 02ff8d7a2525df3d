package redis

import (
	"context"

	"github.com/ppops/unifistats/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Fetch loads the session state for key, applying the idle-expiry rule:
// when the gap since the stored last-activity stamp exceeds the idle
// timeout the whole record is wiped and a fresh empty state is
// returned. The new stamp is written back immediately so the next
// request measures its gap from this one.
func (s *Store) Fetch(ctx context.Context, key string) (*storage.SessionState, error) {
	rkey := sessionKey(key)

	data, err := s.client.HGetAll(ctx, rkey).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	now := s.now()

	state := &storage.SessionState{LastActivity: now}
	if len(data) > 0 {
		parsed, err := parseSessionState(data)
		if err != nil {
			// An unreadable record is treated like an expired one
			parsed = nil
		}

		if parsed != nil && now.Sub(parsed.LastActivity) <= s.idleTimeout {
			parsed.LastActivity = now
			state = parsed
		} else if err := s.client.Del(ctx, rkey).Err(); err != nil {
			return nil, err
		}
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, rkey, "last_activity", formatTime(now))
	pipe.Expire(ctx, rkey, s.idleTimeout)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	return state, nil
}

// Save persists the full session state and refreshes the key TTL.
func (s *Store) Save(ctx context.Context, key string, state *storage.SessionState) error {
	rkey := sessionKey(key)

	fields, err := sessionFields(state)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, rkey)
	pipe.HSet(ctx, rkey, fields)
	pipe.Expire(ctx, rkey, s.idleTimeout)
	_, err = pipe.Exec(ctx)
	return err
}

// Reset wipes the session unconditionally.
func (s *Store) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, sessionKey(key)).Err()
}
