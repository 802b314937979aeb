package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLocked   = errors.New("session is locked")
	ErrSessionBusy     = errors.New("session changed concurrently")
)

const maxUpdateAttempts = 50

// unlockScript deletes the lock only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// UpdateFunc receives a decoder for the stored document and returns the
// value to write back.
type UpdateFunc func(decode func(dst interface{}) error) (interface{}, error)

// SessionStore keeps JSON documents under prefix:<id> with a sliding TTL.
// Every successful read or write pushes the expiry out again.
type SessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, prefix string, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *SessionStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *SessionStore) lockKey(id string) string {
	return s.key(id) + ":lock"
}

// Create stores v only if no session with this id exists yet.
func (s *SessionStore) Create(ctx context.Context, id string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(id), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s already exists", id)
	}
	logger.Debug("Session created", logger.Fields{"key": s.key(id)})
	return nil
}

// Load decodes the session into dst.
func (s *SessionStore) Load(ctx context.Context, id string, dst interface{}) error {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode session: %w", err)
	}
	if err := s.client.Expire(ctx, s.key(id), s.ttl).Err(); err != nil {
		logger.Warn("Failed to refresh session TTL", logger.Fields{"key": s.key(id), "error": err.Error()})
	}
	return nil
}

// Save overwrites an existing session. It fails with ErrSessionNotFound if
// the session expired in the meantime.
func (s *SessionStore) Save(ctx context.Context, id string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	ok, err := s.client.SetXX(ctx, s.key(id), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes the session; deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Update reads, changes and writes a session under WATCH so concurrent
// updates never overwrite each other. fn is rerun when the session changes
// between the read and the write. A locked session fails with
// ErrSessionLocked.
func (s *SessionStore) Update(ctx context.Context, id string, fn UpdateFunc) error {
	key := s.key(id)
	lockKey := s.lockKey(id)

	txf := func(tx *redis.Tx) error {
		locked, err := tx.Exists(ctx, lockKey).Result()
		if err != nil {
			return fmt.Errorf("failed to check session lock: %w", err)
		}
		if locked > 0 {
			return ErrSessionLocked
		}

		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		v, err := fn(func(dst interface{}) error {
			if err := json.Unmarshal(data, dst); err != nil {
				return fmt.Errorf("failed to decode session: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key, lockKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	logger.Warn("Session update gave up after retries", logger.Fields{"key": key})
	return ErrSessionBusy
}

// Lock takes an exclusive lock on the session for ttl. Update fails while
// the lock is held. The returned func releases the lock if it is still ours.
func (s *SessionStore) Lock(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	lockKey := s.lockKey(id)
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if !ok {
		return nil, ErrSessionLocked
	}

	return func() {
		// The request context may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := unlockScript.Run(releaseCtx, s.client, []string{lockKey}, token).Err(); err != nil {
			logger.Warn("Failed to release session lock", logger.Fields{"key": lockKey, "error": err.Error()})
		}
	}, nil
}
