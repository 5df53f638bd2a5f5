package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultSessionLockTTL = 2 * time.Minute

var ErrSessionLocked = errors.New("a session for this boost is already running")

// releaseScript deletes the lock only if it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionLocks keeps one live session per user and boost across instances.
type SessionLocks struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewSessionLocks(rdb redis.UniversalClient, ttl time.Duration) *SessionLocks {
	if ttl <= 0 {
		ttl = DefaultSessionLockTTL
	}
	return &SessionLocks{rdb: rdb, ttl: ttl}
}

func lockKey(userID, boostID string) string {
	return "boost_session:" + userID + ":" + boostID
}

// Acquire takes the lock for sessionID. It returns ErrSessionLocked, naming
// the holder, when another session has it.
func (l *SessionLocks) Acquire(ctx context.Context, userID, boostID, sessionID string) error {
	ok, err := l.rdb.SetNX(ctx, lockKey(userID, boostID), sessionID, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		holder, err := l.Holder(ctx, userID, boostID)
		if err != nil || holder == "" {
			return ErrSessionLocked
		}
		return fmt.Errorf("%w (session %s)", ErrSessionLocked, holder)
	}
	return nil
}

// Holder returns the session id holding the lock, or "" when free.
func (l *SessionLocks) Holder(ctx context.Context, userID, boostID string) (string, error) {
	v, err := l.rdb.Get(ctx, lockKey(userID, boostID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// Release frees the lock if sessionID still owns it.
func (l *SessionLocks) Release(ctx context.Context, userID, boostID, sessionID string) error {
	return releaseScript.Run(ctx, l.rdb, []string{lockKey(userID, boostID)}, sessionID).Err()
}
