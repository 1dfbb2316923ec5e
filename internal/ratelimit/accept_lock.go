package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Release checks the holder value so a slow accept whose TTL lapsed cannot
// delete the lock a newer accept now holds.
const acceptReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const defaultAcceptLockTTL = 30 * time.Second

// acceptLock serializes concurrent acceptance of one invite token. The lock
// is advisory: losing it (or redis being down) falls back to the database
// unique constraints, which stay authoritative.
type acceptLock struct {
	client *redis.Client
	script *redis.Script
	ttl    time.Duration
}

func newAcceptLock(client *redis.Client, ttl time.Duration) *acceptLock {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultAcceptLockTTL
	}
	return &acceptLock{
		client: client,
		script: redis.NewScript(acceptReleaseScript),
		ttl:    ttl,
	}
}

// acquire takes the lock for an invite token. The returned release func is
// safe to call when the lock was not acquired.
func (l *acceptLock) acquire(ctx context.Context, inviteToken string) (func(), bool, error) {
	if l == nil || l.client == nil {
		return func() {}, false, errors.New("accept lock not configured")
	}
	token := strings.TrimSpace(inviteToken)
	if token == "" {
		return func() {}, false, errors.New("invite token is empty")
	}

	key := fmt.Sprintf(keyAcceptLock, token)
	holder := uuid.NewString()
	set, err := l.client.SetNX(ctx, key, holder, l.ttl).Result()
	if err != nil || !set {
		return func() {}, set, err
	}

	release := func() {
		_ = l.script.Run(context.Background(), l.client, []string{key}, holder).Err()
	}
	return release, true, nil
}
