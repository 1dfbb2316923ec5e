package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/affina/internal/config"
)

const (
	keyTrackingEvent = "tracking:event:%s"
	keyAcceptLock    = "affiliate:accept:lock:%s"
)

// TrackingIngestLimiter throttles public tracking-event ingestion per
// tracking code and serializes concurrent invite acceptance.
type TrackingIngestLimiter struct {
	enabled bool

	bucket *TokenBucket
	accept *acceptLock

	eventRate  float64
	eventBurst int
}

func NewTrackingIngestLimiter(cfg config.Config) (*TrackingIngestLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.TrackingEventRate <= 0 || limitCfg.TrackingEventBurst <= 0 {
		return nil, errors.New("tracking event rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &TrackingIngestLimiter{
		enabled:    true,
		bucket:     NewTokenBucket(client),
		accept:     newAcceptLock(client, time.Duration(limitCfg.AcceptLockTTL)*time.Second),
		eventRate:  limitCfg.TrackingEventRate,
		eventBurst: limitCfg.TrackingEventBurst,
	}, nil
}

func (l *TrackingIngestLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *TrackingIngestLimiter) AllowEvent(ctx context.Context, trackingCode string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyTrackingEvent, strings.TrimSpace(trackingCode)), l.eventRate, l.eventBurst)
}

// AcquireAcceptLock takes the advisory lock for an invite token. The
// returned release func is safe to call when the lock was not acquired.
func (l *TrackingIngestLimiter) AcquireAcceptLock(ctx context.Context, inviteToken string) (func(), bool, error) {
	if !l.Enabled() {
		return func() {}, true, nil
	}
	return l.accept.acquire(ctx, inviteToken)
}
