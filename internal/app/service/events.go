package service

import (
	"context"
	"time"
)

// Publisher pushes live events to the back-office dashboard.
type Publisher interface {
	Publish(eventType string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// Cache is the JSON cache the menu is served from.
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) bool
	Set(ctx context.Context, key string, v interface{}, ttl time.Duration)
	Invalidate(ctx context.Context, keys ...string)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string, interface{}) bool { return false }
func (nopCache) Set(context.Context, string, interface{}, time.Duration) {}
func (nopCache) Invalidate(context.Context, ...string) {}

// TokenRevoker blacklists access tokens on logout.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, expiry time.Duration) error
}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func cacheOrNop(c Cache) Cache {
	if c == nil {
		return nopCache{}
	}
	return c
}
