// Package ratelimiter provides per-key request limiting for the completion
// endpoint.
package ratelimiter

import "context"

// RateLimiter answers whether a request identified by key may proceed.
// Implementations count the request when they return true.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
