package services

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// sharedCallTimeout bounds an upstream call made on behalf of every caller
// waiting on a singleflight key
const sharedCallTimeout = 30 * time.Second

// sharedCall runs fn once per key for all concurrent callers. fn gets a context
// detached from any single caller's cancellation, so one caller giving up does
// not fail the others. Each caller still returns as soon as its own ctx is done.
func sharedCall(ctx context.Context, group *singleflight.Group, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := group.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()
		return fn(callCtx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
