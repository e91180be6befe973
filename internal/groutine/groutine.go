// Package groutine starts goroutines tagged with a name, visible in pprof
// goroutine profiles and retrievable from their context.
package groutine

import (
	"context"
	"runtime/pprof"
	"sync"
)

type ctxKey struct{}

// Go runs fn in a new goroutine labelled name.
//
//	groutine.Go(ctx, "notify-pump", func(ctx context.Context) {
//	    // work
//	})
//
// If parentCtx is nil, context.Background() is used.
func Go(parentCtx context.Context, name string, fn func(ctx context.Context)) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	labels := pprof.Labels("goroutine_name", name)
	go pprof.Do(parentCtx, labels, func(ctx context.Context) {
		fn(context.WithValue(ctx, ctxKey{}, name))
	})
}

// GoTracked is Go with wg accounting: wg.Add(1) before start, wg.Done() on return.
func GoTracked(parentCtx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	Go(parentCtx, name, func(ctx context.Context) {
		defer wg.Done()
		fn(ctx)
	})
}

// Name returns the name given to the goroutine owning ctx, or "" outside one.
func Name(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(ctxKey{}).(string); ok {
		return s
	}
	return ""
}
