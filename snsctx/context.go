// Package snsctx carries per-command flags through context.
package snsctx

import "context"

type key int

const verboseKey key = iota

// IsVerbose reports whether raw device traffic should be dumped.
func IsVerbose(ctx context.Context) bool {
	v, _ := ctx.Value(verboseKey).(bool)
	return v
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, verboseKey, value)
}
