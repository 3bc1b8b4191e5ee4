package http

import "context"

type resolvedPathKey struct{}

// WithResolvedPath returns a copy of ctx carrying the resolved storage path.
func WithResolvedPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, resolvedPathKey{}, path)
}

// ResolvedPathFromContext returns the path stored by WithResolvedPath.
func ResolvedPathFromContext(ctx context.Context) (string, bool) {
	path, ok := ctx.Value(resolvedPathKey{}).(string)
	return path, ok
}
