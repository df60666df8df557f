package capability

import "context"

type targetKey struct{}

// WithTarget returns a context carrying the dataset path a capability should
// run against. Multi-target execution sets this per task.
func WithTarget(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, targetKey{}, path)
}

// TargetFromContext returns the dataset path set by WithTarget, if any.
func TargetFromContext(ctx context.Context) (string, bool) {
	path, ok := ctx.Value(targetKey{}).(string)
	return path, ok
}
