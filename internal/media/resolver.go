// Package media resolves asset references returned by the backend into URLs a browser can load.
package media

import (
	"context"
	"strings"
)

// Resolver turns an asset reference into an absolute URL.
type Resolver interface {
	Resolve(ctx context.Context, ref string) string
}

// IsAbsolute reports whether ref can be used as-is by a browser.
func IsAbsolute(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "//")
}

// BaseResolver prefixes relative references with a media base URL.
type BaseResolver struct {
	base string
}

// NewBaseResolver creates a resolver rooted at base.
func NewBaseResolver(base string) *BaseResolver {
	return &BaseResolver{base: strings.TrimRight(base, "/")}
}

// Resolve implements Resolver. Empty references stay empty.
func (r *BaseResolver) Resolve(_ context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || IsAbsolute(ref) {
		return ref
	}
	return r.base + "/" + strings.TrimLeft(ref, "/")
}

// ResolveAll resolves every reference in refs, returning a new slice.
func ResolveAll(ctx context.Context, r Resolver, refs []string) []string {
	if refs == nil {
		return nil
	}
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = r.Resolve(ctx, ref)
	}
	return out
}
