package cache

// DefaultNamespace prefixes keys stored in shared backends.
const DefaultNamespace = "scalebar:"

// ScopedKeyer wraps a Keyer with a prefix so several tools can share one
// Redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PreviewKey generates a prefixed preview key.
func (k *ScopedKeyer) PreviewKey(opts PreviewKeyOpts) string {
	return k.prefix + k.inner.PreviewKey(opts)
}
