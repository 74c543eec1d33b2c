package cache

// ScopedKeyer wraps a Keyer with a prefix so caches can be shared across
// Confluence sites without key collisions. The web service scopes keys by
// the site base URL; the CLI normally runs unscoped.
//
// Example usage:
//
//	siteKeyer := NewScopedKeyer(NewDefaultKeyer(), "site:wiki.example.com:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. The prefix is prepended to
// all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// AttachmentKey generates a prefixed attachment key.
func (k *ScopedKeyer) AttachmentKey(pageID, attachmentID string, version int) string {
	return k.prefix + k.inner.AttachmentKey(pageID, attachmentID, version)
}

// ConversionKey generates a prefixed conversion key.
func (k *ScopedKeyer) ConversionKey(sourceHash string, opts ConversionKeyOpts) string {
	return k.prefix + k.inner.ConversionKey(sourceHash, opts)
}

// HTTPKey generates a prefixed HTTP response key.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

var _ Keyer = (*ScopedKeyer)(nil)
