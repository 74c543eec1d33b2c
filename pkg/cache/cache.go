// Package cache provides byte-level caching for attachment downloads and
// converted documents.
//
// Scanning a Confluence space re-reads the same attachments over and over;
// the migrator caches downloaded diagram bytes and finished conversions so
// re-runs only pay for pages that actually changed. Backends share one
// interface: a file cache for CLI usage, a Redis cache for the shared web
// service, and a null cache for tests and --no-cache runs.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface all backends implement. Get reports a miss
// with hit=false and a nil error; errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys for the things the migrator caches. Implementations
// must be deterministic: the same inputs always produce the same key.
type Keyer interface {
	// AttachmentKey identifies one version of a page attachment.
	AttachmentKey(pageID, attachmentID string, version int) string

	// ConversionKey identifies a finished conversion of the given source
	// bytes under the given options.
	ConversionKey(sourceHash string, opts ConversionKeyOpts) string

	// HTTPKey identifies a cached HTTP response in a namespace.
	HTTPKey(namespace, key string) string
}

// ConversionKeyOpts are the inputs that change a conversion's output beyond
// the source bytes themselves.
type ConversionKeyOpts struct {
	WithImages bool   `json:"with_images"`
	MapperHash string `json:"mapper_hash,omitempty"`
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// AttachmentKey generates a key for one attachment version.
func (k *DefaultKeyer) AttachmentKey(pageID, attachmentID string, version int) string {
	return hashKey("attachment", pageID, attachmentID, version)
}

// ConversionKey generates a key for a conversion result.
func (k *DefaultKeyer) ConversionKey(sourceHash string, opts ConversionKeyOpts) string {
	return hashKey("conversion", sourceHash, opts)
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

var _ Keyer = (*DefaultKeyer)(nil)
