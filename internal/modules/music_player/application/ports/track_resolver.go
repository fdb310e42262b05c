package ports

import (
	"context"
)

// ExtractOptions tunes a single resolver call.
type ExtractOptions struct {
	// Flat skips per-entry extraction and returns shallow metadata only.
	Flat bool
	// PlaylistEnd limits playlist extraction to the first n items. Zero means no limit.
	PlaylistEnd int
	// IgnoreErrors keeps going when individual playlist items fail.
	IgnoreErrors bool
}

// Format is one downloadable variant of an entry.
type Format struct {
	URL    string
	ACodec string
}

// ResolverEntry is the metadata returned by the resolver for a query.
// A container (playlist or search) has HasEntries set; a nil element of
// Entries stands for an item that could not be extracted.
type ResolverEntry struct {
	ID            string
	Title         string
	URL           string
	WebpageURL    string
	Formats       []Format
	HasEntries    bool
	Entries       []*ResolverEntry
	PlaylistCount int
}

// TrackResolver defines the interface for external media extraction.
type TrackResolver interface {
	// Extract resolves query. A nil entry with a nil error means the
	// resolver returned nothing.
	Extract(ctx context.Context, query string, opts ExtractOptions) (*ResolverEntry, error)
}
