package domain

import (
	"strings"
)

// QueryKind classifies user input passed to /play.
type QueryKind int

const (
	// QueryKindSearchTerm is free text to be searched on a platform.
	QueryKindSearchTerm QueryKind = iota
	// QueryKindURL is a link to a single entry.
	QueryKindURL
	// QueryKindPlaylistURL is a link that carries playlist markers.
	QueryKindPlaylistURL
)

// String returns a human-readable representation of the query kind.
func (k QueryKind) String() string {
	switch k {
	case QueryKindURL:
		return "url"
	case QueryKindPlaylistURL:
		return "playlist_url"
	default:
		return "search_term"
	}
}

// ClassifyQuery determines how input should be resolved.
func ClassifyQuery(input string) QueryKind {
	if !isURL(input) {
		return QueryKindSearchTerm
	}
	if strings.Contains(input, "playlist") || strings.Contains(input, "list=") {
		return QueryKindPlaylistURL
	}
	return QueryKindURL
}

// isURL checks if the input starts with an http or https scheme.
func isURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}
