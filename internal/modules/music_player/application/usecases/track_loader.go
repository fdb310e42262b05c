package usecases

import (
	"context"
	"log/slog"

	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

// ResolveFailure tells why a resolve produced no tracks.
type ResolveFailure int

const (
	// ResolveOK means the resolve completed; Tracks may still be empty.
	ResolveOK ResolveFailure = iota
	// ResolveNoInfo means the resolver returned nothing for a URL.
	ResolveNoInfo
	// ResolveNoResults means a search returned no entries.
	ResolveNoResults
	// ResolveNoValidResults means every search entry failed to extract.
	ResolveNoValidResults
	// ResolveNoMatchURL means the best search match has no usable link.
	ResolveNoMatchURL
	// ResolveNoDetails means the best search match could not be fully extracted.
	ResolveNoDetails
	// ResolveNoAudio means the best search match has no audio stream.
	ResolveNoAudio
)

// ResolveResult is the outcome of turning a query into tracks.
type ResolveResult struct {
	Tracks []domain.Track

	// TotalAvailable is the number of items the source reports, which may
	// exceed the number requested from a playlist.
	TotalAvailable int

	// UnavailableCount counts items that could not be extracted or had no
	// audio stream.
	UnavailableCount int

	// ResolverErrors counts resolver calls that failed outright.
	ResolverErrors int

	IsPlaylist    bool
	PlaylistTitle string

	// MatchTitle is the title of the candidate picked by a search.
	MatchTitle string

	Failure ResolveFailure
}

// ResolveURLInput contains the input for ResolveURL.
type ResolveURLInput struct {
	URL string
	// MaxItems limits how many playlist items are requested.
	MaxItems int
}

// ResolveSearchInput contains the input for ResolveSearch.
type ResolveSearchInput struct {
	Term     string
	Platform domain.Platform
	// OnMatch, if set, is called with the chosen candidate's title before
	// it is fully extracted.
	OnMatch func(title string)
}

// TrackLoaderService turns user queries into queueable tracks.
type TrackLoaderService struct {
	resolver ports.TrackResolver
}

// NewTrackLoaderService creates a new TrackLoaderService.
func NewTrackLoaderService(resolver ports.TrackResolver) *TrackLoaderService {
	return &TrackLoaderService{
		resolver: resolver,
	}
}

// ResolveURL resolves a single-entry or playlist URL.
// Resolver errors are logged and counted, never returned.
func (s *TrackLoaderService) ResolveURL(ctx context.Context, input ResolveURLInput) *ResolveResult {
	result := &ResolveResult{}

	opts := ports.ExtractOptions{IgnoreErrors: true}
	if domain.ClassifyQuery(input.URL) == domain.QueryKindPlaylistURL {
		opts.PlaylistEnd = input.MaxItems
	}

	entry, err := s.resolver.Extract(ctx, input.URL, opts)
	if err != nil {
		slog.Warn("failed to resolve url", "url", input.URL, "error", err)
		result.ResolverErrors++
		result.Failure = ResolveNoInfo
		return result
	}
	if entry == nil {
		result.Failure = ResolveNoInfo
		return result
	}

	candidates := []*ports.ResolverEntry{entry}
	if entry.HasEntries {
		candidates = entry.Entries
		if countExtracted(candidates) > 1 {
			result.IsPlaylist = true
			result.PlaylistTitle = entry.Title
			if result.PlaylistTitle == "" {
				result.PlaylistTitle = "Unknown Playlist"
			}
		}
	}

	result.TotalAvailable = len(candidates)
	if entry.HasEntries && entry.PlaylistCount > 0 {
		result.TotalAvailable = entry.PlaylistCount
	}

	for _, candidate := range candidates {
		if candidate == nil {
			result.UnavailableCount++
			continue
		}
		audioURL := AudioURL(candidate)
		if audioURL == "" {
			result.UnavailableCount++
			continue
		}
		result.Tracks = append(result.Tracks, domain.NewTrack(audioURL, candidate.Title))
	}

	return result
}

// ResolveSearch runs a shallow search, picks the best-matching candidate
// and fully extracts only that one.
// Resolver errors are logged and counted, never returned.
func (s *TrackLoaderService) ResolveSearch(
	ctx context.Context,
	input ResolveSearchInput,
) *ResolveResult {
	result := &ResolveResult{}

	listing, err := s.resolver.Extract(ctx, input.Platform.SearchPrefix()+input.Term,
		ports.ExtractOptions{Flat: true, IgnoreErrors: true})
	if err != nil {
		slog.Warn("failed to search", "platform", input.Platform, "term", input.Term, "error", err)
		result.ResolverErrors++
		result.Failure = ResolveNoResults
		return result
	}
	if listing == nil || !listing.HasEntries || len(listing.Entries) == 0 {
		result.Failure = ResolveNoResults
		return result
	}

	var valid []*ports.ResolverEntry
	for _, candidate := range listing.Entries {
		if candidate != nil {
			valid = append(valid, candidate)
		}
	}
	if len(valid) == 0 {
		result.Failure = ResolveNoValidResults
		return result
	}
	result.TotalAvailable = len(valid)

	titles := make([]string, len(valid))
	for i, candidate := range valid {
		titles[i] = candidate.Title
	}
	best := valid[domain.BestMatch(input.Term, titles)]

	link := matchURL(best, input.Platform)
	if link == "" {
		result.Failure = ResolveNoMatchURL
		return result
	}

	result.MatchTitle = best.Title
	if result.MatchTitle == "" {
		result.MatchTitle = "Unknown"
	}
	if input.OnMatch != nil {
		input.OnMatch(result.MatchTitle)
	}

	full, err := s.resolver.Extract(ctx, link, ports.ExtractOptions{IgnoreErrors: true})
	if err != nil {
		slog.Warn("failed to resolve search match", "url", link, "error", err)
		result.ResolverErrors++
		result.Failure = ResolveNoDetails
		return result
	}
	if full == nil {
		result.Failure = ResolveNoDetails
		return result
	}

	audioURL := AudioURL(full)
	if audioURL == "" {
		result.UnavailableCount++
		result.Failure = ResolveNoAudio
		return result
	}

	result.Tracks = []domain.Track{domain.NewTrack(audioURL, full.Title)}
	return result
}

// AudioURL returns the playable stream of entry: its direct URL, or else the
// URL of the first format carrying audio. Empty means the entry is unplayable.
func AudioURL(entry *ports.ResolverEntry) string {
	if entry == nil {
		return ""
	}
	if entry.URL != "" {
		return entry.URL
	}
	for _, format := range entry.Formats {
		if format.ACodec != "none" {
			return format.URL
		}
	}
	return ""
}

// matchURL returns the link used to fully extract a shallow search result.
func matchURL(entry *ports.ResolverEntry, platform domain.Platform) string {
	if entry.URL != "" {
		return entry.URL
	}
	switch {
	case entry.ID != "" && platform == domain.PlatformYouTube:
		return "https://www.youtube.com/watch?v=" + entry.ID
	case entry.WebpageURL != "":
		return entry.WebpageURL
	default:
		return entry.ID
	}
}

func countExtracted(entries []*ports.ResolverEntry) int {
	n := 0
	for _, entry := range entries {
		if entry != nil {
			n++
		}
	}
	return n
}
