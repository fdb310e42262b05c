package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
	"golang.org/x/time/rate"
)

// YtdlpConfig contains yt-dlp resolver configuration.
type YtdlpConfig struct {
	// Executable is the yt-dlp binary name or path.
	Executable string
	// Rate limits how many resolver processes start per second.
	Rate  float64
	Burst int
}

// ytdlpFormat mirrors one element of the "formats" array in yt-dlp JSON output.
type ytdlpFormat struct {
	URL    string `json:"url"`
	ACodec string `json:"acodec"`
}

// ytdlpInfo mirrors the subset of yt-dlp's info dict the resolver reads.
type ytdlpInfo struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	URL           string        `json:"url"`
	WebpageURL    string        `json:"webpage_url"`
	Formats       []ytdlpFormat `json:"formats"`
	Entries       *[]*ytdlpInfo `json:"entries"`
	PlaylistCount int           `json:"playlist_count"`
}

// runYtdlp runs one yt-dlp invocation and returns its stdout.
type runYtdlp func(ctx context.Context, query string, opts ports.ExtractOptions) (string, error)

// YtdlpResolver resolves queries by running yt-dlp and parsing its JSON dump.
type YtdlpResolver struct {
	limiter *rate.Limiter
	run     runYtdlp
}

// NewYtdlpResolver creates a new YtdlpResolver.
func NewYtdlpResolver(config YtdlpConfig) *YtdlpResolver {
	r := &YtdlpResolver{
		limiter: rate.NewLimiter(rate.Limit(config.Rate), max(config.Burst, 1)),
	}
	r.run = func(ctx context.Context, query string, opts ports.ExtractOptions) (string, error) {
		return runCommand(ctx, config.Executable, query, opts)
	}
	return r
}

func runCommand(
	ctx context.Context,
	executable string,
	query string,
	opts ports.ExtractOptions,
) (string, error) {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig().
		DumpSingleJSON().
		SkipDownload().
		Format("bestaudio/best")

	if executable != "" {
		cmd.SetExecutable(executable)
	}
	if opts.Flat {
		cmd.FlatPlaylist()
	}
	if opts.PlaylistEnd > 0 {
		cmd.PlaylistItems(fmt.Sprintf("1-%d", opts.PlaylistEnd))
	}
	if opts.IgnoreErrors {
		cmd.IgnoreErrors()
	}

	result, err := cmd.Run(ctx, query)

	// With --ignore-errors yt-dlp exits non-zero when any item failed but
	// still prints the entries it could extract.
	if result != nil && strings.TrimSpace(result.Stdout) != "" {
		if err != nil {
			slog.Debug("yt-dlp reported partial failure", "query", query, "error", err)
		}
		return result.Stdout, nil
	}
	if err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w", err)
	}
	return "", nil
}

// Extract resolves query into resolver metadata.
func (r *YtdlpResolver) Extract(
	ctx context.Context,
	query string,
	opts ports.ExtractOptions,
) (*ports.ResolverEntry, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("resolver rate limit: %w", err)
	}

	stdout, err := r.run(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return parseYtdlpOutput(stdout)
}

// parseYtdlpOutput decodes a --dump-single-json document.
// Empty output or a JSON null yields a nil entry.
func parseYtdlpOutput(stdout string) (*ports.ResolverEntry, error) {
	stdout = strings.TrimSpace(stdout)
	if stdout == "" {
		return nil, nil
	}

	var info *ytdlpInfo
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp output: %w", err)
	}
	return info.toEntry(), nil
}

func (i *ytdlpInfo) toEntry() *ports.ResolverEntry {
	if i == nil {
		return nil
	}

	entry := &ports.ResolverEntry{
		ID:            i.ID,
		Title:         i.Title,
		URL:           i.URL,
		WebpageURL:    i.WebpageURL,
		PlaylistCount: i.PlaylistCount,
	}
	for _, f := range i.Formats {
		entry.Formats = append(entry.Formats, ports.Format{URL: f.URL, ACodec: f.ACodec})
	}
	if i.Entries != nil {
		entry.HasEntries = true
		entry.Entries = make([]*ports.ResolverEntry, len(*i.Entries))
		for n, child := range *i.Entries {
			entry.Entries[n] = child.toEntry()
		}
	}
	return entry
}

// Ensure YtdlpResolver implements ports.TrackResolver.
var _ ports.TrackResolver = (*YtdlpResolver)(nil)
