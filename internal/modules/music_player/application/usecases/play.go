package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

// PlaybackStarter starts playback for a guild if it is idle.
type PlaybackStarter interface {
	Kick(guildID snowflake.ID)
}

// PlayInput contains the input for the Play use case.
type PlayInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
	Platform              domain.Platform
	Query                 string
	Progress              ports.ProgressReporter
}

// PlayOutput contains the result of the Play use case.
type PlayOutput struct {
	Added int
}

// PlayService resolves queries, enqueues the results and starts playback.
type PlayService struct {
	repo           domain.GuildStateRepository
	loader         *TrackLoaderService
	starter        PlaybackStarter
	resolveTimeout time.Duration
}

// NewPlayService creates a new PlayService. A zero resolveTimeout disables the timeout.
func NewPlayService(
	repo domain.GuildStateRepository,
	loader *TrackLoaderService,
	starter PlaybackStarter,
	resolveTimeout time.Duration,
) *PlayService {
	return &PlayService{
		repo:           repo,
		loader:         loader,
		starter:        starter,
		resolveTimeout: resolveTimeout,
	}
}

// Play resolves input.Query, enqueues what it finds and starts playback if
// the guild is idle. The guild lock is not held while the query resolves.
// Progress messages are sent to input.Progress as the request advances.
func (p *PlayService) Play(ctx context.Context, input PlayInput) (*PlayOutput, error) {
	var remaining, maxSize int
	err := p.repo.WithState(input.GuildID, func(state *domain.GuildPlaybackState) error {
		state.ResetErrorCount()
		state.SetDefaultPlatform(input.Platform)
		state.SetNotificationChannelID(input.NotificationChannelID)
		remaining = state.Remaining()
		maxSize = state.MaxSize()
		if remaining <= 0 {
			return ErrQueueLimitReached
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.resolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.resolveTimeout)
		defer cancel()
	}

	var added int
	if domain.ClassifyQuery(input.Query) == domain.QueryKindSearchTerm {
		added, err = p.playSearch(ctx, input, maxSize)
	} else {
		added, err = p.playURL(ctx, input, remaining, maxSize)
	}
	if err != nil {
		return nil, err
	}

	p.starter.Kick(input.GuildID)

	return &PlayOutput{Added: added}, nil
}

func (p *PlayService) playURL(
	ctx context.Context,
	input PlayInput,
	remaining, maxSize int,
) (int, error) {
	report := reporter(input.Progress)

	if domain.ClassifyQuery(input.Query) == domain.QueryKindPlaylistURL {
		report(fmt.Sprintf(
			"🎵 Detected playlist URL - limiting to first %d songs to fit queue limit.", remaining))
	}
	report(fmt.Sprintf("🔍 Processing URL: `%s`", input.Query))

	result := p.loader.ResolveURL(ctx, ResolveURLInput{
		URL:      input.Query,
		MaxItems: remaining,
	})

	if result.Failure == ResolveNoInfo {
		if err := p.recordErrors(input.GuildID, result.ResolverErrors); err != nil {
			return 0, err
		}
		report("❌ Failed to extract any information from this URL.")
		return 0, nil
	}

	if result.IsPlaylist {
		if result.TotalAvailable > maxSize {
			report(fmt.Sprintf("📋 Found playlist: **%s** (%d tracks, limited to first %d)",
				result.PlaylistTitle, result.TotalAvailable, maxSize))
		} else {
			report(fmt.Sprintf("📋 Found playlist: **%s** (%d tracks)",
				result.PlaylistTitle, result.TotalAvailable))
		}
	}

	added, full, errorCount, err := p.enqueue(input.GuildID, result)
	if err != nil {
		return 0, err
	}

	if full {
		report(fmt.Sprintf("⚠️ Queue limit of %d songs reached. Added %d songs.", maxSize, added))
	}

	if skipped := result.UnavailableCount + errorCount; skipped > 0 {
		if result.IsPlaylist {
			report(fmt.Sprintf(
				"⚠️ %d video(s) in the playlist were unavailable or restricted and were skipped.", skipped))
		} else {
			report(fmt.Sprintf(
				"⚠️ %d video(s) were unavailable or restricted and were skipped.", skipped))
		}
	}

	if added > 0 {
		report(fmt.Sprintf("➕ Added %d track(s) to queue!", added))
	} else {
		report("❌ No playable tracks found! The videos might be unavailable, age-restricted, or region-locked.")
	}

	return added, nil
}

func (p *PlayService) playSearch(ctx context.Context, input PlayInput, maxSize int) (int, error) {
	report := reporter(input.Progress)

	report(fmt.Sprintf("🔍 Searching on **%s** for: `%s`", input.Platform, input.Query))

	result := p.loader.ResolveSearch(ctx, ResolveSearchInput{
		Term:     input.Query,
		Platform: input.Platform,
		OnMatch: func(title string) {
			report(fmt.Sprintf("✅ Found best match: **%s**", title))
		},
	})

	if result.Failure != ResolveOK {
		if err := p.recordErrors(input.GuildID, result.ResolverErrors); err != nil {
			return 0, err
		}
		report(searchFailureMessage(result.Failure))
		return 0, nil
	}

	added, full, _, err := p.enqueue(input.GuildID, result)
	if err != nil {
		return 0, err
	}
	if full {
		report(fmt.Sprintf("⚠️ Queue limit of %d songs reached. Added %d songs.", maxSize, added))
		return 0, nil
	}

	report(fmt.Sprintf("➕ Added **%s** to the queue!", result.Tracks[0].Title))
	return added, nil
}

// enqueue appends result's tracks until the queue is full and returns how
// many were added, whether the limit was hit and the guild's error count.
func (p *PlayService) enqueue(
	guildID snowflake.ID,
	result *ResolveResult,
) (added int, full bool, errorCount int, err error) {
	err = p.repo.WithState(guildID, func(state *domain.GuildPlaybackState) error {
		state.AddErrorCount(result.ResolverErrors)
		errorCount = state.ErrorCount()

		for _, track := range result.Tracks {
			if err := state.Enqueue(track); err != nil {
				if errors.Is(err, domain.ErrQueueFull) {
					full = true
					return nil
				}
				return err
			}
			added++
		}
		return nil
	})

	if added > 0 {
		slog.Debug("enqueued tracks", "guild", guildID, "count", added)
	}
	return added, full, errorCount, err
}

func (p *PlayService) recordErrors(guildID snowflake.ID, n int) error {
	if n == 0 {
		return nil
	}
	return p.repo.WithState(guildID, func(state *domain.GuildPlaybackState) error {
		state.AddErrorCount(n)
		return nil
	})
}

func searchFailureMessage(failure ResolveFailure) string {
	switch failure {
	case ResolveNoValidResults:
		return "❌ No valid results found!"
	case ResolveNoMatchURL:
		return "❌ Could not determine URL for the best match."
	case ResolveNoDetails:
		return "❌ Failed to extract complete information for the selected track."
	case ResolveNoAudio:
		return "❌ Could not extract audio URL from the selected track."
	default:
		return "❌ No results found!"
	}
}

func reporter(progress ports.ProgressReporter) func(string) {
	if progress == nil {
		return func(string) {}
	}
	return progress.Report
}
