package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

// PauseInput contains the input for the Pause use case.
type PauseInput struct {
	GuildID snowflake.ID
}

// ResumeInput contains the input for the Resume use case.
type ResumeInput struct {
	GuildID snowflake.ID
}

// SkipInput contains the input for the Skip use case.
type SkipInput struct {
	GuildID snowflake.ID
}

// StopInput contains the input for the Stop use case.
type StopInput struct {
	GuildID snowflake.ID
}

// StopOutput contains the result of the Stop use case.
type StopOutput struct {
	// WasPlaying is true if a stream was playing or paused when stopped.
	WasPlaying bool
}

// SetLoopModeInput contains the input for the SetLoopMode use case.
type SetLoopModeInput struct {
	GuildID snowflake.ID
	Mode    domain.LoopMode
}

// PlaybackService handles playback control operations.
// Queue advancement is left to the playback engine: Skip only stops the
// current stream and the engine reacts to its completion.
type PlaybackService struct {
	repo   domain.GuildStateRepository
	output ports.AudioOutput
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(
	repo domain.GuildStateRepository,
	output ports.AudioOutput,
) *PlaybackService {
	return &PlaybackService{
		repo:   repo,
		output: output,
	}
}

// Pause pauses the current playback.
func (p *PlaybackService) Pause(ctx context.Context, input PauseInput) error {
	if !p.output.IsPlaying(input.GuildID) {
		return ErrNotPlaying
	}
	return p.output.Pause(ctx, input.GuildID)
}

// Resume resumes paused playback.
func (p *PlaybackService) Resume(ctx context.Context, input ResumeInput) error {
	if !p.output.IsPaused(input.GuildID) {
		return ErrNotPaused
	}
	return p.output.Resume(ctx, input.GuildID)
}

// Skip stops the current stream so the engine advances the queue.
func (p *PlaybackService) Skip(ctx context.Context, input SkipInput) error {
	if !p.output.IsConnected(input.GuildID) || !p.output.IsPlaying(input.GuildID) {
		return ErrNotPlaying
	}
	return p.output.Stop(ctx, input.GuildID)
}

// Stop clears the queue and stops the current stream without leaving the channel.
func (p *PlaybackService) Stop(ctx context.Context, input StopInput) (*StopOutput, error) {
	if !p.output.IsConnected(input.GuildID) {
		return nil, ErrNotConnected
	}

	output := &StopOutput{}
	err := p.repo.WithState(input.GuildID, func(state *domain.GuildPlaybackState) error {
		state.Clear()

		if p.output.IsPlaying(input.GuildID) || p.output.IsPaused(input.GuildID) {
			output.WasPlaying = true
			if err := p.output.Stop(ctx, input.GuildID); err != nil {
				return fmt.Errorf("failed to stop playback: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("stopped playback", "guild", input.GuildID, "was_playing", output.WasPlaying)

	return output, nil
}

// SetLoopMode sets the loop mode for the guild.
func (p *PlaybackService) SetLoopMode(_ context.Context, input SetLoopModeInput) error {
	return p.repo.WithState(input.GuildID, func(state *domain.GuildPlaybackState) error {
		state.SetLoopMode(input.Mode)
		return nil
	})
}
