package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	VoiceChannelID snowflake.ID
}

// LeaveInput contains the input for the Leave use case.
type LeaveInput struct {
	GuildID snowflake.ID
}

// BotDisconnectedInput contains the input for handling an external disconnect.
type BotDisconnectedInput struct {
	GuildID snowflake.ID
}

// VoiceChannelService handles voice channel operations.
type VoiceChannelService struct {
	repo            domain.GuildStateRepository
	voiceConnection ports.VoiceConnection
	voiceState      ports.VoiceStateProvider
	output          ports.AudioOutput
}

// NewVoiceChannelService creates a new VoiceChannelService.
func NewVoiceChannelService(
	repo domain.GuildStateRepository,
	voiceConnection ports.VoiceConnection,
	voiceState ports.VoiceStateProvider,
	output ports.AudioOutput,
) *VoiceChannelService {
	return &VoiceChannelService{
		repo:            repo,
		voiceConnection: voiceConnection,
		voiceState:      voiceState,
		output:          output,
	}
}

// Join connects the bot to the user's voice channel, moving it if needed.
func (v *VoiceChannelService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	channelID, err := v.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
	if err != nil {
		return nil, err
	}
	if channelID == 0 {
		return nil, ErrUserNotInVoice
	}

	// Already in the user's channel: rejoining would reset the live voice session
	var current snowflake.ID
	_ = v.repo.WithState(input.GuildID, func(state *domain.GuildPlaybackState) error {
		current = state.VoiceChannelID()
		return nil
	})
	if current == channelID && v.output.IsConnected(input.GuildID) {
		return &JoinOutput{VoiceChannelID: channelID}, nil
	}

	// The guild lock is not held while joining, it can take seconds
	if err := v.voiceConnection.JoinChannel(ctx, input.GuildID, channelID); err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	v.recordVoiceChannel(input.GuildID, channelID)

	return &JoinOutput{VoiceChannelID: channelID}, nil
}

func (v *VoiceChannelService) recordVoiceChannel(guildID, channelID snowflake.ID) {
	_ = v.repo.WithState(guildID, func(state *domain.GuildPlaybackState) error {
		state.SetVoiceChannelID(channelID)
		return nil
	})
}

// Leave clears the queue, stops playback and disconnects.
func (v *VoiceChannelService) Leave(ctx context.Context, input LeaveInput) error {
	if !v.output.IsConnected(input.GuildID) {
		return ErrNotConnected
	}

	return v.repo.WithState(input.GuildID, func(state *domain.GuildPlaybackState) error {
		state.Clear()
		state.SetVoiceChannelID(0)

		if v.output.IsPlaying(input.GuildID) || v.output.IsPaused(input.GuildID) {
			if err := v.output.Stop(ctx, input.GuildID); err != nil {
				slog.Warn("failed to stop playback before leaving", "guild", input.GuildID, "error", err)
			}
		}

		if err := v.output.Disconnect(ctx, input.GuildID); err != nil {
			return fmt.Errorf("failed to leave voice channel: %w", err)
		}
		return nil
	})
}

// HandleBotDisconnected drops the queue after the bot was removed from voice
// by someone else, so a later play starts from a clean state.
func (v *VoiceChannelService) HandleBotDisconnected(input BotDisconnectedInput) {
	_ = v.repo.WithState(input.GuildID, func(state *domain.GuildPlaybackState) error {
		if state.Len() > 0 {
			slog.Info("cleared queue after external disconnect", "guild", input.GuildID)
		}
		state.Clear()
		state.SetVoiceChannelID(0)
		return nil
	})
}

// BotMovedInput contains the input for tracking the bot's voice channel.
type BotMovedInput struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
}

// HandleBotMoved records the voice channel the bot is now in, including
// moves made by other members.
func (v *VoiceChannelService) HandleBotMoved(input BotMovedInput) {
	v.recordVoiceChannel(input.GuildID, input.ChannelID)
}
