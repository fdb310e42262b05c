package discord

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/usecases"
)

// EventHandlers handles Discord gateway events for the music player.
type EventHandlers struct {
	botID        snowflake.ID
	voiceChannel *usecases.VoiceChannelService
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(
	botID snowflake.ID,
	voiceChannel *usecases.VoiceChannelService,
) *EventHandlers {
	return &EventHandlers{
		botID:        botID,
		voiceChannel: voiceChannel,
	}
}

// HandleVoiceStateUpdate tracks the bot's voice channel. When the bot leaves
// voice, whether through /leave or because it was disconnected by someone
// else, the guild queue is cleared.
func (h *EventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if event.UserID != h.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	if event.ChannelID != "" {
		channelID, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		h.voiceChannel.HandleBotMoved(usecases.BotMovedInput{
			GuildID:   guildID,
			ChannelID: channelID,
		})
		return
	}

	slog.Debug("bot left voice", "guild", guildID)

	h.voiceChannel.HandleBotDisconnected(usecases.BotDisconnectedInput{GuildID: guildID})
}
