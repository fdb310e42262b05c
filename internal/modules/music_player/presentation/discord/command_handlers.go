package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/bot"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/usecases"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	voiceChannel *usecases.VoiceChannelService
	playback     *usecases.PlaybackService
	queue        *usecases.QueueService
	play         *usecases.PlayService
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	voiceChannel *usecases.VoiceChannelService,
	playback *usecases.PlaybackService,
	queue *usecases.QueueService,
	play *usecases.PlayService,
) *CommandHandlers {
	return &CommandHandlers{
		voiceChannel: voiceChannel,
		playback:     playback,
		queue:        queue,
		play:         play,
	}
}

// followUpReporter sends progress messages as interaction follow-ups.
type followUpReporter struct {
	r bot.Responder
}

func (f followUpReporter) Report(message string) {
	if err := f.r.FollowUp(&discordgo.WebhookParams{Content: message}); err != nil {
		slog.Warn("failed to send follow-up", "error", err)
	}
}

// HandlePlay handles the /play command.
func (h *CommandHandlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return respondError(r, "Invalid user")
	}

	notificationChannelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return respondError(r, "Invalid notification channel")
	}

	var platform, query string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "platform":
			platform = opt.StringValue()
		case "query":
			query = opt.StringValue()
		}
	}

	// Resolving can take far longer than the initial response window
	if err := r.DeferResponse(); err != nil {
		return err
	}
	progress := followUpReporter{r: r}

	_, err = h.voiceChannel.Join(ctx, usecases.JoinInput{
		GuildID: guildID,
		UserID:  userID,
	})
	if errors.Is(err, usecases.ErrUserNotInVoice) {
		progress.Report("You must be in a voice channel.")
		return nil
	}
	if err != nil {
		slog.Error("failed to join voice channel", "guild", guildID, "error", err)
		progress.Report(fmt.Sprintf("❌ Error processing request: %v", err))
		return nil
	}

	_, err = h.play.Play(ctx, usecases.PlayInput{
		GuildID:               guildID,
		NotificationChannelID: notificationChannelID,
		Platform:              usecases.ParsePlatform(platform),
		Query:                 query,
		Progress:              progress,
	})
	switch {
	case errors.Is(err, usecases.ErrQueueLimitReached):
		progress.Report(fmt.Sprintf(
			"⚠️ Queue limit of %d songs has been reached. Please remove some songs first.",
			h.maxQueueSize(guildID),
		))
	case err != nil:
		slog.Error("failed to play", "guild", guildID, "query", query, "error", err)
		progress.Report(fmt.Sprintf("❌ Error processing request: %v", err))
	}

	return nil
}

func (h *CommandHandlers) maxQueueSize(guildID snowflake.ID) int {
	output, err := h.queue.List(usecases.QueueListInput{GuildID: guildID})
	if err != nil {
		return 0
	}
	return output.MaxSize
}

// HandleLoop handles the /loop command.
func (h *CommandHandlers) HandleLoop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.setLoopMode(i, r, usecases.LoopModeOne, "🔂 Looping current song!")
}

// HandleLoopQueue handles the /loopqueue command.
func (h *CommandHandlers) HandleLoopQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.setLoopMode(i, r, usecases.LoopModeAll, "🔁 Looping entire queue!")
}

// HandleUnloop handles the /unloop command.
func (h *CommandHandlers) HandleUnloop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.setLoopMode(i, r, usecases.LoopModeNone, "⏹️ Looping disabled.")
}

func (h *CommandHandlers) setLoopMode(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	mode usecases.LoopMode,
	message string,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	err = h.playback.SetLoopMode(context.Background(), usecases.SetLoopModeInput{
		GuildID: guildID,
		Mode:    mode,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, message)
}

// HandleLeave handles the /leave command.
func (h *CommandHandlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	err = h.voiceChannel.Leave(context.Background(), usecases.LeaveInput{GuildID: guildID})
	if errors.Is(err, usecases.ErrNotConnected) {
		return respondError(r, "Bot is not connected to any voice channel!")
	}
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "👋 Left the voice channel and cleared the queue!")
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	err = h.playback.Skip(context.Background(), usecases.SkipInput{GuildID: guildID})
	if errors.Is(err, usecases.ErrNotPlaying) {
		return respondError(r, "Nothing is playing to skip!")
	}
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "⏭️ Skipped current song!")
}

// HandleStop handles the /stop command.
func (h *CommandHandlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	output, err := h.playback.Stop(context.Background(), usecases.StopInput{GuildID: guildID})
	if errors.Is(err, usecases.ErrNotConnected) {
		return respondError(r, "Bot is not in a voice channel!")
	}
	if err != nil {
		return respondError(r, err.Error())
	}

	if !output.WasPlaying {
		return respondSuccess(r, "Nothing is playing!")
	}
	return respondSuccess(r, "⏹️ Playback stopped and queue cleared!")
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	err = h.playback.Pause(context.Background(), usecases.PauseInput{GuildID: guildID})
	if errors.Is(err, usecases.ErrNotPlaying) {
		return respondError(r, "Nothing is playing to pause!")
	}
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "⏸️ Playback paused!")
}

// HandleUnpause handles the /unpause command.
func (h *CommandHandlers) HandleUnpause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	err = h.playback.Resume(context.Background(), usecases.ResumeInput{GuildID: guildID})
	if errors.Is(err, usecases.ErrNotPaused) {
		return respondError(r, "Nothing is paused to resume!")
	}
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "▶️ Playback resumed!")
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	output, err := h.queue.List(usecases.QueueListInput{GuildID: guildID})
	if err != nil {
		return respondError(r, err.Error())
	}

	if len(output.Tracks) == 0 {
		return respondSuccess(r, "Queue is empty!")
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{queueEmbed(output)},
		},
	})
}

// Response helpers.

func respondSuccess(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: message,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}
