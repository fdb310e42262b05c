package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

// NotificationEventHandler relays playback events to the guild's text channel.
type NotificationEventHandler struct {
	subscriber ports.EventSubscriber
	notifier   ports.NotificationSender
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	subscriber ports.EventSubscriber,
	notifier ports.NotificationSender,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		subscriber: subscriber,
		notifier:   notifier,
	}
}

// Start registers event handlers with the subscriber.
func (h *NotificationEventHandler) Start() {
	h.subscriber.OnPlaybackStarted(h.handlePlaybackStarted)
	h.subscriber.OnPlaybackFailed(h.handlePlaybackFailed)

	slog.Debug("notification event handlers registered")
}

func (h *NotificationEventHandler) handlePlaybackStarted(
	_ context.Context,
	event domain.PlaybackStartedEvent,
) {
	if event.NotificationChannelID == 0 {
		return
	}

	if err := h.notifier.SendNowPlaying(event.NotificationChannelID, event.Track.Title); err != nil {
		slog.Warn("failed to send now playing notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handlePlaybackFailed(
	_ context.Context,
	event domain.PlaybackFailedEvent,
) {
	if event.NotificationChannelID == 0 {
		return
	}

	if err := h.notifier.SendError(event.NotificationChannelID, FailureMessage(event)); err != nil {
		slog.Warn("failed to send playback error notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

// FailureMessage renders the channel message for a dropped track.
func FailureMessage(event domain.PlaybackFailedEvent) string {
	icon := "⚠️"
	if event.Stage == domain.FailureAtStartup {
		icon = "❌"
	}
	return fmt.Sprintf("%s Error playing **%s**: %v. Skipping to next song.",
		icon, event.Track.Title, event.Err)
}
