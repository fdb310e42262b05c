package ports

import (
	"context"

	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

// EventSubscriber defines the interface for subscribing to events.
// Handlers are invoked in publish order from a single dispatcher.
type EventSubscriber interface {
	OnPlaybackStarted(handler func(context.Context, domain.PlaybackStartedEvent))
	OnPlaybackFailed(handler func(context.Context, domain.PlaybackFailedEvent))
}
