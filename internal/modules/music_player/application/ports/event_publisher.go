package ports

import "github.com/sglre6355/jukebox/internal/modules/music_player/domain"

// EventPublisher defines the interface for publishing events asynchronously.
type EventPublisher interface {
	PublishPlaybackStarted(event domain.PlaybackStartedEvent)
	PublishPlaybackFailed(event domain.PlaybackFailedEvent)
}
