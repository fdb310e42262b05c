package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// NotificationSender defines the interface for sending notifications to Discord channels.
type NotificationSender interface {
	// SendNowPlaying announces the track that started playing.
	SendNowPlaying(channelID snowflake.ID, title string) error

	// SendError sends an error message to the channel.
	SendError(channelID snowflake.ID, message string) error
}

// ProgressReporter receives user-facing progress messages while a command runs.
type ProgressReporter interface {
	Report(message string)
}
