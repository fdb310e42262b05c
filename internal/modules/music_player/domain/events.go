package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// FailureStage tells when a track failed.
type FailureStage int

const (
	// FailureAtStartup means Audio Output rejected the stream.
	FailureAtStartup FailureStage = iota
	// FailureAtRuntime means the stream broke after it had started.
	FailureAtRuntime
)

// PlaybackStartedEvent is published when a track starts playing.
type PlaybackStartedEvent struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
	Track                 Track
}

// PlaybackFailedEvent is published when a track is dropped because of an error.
type PlaybackFailedEvent struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
	Track                 Track
	Stage                 FailureStage
	Err                   error
}
