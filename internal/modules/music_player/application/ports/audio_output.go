package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// StreamSource describes the audio stream to play.
type StreamSource struct {
	URL   string
	Title string
}

// PlaybackResult reports how a stream ended.
type PlaybackResult struct {
	// Err is set when the stream ended because of an error.
	Err error
	// Stopped is set when the stream ended because Stop was called.
	Stopped bool
}

// PlaybackDone is invoked exactly once for every successful Play call.
type PlaybackDone func(result PlaybackResult)

// AudioOutput defines the interface for streaming audio into a guild's voice session.
type AudioOutput interface {
	// Play starts streaming source. A non-nil error means the stream never
	// started and done will not be called.
	Play(ctx context.Context, guildID snowflake.ID, source StreamSource, done PlaybackDone) error

	// Stop stops the current stream. The pending done callback reports Stopped.
	Stop(ctx context.Context, guildID snowflake.ID) error

	// Pause pauses the current stream.
	Pause(ctx context.Context, guildID snowflake.ID) error

	// Resume resumes the paused stream.
	Resume(ctx context.Context, guildID snowflake.ID) error

	// Disconnect leaves the guild's voice channel.
	Disconnect(ctx context.Context, guildID snowflake.ID) error

	// IsConnected reports whether the bot is connected to a voice channel in the guild.
	IsConnected(guildID snowflake.ID) bool

	// IsPlaying reports whether a stream is active and not paused.
	IsPlaying(guildID snowflake.ID) bool

	// IsPaused reports whether the active stream is paused.
	IsPaused(guildID snowflake.ID) bool
}
