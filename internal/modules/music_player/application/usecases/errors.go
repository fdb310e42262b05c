package usecases

import "errors"

// Domain errors for the music player module.
var (
	// ErrNotConnected is returned when an operation requires the bot to be in a voice channel.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrNotPlaying is returned when no track is currently playing.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrNotPaused is returned when trying to resume while not paused.
	ErrNotPaused = errors.New("playback is not paused")

	// ErrQueueLimitReached is returned when a play request arrives with a full queue.
	ErrQueueLimitReached = errors.New("queue limit reached")
)
