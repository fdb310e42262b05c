package infrastructure

import "errors"

var (
	// ErrNoNode is returned when no Lavalink node is available.
	ErrNoNode = errors.New("no available Lavalink node")
	// ErrNoTrack is returned when a stream URL yields nothing playable.
	ErrNoTrack = errors.New("no playable track at URL")
	// ErrVoiceNotConnected is returned when playback is requested without a voice connection.
	ErrVoiceNotConnected = errors.New("not connected to a voice channel")
	// ErrNoStream is returned when a control is applied with nothing streaming.
	ErrNoStream = errors.New("no active stream")
	// ErrTrackStuck is reported when a stream stops delivering audio.
	ErrTrackStuck = errors.New("track stuck")
)
