package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// PlaybackOutcome describes how an Audio Output stream ended.
type PlaybackOutcome int

const (
	// PlaybackFinished means the stream reached its natural end.
	PlaybackFinished PlaybackOutcome = iota
	// PlaybackFailed means the stream ended with an error.
	PlaybackFailed
	// PlaybackSkipped means the stream was stopped on request.
	PlaybackSkipped
)

// String returns a human-readable representation of the outcome.
func (o PlaybackOutcome) String() string {
	switch o {
	case PlaybackFailed:
		return "failed"
	case PlaybackSkipped:
		return "skipped"
	default:
		return "finished"
	}
}

// GuildPlaybackState holds the queue and playback settings of one guild.
//
// GuildPlaybackState does not serialize concurrent callers. Every access
// must happen under the per-guild lock held by GuildStateRepository.WithState.
type GuildPlaybackState struct {
	guildID               snowflake.ID
	maxSize               int
	queue                 Queue
	loopMode              LoopMode
	defaultPlatform       Platform
	pendingErrorCount     int
	notificationChannelID snowflake.ID

	// voiceChannelID is the voice channel the bot last joined. Zero when
	// the bot is not in voice.
	voiceChannelID snowflake.ID

	// activeToken identifies the play request bound to the head.
	// Empty while the guild is idle.
	activeToken string
}

// NewGuildPlaybackState creates an empty state for the guild whose queue
// holds at most maxSize tracks.
func NewGuildPlaybackState(guildID snowflake.ID, maxSize int) *GuildPlaybackState {
	return &GuildPlaybackState{
		guildID:         guildID,
		maxSize:         maxSize,
		queue:           NewQueue(),
		loopMode:        LoopModeNone,
		defaultPlatform: PlatformYouTube,
	}
}

// GuildID returns the guild ID.
func (s *GuildPlaybackState) GuildID() snowflake.ID {
	return s.guildID
}

// MaxSize returns the queue capacity.
func (s *GuildPlaybackState) MaxSize() int {
	return s.maxSize
}

// Enqueue appends a track, failing with ErrQueueFull at capacity.
func (s *GuildPlaybackState) Enqueue(track Track) error {
	if s.queue.Len() >= s.maxSize {
		return ErrQueueFull
	}
	s.queue.Append(track)
	return nil
}

// PeekHead returns the head track without removing it.
func (s *GuildPlaybackState) PeekHead() (Track, bool) {
	return s.queue.Head()
}

// PopHead removes and returns the head track.
func (s *GuildPlaybackState) PopHead() (Track, bool) {
	return s.queue.PopHead()
}

// RotateHeadToTail moves the head track to the end of the queue.
func (s *GuildPlaybackState) RotateHeadToTail() {
	s.queue.RotateHeadToTail()
}

// Clear empties the queue and releases the head from any in-flight play
// request, so a late completion of that request is treated as stale.
func (s *GuildPlaybackState) Clear() {
	s.queue.Clear()
	s.activeToken = ""
}

// Len returns the queue length.
func (s *GuildPlaybackState) Len() int {
	return s.queue.Len()
}

// Remaining returns how many more tracks fit in the queue.
func (s *GuildPlaybackState) Remaining() int {
	return max(s.maxSize-s.queue.Len(), 0)
}

// Tracks returns a copy of the queued tracks, head first.
func (s *GuildPlaybackState) Tracks() []Track {
	return s.queue.Tracks()
}

// LoopMode returns the loop mode.
func (s *GuildPlaybackState) LoopMode() LoopMode {
	return s.loopMode
}

// SetLoopMode sets the loop mode.
func (s *GuildPlaybackState) SetLoopMode(mode LoopMode) {
	s.loopMode = mode
}

// DefaultPlatform returns the platform of the most recent play request.
func (s *GuildPlaybackState) DefaultPlatform() Platform {
	return s.defaultPlatform
}

// SetDefaultPlatform records the platform of a play request.
func (s *GuildPlaybackState) SetDefaultPlatform(p Platform) {
	s.defaultPlatform = p
}

// ResetErrorCount zeroes the resolution error counter.
func (s *GuildPlaybackState) ResetErrorCount() {
	s.pendingErrorCount = 0
}

// IncrementErrorCount records one resolution failure.
func (s *GuildPlaybackState) IncrementErrorCount() {
	s.pendingErrorCount++
}

// AddErrorCount records n resolution failures.
func (s *GuildPlaybackState) AddErrorCount(n int) {
	if n > 0 {
		s.pendingErrorCount += n
	}
}

// ErrorCount returns the number of resolution failures since the last reset.
func (s *GuildPlaybackState) ErrorCount() int {
	return s.pendingErrorCount
}

// NotificationChannelID returns the text channel used for playback notices.
func (s *GuildPlaybackState) NotificationChannelID() snowflake.ID {
	return s.notificationChannelID
}

// SetNotificationChannelID sets the text channel used for playback notices.
func (s *GuildPlaybackState) SetNotificationChannelID(channelID snowflake.ID) {
	s.notificationChannelID = channelID
}

// VoiceChannelID returns the voice channel the bot is in, or 0.
func (s *GuildPlaybackState) VoiceChannelID() snowflake.ID {
	return s.voiceChannelID
}

// SetVoiceChannelID records the voice channel the bot is in. Zero means
// the bot left voice.
func (s *GuildPlaybackState) SetVoiceChannelID(channelID snowflake.ID) {
	s.voiceChannelID = channelID
}

// BeginPlayback binds the head to the play request identified by token.
func (s *GuildPlaybackState) BeginPlayback(token string) {
	s.activeToken = token
}

// IsPlaybackActive reports whether a play request is bound to the head.
func (s *GuildPlaybackState) IsPlaybackActive() bool {
	return s.activeToken != ""
}

// AbandonPlayback unbinds the head from token without touching the queue.
// It returns false if token is not the active request.
func (s *GuildPlaybackState) AbandonPlayback(token string) bool {
	if token == "" || token != s.activeToken {
		return false
	}
	s.activeToken = ""
	return true
}

// CompletePlayback applies outcome for the play request identified by token
// and returns the track that was at the head. It returns false, leaving the
// state untouched, if token is not the active request.
func (s *GuildPlaybackState) CompletePlayback(
	token string,
	outcome PlaybackOutcome,
) (Track, bool) {
	if token == "" || token != s.activeToken {
		return Track{}, false
	}
	s.activeToken = ""

	head, _ := s.queue.Head()
	s.ApplyOutcome(outcome)
	return head, true
}

// ApplyOutcome mutates the queue for a head track that ended with outcome.
//
// A failed track is always removed regardless of loop mode. Finished and
// skipped tracks follow the loop mode, so skipping under LoopModeOne replays
// the head.
func (s *GuildPlaybackState) ApplyOutcome(outcome PlaybackOutcome) {
	if outcome == PlaybackFailed {
		s.queue.PopHead()
		return
	}

	switch s.loopMode {
	case LoopModeOne:
	case LoopModeAll:
		s.queue.RotateHeadToTail()
	default:
		s.queue.PopHead()
	}
}
