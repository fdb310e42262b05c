package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// GuildStateRepository provides exclusive access to per-guild playback state.
type GuildStateRepository interface {
	// WithState runs fn while holding the guild's lock, creating the state
	// on first access. The state must not be retained after fn returns.
	WithState(guildID snowflake.ID, fn func(state *GuildPlaybackState) error) error
}
