package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceConnection defines the interface for voice channel connection operations.
type VoiceConnection interface {
	// JoinChannel connects the bot to the specified voice channel, moving it
	// if it is already connected elsewhere in the guild.
	JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error
}
