package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
)

// Embed colors.
const (
	colorRed = 0xE74C3C
)

// channelMessenger is the subset of *discordgo.Session the Notifier needs.
type channelMessenger interface {
	ChannelMessageSend(
		channelID string,
		content string,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
	ChannelMessageSendEmbed(
		channelID string,
		embed *discordgo.MessageEmbed,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
}

// Notifier sends notifications to Discord channels.
type Notifier struct {
	session channelMessenger
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{session: session}
}

// SendNowPlaying announces the track that started playing.
func (n *Notifier) SendNowPlaying(channelID snowflake.ID, title string) error {
	content := fmt.Sprintf("Now playing: **%s**", title)
	if _, err := n.session.ChannelMessageSend(channelID.String(), content); err != nil {
		return fmt.Errorf("failed to send now playing message: %w", err)
	}
	return nil
}

// SendError sends an error embed to the channel.
func (n *Notifier) SendError(channelID snowflake.ID, message string) error {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       colorRed,
	}
	if _, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed); err != nil {
		return fmt.Errorf("failed to send error message: %w", err)
	}
	return nil
}

// Ensure Notifier implements ports.NotificationSender.
var _ ports.NotificationSender = (*Notifier)(nil)
