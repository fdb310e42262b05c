package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/usecases"
)

const (
	colorQueue = 0x3498db

	// queueViewLines is the number of queue lines shown before the overflow footer.
	queueViewLines = 15
)

// queueEmbed renders a queue snapshot. The head of the queue is the track now playing.
func queueEmbed(output *usecases.QueueListOutput) *discordgo.MessageEmbed {
	var sb strings.Builder
	for i, track := range output.Tracks[:min(len(output.Tracks), queueViewLines)] {
		if i == 0 {
			fmt.Fprintf(&sb, "🎵 Now Playing: %s\n", track.Title)
			continue
		}
		// Escape period to prevent Discord markdown list formatting
		fmt.Fprintf(&sb, "%d\\. %s\n", i, track.Title)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Current Queue",
		Description: strings.TrimSuffix(sb.String(), "\n"),
		Color:       colorQueue,
	}

	if hidden := len(output.Tracks) - queueViewLines; hidden > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("And %d more songs...", hidden),
		}
	}

	switch output.LoopMode {
	case usecases.LoopModeOne:
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Loop Status",
			Value: "🔂 Looping current song",
		})
	case usecases.LoopModeAll:
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Loop Status",
			Value: "🔁 Looping entire queue",
		})
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Queue Limit",
		Value:  fmt.Sprintf("%d/%d songs", len(output.Tracks), output.MaxSize),
		Inline: true,
	})

	return embed
}
