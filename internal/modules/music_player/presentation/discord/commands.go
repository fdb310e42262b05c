package discord

import "github.com/bwmarrin/discordgo"

// Commands returns all slash commands for the music player module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Play a song or add it to the queue.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "platform",
					Description: "Select the platform to search on",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "YouTube", Value: "youtube"},
						{Name: "SoundCloud", Value: "soundcloud"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Song name, artist, or URL",
					Required:    true,
				},
			},
		},
		{
			Name:        "loop",
			Description: "Loop the current song.",
		},
		{
			Name:        "loopqueue",
			Description: "Loop the entire playlist queue.",
		},
		{
			Name:        "unloop",
			Description: "Stop looping.",
		},
		{
			Name:        "leave",
			Description: "Disconnect the bot from voice channel and clear the queue.",
		},
		{
			Name:        "skip",
			Description: "Skip the current song.",
		},
		{
			Name:        "stop",
			Description: "Stop playback and clear the queue.",
		},
		{
			Name:        "pause",
			Description: "Pause the current song.",
		},
		{
			Name:        "unpause",
			Description: "Resume playback.",
		},
		{
			Name:        "queue",
			Description: "Show the current song queue",
		},
	}
}
