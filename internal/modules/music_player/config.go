package music_player

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Audio backends.
const (
	BackendLavalink = "lavalink"
	BackendFFmpeg   = "ffmpeg"
)

// Config holds the music player module configuration.
type Config struct {
	AudioBackend string `env:"AUDIO_BACKEND" envDefault:"lavalink"`

	LavalinkAddress  string `env:"LAVALINK_ADDRESS"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE" envDefault:"false"`

	MaxPlaylistSize int           `env:"MAX_PLAYLIST_SIZE" envDefault:"100"`
	ResolveTimeout  time.Duration `env:"RESOLVE_TIMEOUT"   envDefault:"60s"`
	ResolveRate     float64       `env:"RESOLVE_RATE"      envDefault:"2"`
	ResolveBurst    int           `env:"RESOLVE_BURST"     envDefault:"4"`

	YtdlpPath    string `env:"YTDLP_PATH"    envDefault:"yt-dlp"`
	FFmpegPath   string `env:"FFMPEG_PATH"   envDefault:"ffmpeg"`
	AudioBitrate string `env:"AUDIO_BITRATE" envDefault:"96k"`
}

// LoadConfig parses the module configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AudioBackend {
	case BackendLavalink:
		if c.LavalinkAddress == "" {
			return errors.New("LAVALINK_ADDRESS is required for the lavalink backend")
		}
		if c.LavalinkPassword == "" {
			return errors.New("LAVALINK_PASSWORD is required for the lavalink backend")
		}
	case BackendFFmpeg:
	default:
		return fmt.Errorf("unknown AUDIO_BACKEND %q", c.AudioBackend)
	}

	if c.MaxPlaylistSize <= 0 {
		return fmt.Errorf("MAX_PLAYLIST_SIZE must be positive, got %d", c.MaxPlaylistSize)
	}
	if c.ResolveRate <= 0 {
		return fmt.Errorf("RESOLVE_RATE must be positive, got %v", c.ResolveRate)
	}
	return nil
}
