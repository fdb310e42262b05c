package music_player

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/bot"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/jukebox/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/jukebox/internal/modules/music_player/presentation/discord"
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var (
	_ bot.ConfigurableModule = (*MusicPlayerModule)(nil)
	_ bot.IntentsModule      = (*MusicPlayerModule)(nil)
)

// audioBackend is an audio output that also manages its own voice connections.
type audioBackend interface {
	ports.AudioOutput
	ports.VoiceConnection
	OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate)
}

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	eventHandlers   *discord.EventHandlers

	backend         audioBackend
	lavalinkAdapter *infrastructure.LavalinkAdapter

	eventBus            *infrastructure.ChannelEventBus
	engine              *application.PlaybackEngine
	notificationHandler *application.NotificationEventHandler
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":      m.commandHandlers.HandlePlay,
		"loop":      m.commandHandlers.HandleLoop,
		"loopqueue": m.commandHandlers.HandleLoopQueue,
		"unloop":    m.commandHandlers.HandleUnloop,
		"leave":     m.commandHandlers.HandleLeave,
		"skip":      m.commandHandlers.HandleSkip,
		"stop":      m.commandHandlers.HandleStop,
		"pause":     m.commandHandlers.HandlePause,
		"unpause":   m.commandHandlers.HandleUnpause,
		"queue":     m.commandHandlers.HandleQueue,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.handleVoiceServerUpdate(s, event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.handleVoiceStateUpdate(s, event)
		},
	}
}

// Intents returns the gateway intents needed to track voice connections.
func (m *MusicPlayerModule) Intents() discordgo.Intent {
	return discordgo.IntentsGuildVoiceStates
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return errors.New("music_player requires a Discord session")
	}

	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return err
	}

	backend, err := m.newBackend(deps.Session)
	if err != nil {
		return err
	}
	m.backend = backend

	// Create infrastructure
	repo := infrastructure.NewMemoryRepository(m.config.MaxPlaylistSize)
	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	notifier := infrastructure.NewNotifier(deps.Session)
	resolver := infrastructure.NewYtdlpResolver(infrastructure.YtdlpConfig{
		Executable: m.config.YtdlpPath,
		Rate:       m.config.ResolveRate,
		Burst:      m.config.ResolveBurst,
	})

	// Create application layer
	m.engine = application.NewPlaybackEngine(repo, backend, m.eventBus)
	trackLoader := usecases.NewTrackLoaderService(resolver)
	voiceChannel := usecases.NewVoiceChannelService(repo, backend, voiceState, backend)
	playback := usecases.NewPlaybackService(repo, backend)
	queue := usecases.NewQueueService(repo)
	play := usecases.NewPlayService(repo, trackLoader, m.engine, m.config.ResolveTimeout)

	m.notificationHandler = application.NewNotificationEventHandler(m.eventBus, notifier)
	m.notificationHandler.Start()

	// Create presentation handlers
	m.commandHandlers = discord.NewCommandHandlers(voiceChannel, playback, queue, play)
	m.eventHandlers = discord.NewEventHandlers(botID, voiceChannel)

	slog.Info("music_player module initialized", "backend", m.config.AudioBackend)

	return nil
}

func (m *MusicPlayerModule) newBackend(session *discordgo.Session) (audioBackend, error) {
	if m.config.AudioBackend == BackendFFmpeg {
		return infrastructure.NewFFmpegOutput(session, infrastructure.FFmpegConfig{
			Executable: m.config.FFmpegPath,
			Bitrate:    m.config.AudioBitrate,
		}), nil
	}

	adapter, err := infrastructure.NewLavalinkAdapter(
		context.Background(),
		session,
		infrastructure.LavalinkConfig{
			Address:  m.config.LavalinkAddress,
			Password: m.config.LavalinkPassword,
			Secure:   m.config.LavalinkSecure,
		},
	)
	if err != nil {
		return nil, err
	}
	m.lavalinkAdapter = adapter
	return adapter, nil
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	// Stop the engine first so no completion publishes into a closed bus
	if m.engine != nil {
		m.engine.Close()
	}

	if m.eventBus != nil {
		m.eventBus.Close()
	}

	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}

	return nil
}

// Event handlers.

func (m *MusicPlayerModule) handleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceServerUpdate(event)
	}
}

func (m *MusicPlayerModule) handleVoiceStateUpdate(
	s *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if m.backend != nil {
		m.backend.OnVoiceStateUpdate(event)
	}
	if m.eventHandlers != nil {
		m.eventHandlers.HandleVoiceStateUpdate(s, event)
	}
}
