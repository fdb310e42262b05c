package discord

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/bot"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
	"github.com/sglre6355/jukebox/internal/modules/music_player/infrastructure"
)

const (
	testGuildID   = snowflake.ID(100)
	testUserID    = snowflake.ID(5)
	testChannelID = snowflake.ID(7)
	testVoiceID   = snowflake.ID(9)
)

type mockAudioOutput struct {
	connected bool
	playing   bool
	paused    bool

	stopCalls       int
	pauseCalls      int
	resumeCalls     int
	disconnectCalls int
}

func (m *mockAudioOutput) Play(
	_ context.Context,
	_ snowflake.ID,
	_ ports.StreamSource,
	_ ports.PlaybackDone,
) error {
	m.playing = true
	return nil
}

func (m *mockAudioOutput) Stop(_ context.Context, _ snowflake.ID) error {
	m.stopCalls++
	m.playing = false
	m.paused = false
	return nil
}

func (m *mockAudioOutput) Pause(_ context.Context, _ snowflake.ID) error {
	m.pauseCalls++
	return nil
}

func (m *mockAudioOutput) Resume(_ context.Context, _ snowflake.ID) error {
	m.resumeCalls++
	return nil
}

func (m *mockAudioOutput) Disconnect(_ context.Context, _ snowflake.ID) error {
	m.disconnectCalls++
	m.connected = false
	return nil
}

func (m *mockAudioOutput) IsConnected(_ snowflake.ID) bool { return m.connected }
func (m *mockAudioOutput) IsPlaying(_ snowflake.ID) bool   { return m.playing }
func (m *mockAudioOutput) IsPaused(_ snowflake.ID) bool    { return m.paused }

type mockVoiceConnection struct {
	joined []snowflake.ID
}

func (m *mockVoiceConnection) JoinChannel(_ context.Context, _, channelID snowflake.ID) error {
	m.joined = append(m.joined, channelID)
	return nil
}

type mockVoiceStateProvider struct {
	channels map[snowflake.ID]snowflake.ID
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(_, userID snowflake.ID) (snowflake.ID, error) {
	return m.channels[userID], nil
}

type mockTrackResolver struct {
	entries map[string]*ports.ResolverEntry
}

func (m *mockTrackResolver) Extract(
	_ context.Context,
	query string,
	_ ports.ExtractOptions,
) (*ports.ResolverEntry, error) {
	return m.entries[query], nil
}

type mockStarter struct {
	kicks []snowflake.ID
}

func (m *mockStarter) Kick(guildID snowflake.ID) {
	m.kicks = append(m.kicks, guildID)
}

type handlerFixture struct {
	repo       *infrastructure.MemoryRepository
	output     *mockAudioOutput
	voice      *mockVoiceConnection
	voiceState *mockVoiceStateProvider
	resolver   *mockTrackResolver
	starter    *mockStarter
	handlers   *CommandHandlers
	events     *EventHandlers
}

func newHandlerFixture(maxSize int) *handlerFixture {
	f := &handlerFixture{
		repo:       infrastructure.NewMemoryRepository(maxSize),
		output:     &mockAudioOutput{},
		voice:      &mockVoiceConnection{},
		voiceState: &mockVoiceStateProvider{channels: make(map[snowflake.ID]snowflake.ID)},
		resolver:   &mockTrackResolver{entries: make(map[string]*ports.ResolverEntry)},
		starter:    &mockStarter{},
	}

	voiceChannel := usecases.NewVoiceChannelService(f.repo, f.voice, f.voiceState, f.output)
	f.handlers = NewCommandHandlers(
		voiceChannel,
		usecases.NewPlaybackService(f.repo, f.output),
		usecases.NewQueueService(f.repo),
		usecases.NewPlayService(f.repo, usecases.NewTrackLoaderService(f.resolver), f.starter, 0),
	)
	f.events = NewEventHandlers(snowflake.ID(1), voiceChannel)
	return f
}

func (f *handlerFixture) fill(titles ...string) {
	_ = f.repo.WithState(testGuildID, func(state *domain.GuildPlaybackState) error {
		for _, title := range titles {
			_ = state.Enqueue(domain.NewTrack("https://audio.example/"+title, title))
		}
		return nil
	})
}

func (f *handlerFixture) queueLen() int {
	var n int
	_ = f.repo.WithState(testGuildID, func(state *domain.GuildPlaybackState) error {
		n = state.Len()
		return nil
	})
	return n
}

func (f *handlerFixture) loopMode() usecases.LoopMode {
	var mode usecases.LoopMode
	_ = f.repo.WithState(testGuildID, func(state *domain.GuildPlaybackState) error {
		mode = state.LoopMode()
		return nil
	})
	return mode
}

func newInteraction(
	name string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   testGuildID.String(),
			ChannelID: testChannelID.String(),
			Member:    &discordgo.Member{User: &discordgo.User{ID: testUserID.String()}},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func expectEmbed(t *testing.T, r *bot.MockResponder, wantErr bool, wantDescription string) {
	t.Helper()

	if r.LastResponse == nil || r.LastResponse.Data == nil || len(r.LastResponse.Data.Embeds) == 0 {
		t.Fatal("expected an embed response")
	}
	embed := r.LastResponse.Data.Embeds[0]
	if embed.Description != wantDescription {
		t.Errorf("expected description %q, got %q", wantDescription, embed.Description)
	}
	if isErr := embed.Color == colorError; isErr != wantErr {
		t.Errorf("expected error embed %v, got color %#x", wantErr, embed.Color)
	}
}

func followUpContents(r *bot.MockResponder) []string {
	contents := make([]string, 0, len(r.FollowUps))
	for _, params := range r.FollowUps {
		contents = append(contents, params.Content)
	}
	return contents
}
