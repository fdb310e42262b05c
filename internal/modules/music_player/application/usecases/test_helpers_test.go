package usecases

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

const testGuildID = snowflake.ID(100)

func mockTrack(title string) domain.Track {
	return domain.NewTrack("https://audio.example/"+title, title)
}

type mockRepository struct {
	mu      sync.Mutex
	maxSize int
	states  map[snowflake.ID]*domain.GuildPlaybackState
}

func newMockRepository(maxSize int) *mockRepository {
	return &mockRepository{
		maxSize: maxSize,
		states:  make(map[snowflake.ID]*domain.GuildPlaybackState),
	}
}

func (m *mockRepository) WithState(
	guildID snowflake.ID,
	fn func(state *domain.GuildPlaybackState) error,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[guildID]
	if !ok {
		state = domain.NewGuildPlaybackState(guildID, m.maxSize)
		m.states[guildID] = state
	}
	return fn(state)
}

// state returns the guild state for inspection, creating it if needed.
func (m *mockRepository) state(guildID snowflake.ID) *domain.GuildPlaybackState {
	var result *domain.GuildPlaybackState
	_ = m.WithState(guildID, func(state *domain.GuildPlaybackState) error {
		result = state
		return nil
	})
	return result
}

func (m *mockRepository) fill(guildID snowflake.ID, titles ...string) {
	state := m.state(guildID)
	for _, title := range titles {
		_ = state.Enqueue(mockTrack(title))
	}
}

type mockAudioOutput struct {
	connected     bool
	playing       bool
	paused        bool
	stopErr       error
	pauseErr      error
	resumeErr     error
	disconnectErr error

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
	return m.stopErr
}

func (m *mockAudioOutput) Pause(_ context.Context, _ snowflake.ID) error {
	m.pauseCalls++
	return m.pauseErr
}

func (m *mockAudioOutput) Resume(_ context.Context, _ snowflake.ID) error {
	m.resumeCalls++
	return m.resumeErr
}

func (m *mockAudioOutput) Disconnect(_ context.Context, _ snowflake.ID) error {
	m.disconnectCalls++
	return m.disconnectErr
}

func (m *mockAudioOutput) IsConnected(_ snowflake.ID) bool { return m.connected }
func (m *mockAudioOutput) IsPlaying(_ snowflake.ID) bool   { return m.playing }
func (m *mockAudioOutput) IsPaused(_ snowflake.ID) bool    { return m.paused }

type mockVoiceConnection struct {
	joinErr error
	joined  []snowflake.ID
}

func (m *mockVoiceConnection) JoinChannel(_ context.Context, _, channelID snowflake.ID) error {
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joined = append(m.joined, channelID)
	return nil
}

type mockVoiceStateProvider struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(
	_, userID snowflake.ID,
) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

type extractCall struct {
	query string
	opts  ports.ExtractOptions
}

type mockTrackResolver struct {
	entries map[string]*ports.ResolverEntry
	errs    map[string]error
	calls   []extractCall
}

func newMockTrackResolver() *mockTrackResolver {
	return &mockTrackResolver{
		entries: make(map[string]*ports.ResolverEntry),
		errs:    make(map[string]error),
	}
}

func (m *mockTrackResolver) Extract(
	_ context.Context,
	query string,
	opts ports.ExtractOptions,
) (*ports.ResolverEntry, error) {
	m.calls = append(m.calls, extractCall{query: query, opts: opts})
	if err := m.errs[query]; err != nil {
		return nil, err
	}
	return m.entries[query], nil
}

type mockStarter struct {
	kicks []snowflake.ID
}

func (m *mockStarter) Kick(guildID snowflake.ID) {
	m.kicks = append(m.kicks, guildID)
}

type recordingProgress struct {
	messages []string
}

func (r *recordingProgress) Report(message string) {
	r.messages = append(r.messages, message)
}

func playable(title string) *ports.ResolverEntry {
	return &ports.ResolverEntry{
		ID:    title,
		Title: title,
		URL:   "https://audio.example/" + title,
	}
}

func unplayable(title string) *ports.ResolverEntry {
	return &ports.ResolverEntry{
		ID:      title,
		Title:   title,
		Formats: []ports.Format{{URL: "https://video.example/" + title, ACodec: "none"}},
	}
}
