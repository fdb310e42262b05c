package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

// pendingVoiceConnection tracks the state of a pending voice connection.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

// onEvent marks an event as received and signals ready if both events are present.
func (p *pendingVoiceConnection) onEvent(isVoiceState bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isVoiceState {
		p.hasVoiceState = true
	} else {
		p.hasVoiceServer = true
	}

	if p.hasVoiceState && p.hasVoiceServer {
		select {
		case <-p.ready:
			// Already closed
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer holds VoiceStateUpdate and VoiceServerUpdate data until
// both have arrived. Lavalink rejects a partial voice state, and Discord does
// not guarantee the order of the two events.
type voiceEventBuffer struct {
	mu sync.Mutex

	// From VoiceStateUpdate
	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	// From VoiceServerUpdate
	hasVoiceServer bool
	token          string
	endpoint       string
}

// setVoiceState stores voice state data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID

	return b.hasVoiceState && b.hasVoiceServer
}

// setVoiceServer stores voice server data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint

	return b.hasVoiceState && b.hasVoiceServer
}

// getData returns the buffered data and resets the buffer.
func (b *voiceEventBuffer) getData() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID = b.channelID
	sessionID = b.sessionID
	token = b.token
	endpoint = b.endpoint

	// Reset buffer
	b.hasVoiceState = false
	b.hasVoiceServer = false
	b.channelID = nil
	b.sessionID = ""
	b.token = ""
	b.endpoint = ""

	return
}

// lavalinkPlayback is the stream currently bound to a guild player.
type lavalinkPlayback struct {
	encoded string
	title   string
	done    ports.PlaybackDone
	paused  bool
	// err is set by exception and stuck events and reported on track end.
	err error
}

// LavalinkAdapter wraps DisGoLink to implement AudioOutput and VoiceConnection.
type LavalinkAdapter struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer

	mu        sync.Mutex
	connected map[snowflake.ID]bool
	playbacks map[snowflake.ID]*lavalinkPlayback
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

// NewLavalinkAdapter creates a new LavalinkAdapter and connects to the node.
func NewLavalinkAdapter(
	ctx context.Context,
	session *discordgo.Session,
	config LavalinkConfig,
) (*LavalinkAdapter, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	adapter := &LavalinkAdapter{
		session:      session,
		botID:        botID,
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
		connected:    make(map[snowflake.ID]bool),
		playbacks:    make(map[snowflake.ID]*lavalinkPlayback),
	}

	link := disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)
	adapter.link = link

	node, err := link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// Close closes the Lavalink client.
func (c *LavalinkAdapter) Close() {
	c.link.Close()
}

// JoinChannel connects to a voice channel, moving if already connected elsewhere.
// It waits for both VoiceStateUpdate and VoiceServerUpdate events before returning.
func (c *LavalinkAdapter) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	pending := &pendingVoiceConnection{
		ready: make(chan struct{}),
	}

	c.pendingMu.Lock()
	c.pending[guildID] = pending
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, guildID)
		c.pendingMu.Unlock()
	}()

	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-pending.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return fmt.Errorf("timeout waiting for voice connection")
	}
}

// Disconnect destroys the guild player and leaves the voice channel.
func (c *LavalinkAdapter) Disconnect(ctx context.Context, guildID snowflake.ID) error {
	c.markDisconnected(guildID)

	if player := c.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// Play loads the stream URL on the best node and starts it on the guild player.
// done is called once when the track ends.
func (c *LavalinkAdapter) Play(
	ctx context.Context,
	guildID snowflake.ID,
	source ports.StreamSource,
	done ports.PlaybackDone,
) error {
	if !c.IsConnected(guildID) {
		return ErrVoiceNotConnected
	}

	track, err := c.loadTrack(ctx, source.URL)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.playbacks[guildID] = &lavalinkPlayback{
		encoded: track.Encoded,
		title:   source.Title,
		done:    done,
	}
	c.mu.Unlock()

	// Use WithEncodedTrack to avoid userData:null issue
	if err := c.link.Player(guildID).Update(ctx, lavalink.WithEncodedTrack(track.Encoded)); err != nil {
		c.mu.Lock()
		delete(c.playbacks, guildID)
		c.mu.Unlock()
		return fmt.Errorf("failed to play track: %w", err)
	}

	return nil
}

func (c *LavalinkAdapter) loadTrack(ctx context.Context, url string) (lavalink.Track, error) {
	node := c.link.BestNode()
	if node == nil {
		return lavalink.Track{}, ErrNoNode
	}

	result, err := node.LoadTracks(ctx, url)
	if err != nil {
		return lavalink.Track{}, fmt.Errorf("failed to load tracks: %w", err)
	}

	return firstTrack(result)
}

// firstTrack picks the track to play out of a load result.
func firstTrack(result *lavalink.LoadResult) (lavalink.Track, error) {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return data, nil
	case lavalink.Playlist:
		if len(data.Tracks) > 0 {
			return data.Tracks[0], nil
		}
	case lavalink.Search:
		if len(data) > 0 {
			return data[0], nil
		}
	case lavalink.Exception:
		return lavalink.Track{}, fmt.Errorf("failed to load tracks: %s", data.Message)
	}
	return lavalink.Track{}, ErrNoTrack
}

// Stop stops the current track. Its done callback reports Stopped.
func (c *LavalinkAdapter) Stop(ctx context.Context, guildID snowflake.ID) error {
	if err := c.link.Player(guildID).Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

// Pause pauses the current playback.
func (c *LavalinkAdapter) Pause(ctx context.Context, guildID snowflake.ID) error {
	if err := c.link.Player(guildID).Update(ctx, lavalink.WithPaused(true)); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}
	c.setPaused(guildID, true)
	return nil
}

// Resume resumes the current playback.
func (c *LavalinkAdapter) Resume(ctx context.Context, guildID snowflake.ID) error {
	if err := c.link.Player(guildID).Update(ctx, lavalink.WithPaused(false)); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	c.setPaused(guildID, false)
	return nil
}

func (c *LavalinkAdapter) setPaused(guildID snowflake.ID, paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pb := c.playbacks[guildID]; pb != nil {
		pb.paused = paused
	}
}

// IsConnected reports whether the bot is in a voice channel of the guild.
func (c *LavalinkAdapter) IsConnected(guildID snowflake.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected[guildID]
}

// IsPlaying reports whether a track is bound and not paused.
func (c *LavalinkAdapter) IsPlaying(guildID snowflake.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	pb := c.playbacks[guildID]
	return pb != nil && !pb.paused
}

// IsPaused reports whether the bound track is paused.
func (c *LavalinkAdapter) IsPaused(guildID snowflake.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	pb := c.playbacks[guildID]
	return pb != nil && pb.paused
}

// markDisconnected forgets the guild connection and ends any bound track as stopped.
func (c *LavalinkAdapter) markDisconnected(guildID snowflake.ID) {
	c.mu.Lock()
	delete(c.connected, guildID)
	pb := c.playbacks[guildID]
	delete(c.playbacks, guildID)
	c.mu.Unlock()

	if pb != nil {
		pb.done(ports.PlaybackResult{Stopped: true})
	}
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	buffer := c.getOrCreateVoiceBuffer(guildID)
	if buffer.setVoiceServer(event.Token, event.Endpoint) {
		c.forwardBufferedVoiceEvents(guildID, buffer)
	}

	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(false)
	}
}

// OnVoiceStateUpdate handles Discord voice state updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	sessionID := event.SessionID

	// Empty channel means the bot left or was removed
	if event.ChannelID == "" {
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, sessionID)
		c.clearVoiceBuffer(guildID)
		c.markDisconnected(guildID)
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		slog.Error("failed to parse channel ID in voice state update", "error", err)
		return
	}

	c.mu.Lock()
	c.connected[guildID] = true
	c.mu.Unlock()

	buffer := c.getOrCreateVoiceBuffer(guildID)
	if buffer.setVoiceState(&channelID, sessionID) {
		c.forwardBufferedVoiceEvents(guildID, buffer)
	}

	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(true)
	}
}

func (c *LavalinkAdapter) getOrCreateVoiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()

	buffer, exists := c.voiceBuffers[guildID]
	if !exists {
		buffer = &voiceEventBuffer{}
		c.voiceBuffers[guildID] = buffer
	}
	return buffer
}

func (c *LavalinkAdapter) clearVoiceBuffer(guildID snowflake.ID) {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()
	delete(c.voiceBuffers, guildID)
}

func (c *LavalinkAdapter) forwardBufferedVoiceEvents(
	guildID snowflake.ID,
	buffer *voiceEventBuffer,
) {
	channelID, sessionID, token, endpoint := buffer.getData()

	slog.Debug("forwarding buffered voice events to Lavalink",
		"guild", guildID,
		"channel", channelID,
		"hasSessionID", sessionID != "",
	)

	c.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)
}

func (c *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "title", event.Track.Info.Title)
}

func (c *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	guildID := player.GuildID()

	c.mu.Lock()
	pb := c.playbacks[guildID]
	if pb == nil || pb.encoded != event.Track.Encoded {
		c.mu.Unlock()
		slog.Debug("ignored end of unbound track", "guild", guildID, "reason", event.Reason)
		return
	}
	delete(c.playbacks, guildID)
	c.mu.Unlock()

	slog.Debug("track ended", "guild", guildID, "title", pb.title, "reason", event.Reason)

	pb.done(endResult(event.Reason, pb.err))
}

// endResult maps a Lavalink end reason to a playback result.
// err is the failure recorded by an earlier exception or stuck event.
func endResult(reason lavalink.TrackEndReason, err error) ports.PlaybackResult {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return ports.PlaybackResult{}
	case lavalink.TrackEndReasonLoadFailed:
		if err == nil {
			err = errors.New("track failed to load")
		}
		return ports.PlaybackResult{Err: err}
	default:
		if err != nil {
			return ports.PlaybackResult{Err: err}
		}
		return ports.PlaybackResult{Stopped: true}
	}
}

func (c *LavalinkAdapter) recordFailure(guildID snowflake.ID, encoded string, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	pb := c.playbacks[guildID]
	if pb == nil || pb.encoded != encoded {
		return false
	}
	pb.err = err
	return true
}

func (c *LavalinkAdapter) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)
	c.recordFailure(player.GuildID(), event.Track.Encoded, errors.New(event.Exception.Message))
}

func (c *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
	if !c.recordFailure(player.GuildID(), event.Track.Encoded, ErrTrackStuck) {
		return
	}

	// The node keeps a stuck track bound; end it so the failure is reported.
	ctx, cancel := context.WithTimeout(context.Background(), voiceConnectionTimeout)
	defer cancel()
	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		slog.Warn("failed to stop stuck track", "guild", player.GuildID(), "error", err)
	}
}

// Ensure LavalinkAdapter implements port interfaces.
var (
	_ ports.AudioOutput     = (*LavalinkAdapter)(nil)
	_ ports.VoiceConnection = (*LavalinkAdapter)(nil)
)
