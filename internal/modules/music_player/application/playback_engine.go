package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

// messageKind distinguishes the inputs of a guild control loop.
type messageKind int

const (
	// messageStart asks the loop to start playback if the guild is idle.
	messageStart messageKind = iota
	// messageCompletion reports the end of a stream started by the loop.
	messageCompletion
)

type engineMessage struct {
	kind   messageKind
	token  string
	result ports.PlaybackResult
}

// mailbox is an unbounded FIFO of engine messages for one guild.
// Senders never block, so Audio Output callbacks can post from any goroutine.
type mailbox struct {
	mu      sync.Mutex
	pending []engineMessage
	signal  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

func (m *mailbox) post(msg engineMessage) {
	m.mu.Lock()
	m.pending = append(m.pending, msg)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *mailbox) drain() []engineMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := m.pending
	m.pending = nil
	return msgs
}

// PlaybackEngine runs one control loop per guild. Each loop owns every
// decision about what Audio Output plays next for its guild, so start
// requests and stream completions for one guild are handled strictly in order.
type PlaybackEngine struct {
	states    domain.GuildStateRepository
	output    ports.AudioOutput
	publisher ports.EventPublisher
	newToken  func() string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	loops   map[snowflake.ID]*mailbox
	stopped bool
}

// NewPlaybackEngine creates a new PlaybackEngine.
func NewPlaybackEngine(
	states domain.GuildStateRepository,
	output ports.AudioOutput,
	publisher ports.EventPublisher,
) *PlaybackEngine {
	ctx, cancel := context.WithCancel(context.Background())

	return &PlaybackEngine{
		states:    states,
		output:    output,
		publisher: publisher,
		newToken:  uuid.NewString,
		ctx:       ctx,
		cancel:    cancel,
		loops:     make(map[snowflake.ID]*mailbox),
	}
}

// Kick asks the guild's control loop to start playback if nothing is playing.
// It returns immediately.
func (e *PlaybackEngine) Kick(guildID snowflake.ID) {
	e.post(guildID, engineMessage{kind: messageStart})
}

// Close stops all control loops and waits for them to exit.
// Completions arriving afterwards are dropped.
func (e *PlaybackEngine) Close() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()

	slog.Debug("playback engine closed")
}

func (e *PlaybackEngine) post(guildID snowflake.ID, msg engineMessage) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		slog.Debug("dropped message for closed playback engine", "guild", guildID)
		return
	}

	box, ok := e.loops[guildID]
	if !ok {
		box = newMailbox()
		e.loops[guildID] = box
		e.wg.Add(1)
		go e.run(guildID, box)
	}
	e.mu.Unlock()

	box.post(msg)
}

// run is the control loop of one guild.
func (e *PlaybackEngine) run(guildID snowflake.ID, box *mailbox) {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-box.signal:
		}

		for _, msg := range box.drain() {
			if e.ctx.Err() != nil {
				return
			}
			switch msg.kind {
			case messageStart:
				e.handleStart(guildID)
			case messageCompletion:
				e.handleCompletion(guildID, msg.token, msg.result)
			}
		}
	}
}

func (e *PlaybackEngine) handleStart(guildID snowflake.ID) {
	_ = e.states.WithState(guildID, func(state *domain.GuildPlaybackState) error {
		if state.IsPlaybackActive() {
			return nil
		}
		e.advance(state)
		return nil
	})
}

func (e *PlaybackEngine) handleCompletion(
	guildID snowflake.ID,
	token string,
	result ports.PlaybackResult,
) {
	_ = e.states.WithState(guildID, func(state *domain.GuildPlaybackState) error {
		if !e.output.IsConnected(guildID) {
			state.AbandonPlayback(token)
			slog.Debug("discarded completion for disconnected guild", "guild", guildID, "token", token)
			return nil
		}

		outcome := outcomeOf(result)
		track, ok := state.CompletePlayback(token, outcome)
		if !ok {
			slog.Debug("discarded stale completion", "guild", guildID, "token", token)
			return nil
		}

		slog.Debug("track ended",
			"guild", guildID,
			"title", track.Title,
			"outcome", outcome.String(),
			"loop_mode", state.LoopMode().String(),
		)

		if outcome == domain.PlaybackFailed {
			slog.Warn("track failed during playback",
				"guild", guildID,
				"title", track.Title,
				"error", result.Err,
			)
			e.publisher.PublishPlaybackFailed(domain.PlaybackFailedEvent{
				GuildID:               guildID,
				NotificationChannelID: state.NotificationChannelID(),
				Track:                 track,
				Stage:                 domain.FailureAtRuntime,
				Err:                   result.Err,
			})
		}

		e.advance(state)
		return nil
	})
}

// advance starts the head track, dropping every head that fails to start,
// or disconnects once the queue is empty. The caller holds the guild lock.
func (e *PlaybackEngine) advance(state *domain.GuildPlaybackState) {
	guildID := state.GuildID()

	for {
		if !e.output.IsConnected(guildID) {
			slog.Debug("voice connection unavailable, not advancing", "guild", guildID)
			return
		}

		track, ok := state.PeekHead()
		if !ok {
			slog.Debug("queue exhausted, disconnecting", "guild", guildID)
			if err := e.output.Disconnect(e.ctx, guildID); err != nil {
				slog.Warn("failed to disconnect from voice channel", "guild", guildID, "error", err)
			}
			return
		}

		token := e.newToken()
		err := e.output.Play(e.ctx, guildID, ports.StreamSource{
			URL:   track.AudioURL,
			Title: track.Title,
		}, e.completionFor(guildID, token))
		if err != nil {
			slog.Error("failed to start track",
				"guild", guildID,
				"title", track.Title,
				"error", err,
			)
			e.publisher.PublishPlaybackFailed(domain.PlaybackFailedEvent{
				GuildID:               guildID,
				NotificationChannelID: state.NotificationChannelID(),
				Track:                 track,
				Stage:                 domain.FailureAtStartup,
				Err:                   err,
			})
			state.PopHead()
			continue
		}

		state.BeginPlayback(token)
		slog.Debug("started track", "guild", guildID, "title", track.Title, "token", token)

		e.publisher.PublishPlaybackStarted(domain.PlaybackStartedEvent{
			GuildID:               guildID,
			NotificationChannelID: state.NotificationChannelID(),
			Track:                 track,
		})
		return
	}
}

func (e *PlaybackEngine) completionFor(guildID snowflake.ID, token string) ports.PlaybackDone {
	var once sync.Once
	return func(result ports.PlaybackResult) {
		once.Do(func() {
			e.post(guildID, engineMessage{
				kind:   messageCompletion,
				token:  token,
				result: result,
			})
		})
	}
}

func outcomeOf(result ports.PlaybackResult) domain.PlaybackOutcome {
	switch {
	case result.Err != nil:
		return domain.PlaybackFailed
	case result.Stopped:
		return domain.PlaybackSkipped
	default:
		return domain.PlaybackFinished
	}
}
