package infrastructure

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default buffer size for the event channel.
const DefaultEventBufferSize = 100

// Compile-time checks that ChannelEventBus implements ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

// busEvent carries exactly one of its fields.
type busEvent struct {
	playbackStarted *domain.PlaybackStartedEvent
	playbackFailed  *domain.PlaybackFailedEvent
}

// ChannelEventBus provides a channel-based event bus for async event handling.
// All events share one channel and one dispatcher, so a failure notice is
// always delivered before the start notice of the track that replaced it.
type ChannelEventBus struct {
	events chan busEvent

	playbackStartedHandlers []func(context.Context, domain.PlaybackStartedEvent)
	playbackFailedHandlers  []func(context.Context, domain.PlaybackFailedEvent)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &ChannelEventBus{
		events: make(chan busEvent, bufferSize),
		ctx:    ctx,
		cancel: cancel,
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

func (b *ChannelEventBus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.events:
			if !ok {
				return
			}
			b.deliver(event)
		}
	}
}

func (b *ChannelEventBus) deliver(event busEvent) {
	b.mu.RLock()
	startedHandlers := b.playbackStartedHandlers
	failedHandlers := b.playbackFailedHandlers
	b.mu.RUnlock()

	switch {
	case event.playbackStarted != nil:
		for _, handler := range startedHandlers {
			handler(b.ctx, *event.playbackStarted)
		}
	case event.playbackFailed != nil:
		for _, handler := range failedHandlers {
			handler(b.ctx, *event.playbackFailed)
		}
	}
}

// publish is non-blocking: if the buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) publish(event busEvent, eventType string, guildID any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", eventType)
		return
	}

	select {
	case b.events <- event:
		slog.Debug("published event", "type", eventType, "guild", guildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", eventType)
	}
}

// --- EventPublisher interface ---

// PublishPlaybackStarted publishes a PlaybackStartedEvent.
func (b *ChannelEventBus) PublishPlaybackStarted(event domain.PlaybackStartedEvent) {
	b.publish(busEvent{playbackStarted: &event}, "PlaybackStarted", event.GuildID)
}

// PublishPlaybackFailed publishes a PlaybackFailedEvent.
func (b *ChannelEventBus) PublishPlaybackFailed(event domain.PlaybackFailedEvent) {
	b.publish(busEvent{playbackFailed: &event}, "PlaybackFailed", event.GuildID)
}

// --- EventSubscriber interface ---

// OnPlaybackStarted registers a handler for PlaybackStartedEvent.
func (b *ChannelEventBus) OnPlaybackStarted(
	handler func(context.Context, domain.PlaybackStartedEvent),
) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playbackStartedHandlers = append(b.playbackStartedHandlers, handler)
}

// OnPlaybackFailed registers a handler for PlaybackFailedEvent.
func (b *ChannelEventBus) OnPlaybackFailed(
	handler func(context.Context, domain.PlaybackFailedEvent),
) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playbackFailedHandlers = append(b.playbackFailedHandlers, handler)
}

// Close closes the event channel and stops the dispatcher.
// After calling Close, publishing will no longer send events.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	close(b.events)
	b.wg.Wait()

	slog.Debug("channel event bus closed")
}
