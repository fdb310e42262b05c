package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

type guildSlot struct {
	mu    sync.Mutex
	state *domain.GuildPlaybackState
}

// MemoryRepository is an in-memory implementation of GuildStateRepository.
// Each guild has its own lock so work in one guild never waits on another.
type MemoryRepository struct {
	maxSize int

	mu    sync.RWMutex
	slots map[snowflake.ID]*guildSlot
}

// NewMemoryRepository creates a new MemoryRepository whose guild queues hold
// at most maxSize tracks.
func NewMemoryRepository(maxSize int) *MemoryRepository {
	return &MemoryRepository{
		maxSize: maxSize,
		slots:   make(map[snowflake.ID]*guildSlot),
	}
}

// WithState runs fn while holding the guild's lock.
func (r *MemoryRepository) WithState(
	guildID snowflake.ID,
	fn func(state *domain.GuildPlaybackState) error,
) error {
	slot := r.slot(guildID)

	slot.mu.Lock()
	defer slot.mu.Unlock()

	return fn(slot.state)
}

func (r *MemoryRepository) slot(guildID snowflake.ID) *guildSlot {
	r.mu.RLock()
	slot, ok := r.slots[guildID]
	r.mu.RUnlock()
	if ok {
		return slot
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have created it between the locks.
	if slot, ok := r.slots[guildID]; ok {
		return slot
	}
	slot = &guildSlot{state: domain.NewGuildPlaybackState(guildID, r.maxSize)}
	r.slots[guildID] = slot
	return slot
}

// Count returns the number of guild states (for testing/monitoring).
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.slots)
}

// Ensure MemoryRepository implements GuildStateRepository.
var _ domain.GuildStateRepository = (*MemoryRepository)(nil)
