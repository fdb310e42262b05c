package infrastructure

import (
	"errors"
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

func TestMemoryRepository_WithState_CreatesOnFirstAccess(t *testing.T) {
	repo := NewMemoryRepository(10)
	guildID := snowflake.ID(123)

	var first *domain.GuildPlaybackState
	err := repo.WithState(guildID, func(state *domain.GuildPlaybackState) error {
		first = state
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == nil {
		t.Fatal("expected state to be created")
	}
	if first.GuildID() != guildID {
		t.Errorf("expected guild %d, got %d", guildID, first.GuildID())
	}
	if first.MaxSize() != 10 {
		t.Errorf("expected max size 10, got %d", first.MaxSize())
	}
	if first.LoopMode() != domain.LoopModeNone {
		t.Errorf("expected loop mode none, got %s", first.LoopMode())
	}

	// Same guild should return the same instance
	_ = repo.WithState(guildID, func(state *domain.GuildPlaybackState) error {
		if state != first {
			t.Error("expected same state instance")
		}
		return nil
	})

	// Different guild gets its own state
	_ = repo.WithState(snowflake.ID(456), func(state *domain.GuildPlaybackState) error {
		if state == first {
			t.Error("expected distinct state for different guild")
		}
		return nil
	})

	if repo.Count() != 2 {
		t.Errorf("expected count 2, got %d", repo.Count())
	}
}

func TestMemoryRepository_WithState_ReturnsCallbackError(t *testing.T) {
	repo := NewMemoryRepository(10)
	want := errors.New("boom")

	err := repo.WithState(snowflake.ID(1), func(*domain.GuildPlaybackState) error {
		return want
	})

	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestMemoryRepository_ConcurrentEnqueue(t *testing.T) {
	repo := NewMemoryRepository(1000)
	guildID := snowflake.ID(1)
	var wg sync.WaitGroup

	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.WithState(guildID, func(state *domain.GuildPlaybackState) error {
				return state.Enqueue(domain.NewTrack("https://audio.example/t", "t"))
			})
		}()
	}

	wg.Wait()

	_ = repo.WithState(guildID, func(state *domain.GuildPlaybackState) error {
		if state.Len() != 200 {
			t.Errorf("expected 200 tracks, got %d", state.Len())
		}
		return nil
	})
}

func TestMemoryRepository_ConcurrentAccess(t *testing.T) {
	repo := NewMemoryRepository(10)
	var wg sync.WaitGroup

	// Concurrent first access for different guilds
	for i := range 100 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = repo.WithState(snowflake.ID(id), func(state *domain.GuildPlaybackState) error {
				state.SetLoopMode(domain.LoopModeAll)
				return nil
			})
		}(i)
	}

	wg.Wait()

	if repo.Count() != 100 {
		t.Errorf("expected 100 states, got %d", repo.Count())
	}
}
