package usecases

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebox/internal/modules/music_player/domain"
)

type playFixture struct {
	repo     *mockRepository
	resolver *mockTrackResolver
	starter  *mockStarter
	progress *recordingProgress
	service  *PlayService
}

func newPlayFixture(maxSize int) *playFixture {
	f := &playFixture{
		repo:     newMockRepository(maxSize),
		resolver: newMockTrackResolver(),
		starter:  &mockStarter{},
		progress: &recordingProgress{},
	}
	f.service = NewPlayService(f.repo, NewTrackLoaderService(f.resolver), f.starter, time.Minute)
	return f
}

func (f *playFixture) play(platform domain.Platform, query string) (*PlayOutput, error) {
	return f.service.Play(context.Background(), PlayInput{
		GuildID:               testGuildID,
		NotificationChannelID: snowflake.ID(7),
		Platform:              platform,
		Query:                 query,
		Progress:              f.progress,
	})
}

func (f *playFixture) expectMessages(t *testing.T, want ...string) {
	t.Helper()
	if !slices.Equal(f.progress.messages, want) {
		t.Errorf("unexpected progress messages\n got: %q\nwant: %q", f.progress.messages, want)
	}
}

func TestPlayService_Play_QueueFull(t *testing.T) {
	f := newPlayFixture(2)
	f.repo.fill(testGuildID, "a", "b")

	_, err := f.play(domain.PlatformYouTube, "song")

	if !errors.Is(err, ErrQueueLimitReached) {
		t.Fatalf("expected ErrQueueLimitReached, got %v", err)
	}
	if len(f.resolver.calls) != 0 {
		t.Error("expected no resolver calls with a full queue")
	}
	if len(f.starter.kicks) != 0 {
		t.Error("expected playback not to be kicked")
	}
}

func TestPlayService_Play_Search(t *testing.T) {
	f := newPlayFixture(100)
	f.resolver.entries["scsearch10:song"] = &ports.ResolverEntry{
		HasEntries: true,
		Entries:    []*ports.ResolverEntry{{Title: "Song", URL: "https://sc.example/song"}},
	}
	f.resolver.entries["https://sc.example/song"] = playable("Song")

	output, err := f.play(domain.PlatformSoundCloud, "song")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Added != 1 {
		t.Errorf("expected 1 track added, got %d", output.Added)
	}
	f.expectMessages(t,
		"🔍 Searching on **soundcloud** for: `song`",
		"✅ Found best match: **Song**",
		"➕ Added **Song** to the queue!",
	)

	state := f.repo.state(testGuildID)
	if state.DefaultPlatform() != domain.PlatformSoundCloud {
		t.Errorf("expected default platform soundcloud, got %s", state.DefaultPlatform())
	}
	if state.NotificationChannelID() != snowflake.ID(7) {
		t.Errorf("expected notification channel 7, got %d", state.NotificationChannelID())
	}
	if !slices.Equal(f.starter.kicks, []snowflake.ID{testGuildID}) {
		t.Errorf("expected one kick, got %v", f.starter.kicks)
	}
}

func TestPlayService_Play_SearchNoResults(t *testing.T) {
	f := newPlayFixture(100)

	output, err := f.play(domain.PlatformYouTube, "nothing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Added != 0 {
		t.Errorf("expected nothing added, got %d", output.Added)
	}
	f.expectMessages(t,
		"🔍 Searching on **youtube** for: `nothing`",
		"❌ No results found!",
	)
	if len(f.starter.kicks) != 1 {
		t.Errorf("expected playback to be kicked anyway, got %d kicks", len(f.starter.kicks))
	}
}

func TestPlayService_Play_Playlist(t *testing.T) {
	const url = "https://x.com/playlist?list=PL1"
	f := newPlayFixture(100)
	f.repo.fill(testGuildID, "existing")
	f.resolver.entries[url] = &ports.ResolverEntry{
		Title:         "Mix",
		HasEntries:    true,
		PlaylistCount: 4,
		Entries:       []*ports.ResolverEntry{playable("a"), nil, unplayable("b"), playable("c")},
	}

	output, err := f.play(domain.PlatformYouTube, url)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Added != 2 {
		t.Errorf("expected 2 tracks added, got %d", output.Added)
	}
	if f.resolver.calls[0].opts.PlaylistEnd != 99 {
		t.Errorf("expected playlist limited to remaining 99, got %d", f.resolver.calls[0].opts.PlaylistEnd)
	}
	f.expectMessages(t,
		"🎵 Detected playlist URL - limiting to first 99 songs to fit queue limit.",
		"🔍 Processing URL: `"+url+"`",
		"📋 Found playlist: **Mix** (4 tracks)",
		"⚠️ 2 video(s) in the playlist were unavailable or restricted and were skipped.",
		"➕ Added 2 track(s) to queue!",
	)
	if got := f.repo.state(testGuildID).Len(); got != 3 {
		t.Errorf("expected queue length 3, got %d", got)
	}
}

func TestPlayService_Play_PlaylistHitsLimit(t *testing.T) {
	const url = "https://x.com/watch?v=1&list=PL1"
	f := newPlayFixture(3)
	f.repo.fill(testGuildID, "existing")
	f.resolver.entries[url] = &ports.ResolverEntry{
		Title:         "Mix",
		HasEntries:    true,
		PlaylistCount: 10,
		Entries:       []*ports.ResolverEntry{playable("a"), playable("b"), playable("c")},
	}

	output, err := f.play(domain.PlatformYouTube, url)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Added != 2 {
		t.Errorf("expected 2 tracks added, got %d", output.Added)
	}
	f.expectMessages(t,
		"🎵 Detected playlist URL - limiting to first 2 songs to fit queue limit.",
		"🔍 Processing URL: `"+url+"`",
		"📋 Found playlist: **Mix** (10 tracks, limited to first 3)",
		"⚠️ Queue limit of 3 songs reached. Added 2 songs.",
		"➕ Added 2 track(s) to queue!",
	)
}

func TestPlayService_Play_URLResolverError(t *testing.T) {
	const url = "https://x.com/watch?v=1"
	f := newPlayFixture(100)
	f.resolver.errs[url] = errors.New("boom")

	if _, err := f.play(domain.PlatformYouTube, url); err != nil {
		t.Fatalf("expected resolver error to be absorbed, got %v", err)
	}

	f.expectMessages(t,
		"🔍 Processing URL: `"+url+"`",
		"❌ Failed to extract any information from this URL.",
	)
	if got := f.repo.state(testGuildID).ErrorCount(); got != 1 {
		t.Errorf("expected error count 1, got %d", got)
	}
}

func TestPlayService_Play_NoPlayableTracks(t *testing.T) {
	const url = "https://x.com/watch?v=1"
	f := newPlayFixture(100)
	f.resolver.entries[url] = unplayable("a")

	if _, err := f.play(domain.PlatformYouTube, url); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.expectMessages(t,
		"🔍 Processing URL: `"+url+"`",
		"⚠️ 1 video(s) were unavailable or restricted and were skipped.",
		"❌ No playable tracks found! The videos might be unavailable, age-restricted, or region-locked.",
	)
}

func TestPlayService_Play_ResetsErrorCount(t *testing.T) {
	f := newPlayFixture(100)
	f.repo.state(testGuildID).AddErrorCount(5)
	f.resolver.entries["https://x.com/watch?v=1"] = playable("a")

	if _, err := f.play(domain.PlatformYouTube, "https://x.com/watch?v=1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.repo.state(testGuildID).ErrorCount(); got != 0 {
		t.Errorf("expected error count reset, got %d", got)
	}
}

func TestPlayService_Play_ConcurrentEnqueue(t *testing.T) {
	const callers = 50
	f := newPlayFixture(100)
	for i := range callers {
		f.resolver.entries[fmt.Sprintf("https://x.com/watch?v=%d", i)] = playable(fmt.Sprint(i))
	}
	service := NewPlayService(f.repo, NewTrackLoaderService(&lockedResolver{inner: f.resolver}), &lockedStarter{}, 0)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := service.Play(context.Background(), PlayInput{
				GuildID:  testGuildID,
				Platform: domain.PlatformYouTube,
				Query:    fmt.Sprintf("https://x.com/watch?v=%d", n),
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := f.repo.state(testGuildID).Len(); got != callers {
		t.Errorf("expected %d tracks, got %d", callers, got)
	}
}

type lockedResolver struct {
	mu    sync.Mutex
	inner *mockTrackResolver
}

func (r *lockedResolver) Extract(
	ctx context.Context,
	query string,
	opts ports.ExtractOptions,
) (*ports.ResolverEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inner.Extract(ctx, query, opts)
}

type lockedStarter struct {
	mu    sync.Mutex
	kicks int
}

func (s *lockedStarter) Kick(snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kicks++
}
