package infrastructure

import (
	"errors"
	"testing"

	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
)

func newTestLavalinkAdapter() *LavalinkAdapter {
	return &LavalinkAdapter{
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
		connected:    make(map[snowflake.ID]bool),
		playbacks:    make(map[snowflake.ID]*lavalinkPlayback),
	}
}

func TestEndResult(t *testing.T) {
	stuck := ErrTrackStuck
	tests := []struct {
		name        string
		reason      lavalink.TrackEndReason
		err         error
		wantErr     error
		wantAnyErr  bool
		wantStopped bool
	}{
		{name: "finished", reason: lavalink.TrackEndReasonFinished},
		{name: "load failed with exception", reason: lavalink.TrackEndReasonLoadFailed, err: stuck, wantErr: stuck},
		{name: "load failed without exception", reason: lavalink.TrackEndReasonLoadFailed, wantAnyErr: true},
		{name: "stopped", reason: lavalink.TrackEndReasonStopped, wantStopped: true},
		{name: "replaced", reason: lavalink.TrackEndReasonReplaced, wantStopped: true},
		{name: "cleanup", reason: lavalink.TrackEndReasonCleanup, wantStopped: true},
		{name: "stopped after stuck", reason: lavalink.TrackEndReasonStopped, err: stuck, wantErr: stuck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := endResult(tt.reason, tt.err)

			if result.Stopped != tt.wantStopped {
				t.Errorf("expected Stopped=%v, got %v", tt.wantStopped, result.Stopped)
			}
			switch {
			case tt.wantErr != nil:
				if !errors.Is(result.Err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, result.Err)
				}
			case tt.wantAnyErr:
				if result.Err == nil {
					t.Error("expected an error")
				}
			default:
				if result.Err != nil {
					t.Errorf("expected no error, got %v", result.Err)
				}
			}
		})
	}
}

func TestFirstTrack(t *testing.T) {
	single := lavalink.Track{Encoded: "single"}
	tests := []struct {
		name    string
		data    lavalink.LoadResultData
		want    string
		wantErr bool
	}{
		{name: "track", data: single, want: "single"},
		{name: "search", data: lavalink.Search{{Encoded: "s1"}, {Encoded: "s2"}}, want: "s1"},
		{name: "playlist", data: lavalink.Playlist{Tracks: []lavalink.Track{{Encoded: "p1"}}}, want: "p1"},
		{name: "empty search", data: lavalink.Search{}, wantErr: true},
		{name: "empty", data: lavalink.Empty{}, wantErr: true},
		{name: "exception", data: lavalink.Exception{Message: "blocked"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, err := firstTrack(&lavalink.LoadResult{Data: tt.data})

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if track.Encoded != tt.want {
				t.Errorf("expected %q, got %q", tt.want, track.Encoded)
			}
		})
	}
}

func TestLavalinkAdapter_PlaybackFlags(t *testing.T) {
	adapter := newTestLavalinkAdapter()
	guildID := snowflake.ID(1)

	if adapter.IsPlaying(guildID) || adapter.IsPaused(guildID) {
		t.Fatal("expected idle adapter")
	}

	adapter.playbacks[guildID] = &lavalinkPlayback{encoded: "x", done: func(ports.PlaybackResult) {}}
	if !adapter.IsPlaying(guildID) {
		t.Error("expected playing")
	}

	adapter.setPaused(guildID, true)
	if adapter.IsPlaying(guildID) || !adapter.IsPaused(guildID) {
		t.Error("expected paused")
	}
}

func TestLavalinkAdapter_MarkDisconnectedEndsPlayback(t *testing.T) {
	adapter := newTestLavalinkAdapter()
	guildID := snowflake.ID(1)
	adapter.connected[guildID] = true

	var results []ports.PlaybackResult
	adapter.playbacks[guildID] = &lavalinkPlayback{
		encoded: "x",
		done:    func(r ports.PlaybackResult) { results = append(results, r) },
	}

	adapter.markDisconnected(guildID)
	adapter.markDisconnected(guildID)

	if adapter.IsConnected(guildID) {
		t.Error("expected disconnected")
	}
	if len(results) != 1 || !results[0].Stopped {
		t.Errorf("expected a single stopped result, got %v", results)
	}
}

func TestLavalinkAdapter_RecordFailure(t *testing.T) {
	adapter := newTestLavalinkAdapter()
	guildID := snowflake.ID(1)
	adapter.playbacks[guildID] = &lavalinkPlayback{encoded: "current", done: func(ports.PlaybackResult) {}}

	if adapter.recordFailure(guildID, "previous", ErrTrackStuck) {
		t.Error("expected failure of an unbound track to be ignored")
	}
	if !adapter.recordFailure(guildID, "current", ErrTrackStuck) {
		t.Fatal("expected failure to be recorded")
	}
	if !errors.Is(adapter.playbacks[guildID].err, ErrTrackStuck) {
		t.Errorf("expected ErrTrackStuck, got %v", adapter.playbacks[guildID].err)
	}
}

func TestVoiceEventBuffer(t *testing.T) {
	buffer := &voiceEventBuffer{}
	channelID := snowflake.ID(10)

	if buffer.setVoiceServer("token", "endpoint") {
		t.Fatal("expected buffer to wait for voice state")
	}
	if !buffer.setVoiceState(&channelID, "session") {
		t.Fatal("expected buffer to be ready")
	}

	gotChannel, session, token, endpoint := buffer.getData()
	if gotChannel == nil || *gotChannel != channelID || session != "session" ||
		token != "token" || endpoint != "endpoint" {
		t.Errorf("unexpected buffered data %v %q %q %q", gotChannel, session, token, endpoint)
	}

	if buffer.setVoiceState(&channelID, "session") {
		t.Error("expected buffer to reset after getData")
	}
}
