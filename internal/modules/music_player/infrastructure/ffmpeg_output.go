package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
	"github.com/sglre6355/jukebox/internal/modules/music_player/application/ports"
)

// ffmpegExitGrace is how long ffmpeg may take to exit by itself after its
// output could not be decoded.
const ffmpegExitGrace = 2 * time.Second

// FFmpegConfig contains local transcoding configuration.
type FFmpegConfig struct {
	// Executable is the ffmpeg binary name or path.
	Executable string
	// Bitrate is the Opus bitrate passed to ffmpeg, e.g. "96k".
	Bitrate string
}

// ffmpegArgs builds the ffmpeg invocation that turns url into 20ms Ogg/Opus pages on stdout.
func ffmpegArgs(url, bitrate string) []string {
	return []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-loglevel", "error",
		"-i", url,
		"-vn",
		"-c:a", "libopus",
		"-b:a", bitrate,
		"-ar", "48000",
		"-ac", "2",
		"-f", "ogg",
		"-page_duration", "20000",
		"pipe:1",
	}
}

// ffmpegStream is one running transcode bound to a guild.
type ffmpegStream struct {
	cancel context.CancelFunc

	mu      sync.Mutex
	paused  bool
	resume  chan struct{}
	stopped bool
}

func newFFmpegStream(cancel context.CancelFunc) *ffmpegStream {
	return &ffmpegStream{cancel: cancel}
}

func (s *ffmpegStream) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
}

func (s *ffmpegStream) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *ffmpegStream) setPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case paused && !s.paused:
		s.paused = true
		s.resume = make(chan struct{})
	case !paused && s.paused:
		s.paused = false
		close(s.resume)
	}
}

func (s *ffmpegStream) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// waitResume blocks while the stream is paused. It returns false if ctx ends first.
func (s *ffmpegStream) waitResume(ctx context.Context) bool {
	for {
		s.mu.Lock()
		if !s.paused {
			s.mu.Unlock()
			return true
		}
		resume := s.resume
		s.mu.Unlock()

		select {
		case <-resume:
		case <-ctx.Done():
			return false
		}
	}
}

// pumpFrames demuxes Ogg pages from r and hands each Opus packet to send.
// ffmpeg is run with 20ms pages, so every page carries exactly one packet.
func pumpFrames(
	ctx context.Context,
	r io.Reader,
	gate func(context.Context) bool,
	send func(context.Context, []byte) bool,
) error {
	reader, _, err := oggreader.NewWith(r)
	if err != nil {
		return fmt.Errorf("failed to read ogg header: %w", err)
	}

	for {
		payload, _, err := reader.ParseNextPage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read ogg page: %w", err)
		}

		if len(payload) == 0 || bytes.HasPrefix(payload, []byte("OpusTags")) {
			continue
		}

		if !gate(ctx) || !send(ctx, payload) {
			return ctx.Err()
		}
	}
}

// waitFFmpeg waits for the ffmpeg process. When the pump failed, ffmpeg gets
// grace to exit by itself and is killed afterwards; the exit caused by that
// kill is not reported.
func waitFFmpeg(wait func() error, kill func(), pumpFailed bool, grace time.Duration) error {
	if !pumpFailed {
		return wait()
	}

	exited := make(chan error, 1)
	go func() {
		exited <- wait()
	}()

	select {
	case err := <-exited:
		return err
	case <-time.After(grace):
		kill()
		<-exited
		return nil
	}
}

// streamResult decides how a finished stream is reported.
// A non-zero ffmpeg exit is reported in place of the decode error it caused.
func streamResult(stopped bool, pumpErr, waitErr error, stderr string) ports.PlaybackResult {
	switch {
	case stopped:
		return ports.PlaybackResult{Stopped: true}
	case waitErr != nil:
		if detail := lastLine(stderr); detail != "" {
			return ports.PlaybackResult{Err: fmt.Errorf("ffmpeg exited: %w: %s", waitErr, detail)}
		}
		return ports.PlaybackResult{Err: fmt.Errorf("ffmpeg exited: %w", waitErr)}
	case pumpErr != nil:
		return ports.PlaybackResult{Err: pumpErr}
	default:
		return ports.PlaybackResult{}
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// FFmpegOutput plays streams by transcoding them locally with ffmpeg and
// sending Opus frames over discordgo voice connections.
type FFmpegOutput struct {
	session *discordgo.Session
	config  FFmpegConfig

	mu          sync.Mutex
	connections map[snowflake.ID]*discordgo.VoiceConnection
	streams     map[snowflake.ID]*ffmpegStream
}

// NewFFmpegOutput creates a new FFmpegOutput.
func NewFFmpegOutput(session *discordgo.Session, config FFmpegConfig) *FFmpegOutput {
	return &FFmpegOutput{
		session:     session,
		config:      config,
		connections: make(map[snowflake.ID]*discordgo.VoiceConnection),
		streams:     make(map[snowflake.ID]*ffmpegStream),
	}
}

// JoinChannel connects to a voice channel, moving if already connected elsewhere.
func (f *FFmpegOutput) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	vc, err := f.session.ChannelVoiceJoin(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	f.mu.Lock()
	f.connections[guildID] = vc
	f.mu.Unlock()

	return nil
}

// Disconnect stops any stream and leaves the voice channel.
func (f *FFmpegOutput) Disconnect(_ context.Context, guildID snowflake.ID) error {
	vc := f.dropConnection(guildID)
	if vc == nil {
		return nil
	}
	if err := vc.Disconnect(); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// dropConnection forgets the guild connection and stops its stream.
func (f *FFmpegOutput) dropConnection(guildID snowflake.ID) *discordgo.VoiceConnection {
	f.mu.Lock()
	vc := f.connections[guildID]
	delete(f.connections, guildID)
	stream := f.streams[guildID]
	f.mu.Unlock()

	if stream != nil {
		stream.stop()
	}
	return vc
}

// OnVoiceStateUpdate drops the connection when the bot is removed from voice.
func (f *FFmpegOutput) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if f.session.State.User == nil || event.UserID != f.session.State.User.ID {
		return
	}
	if event.ChannelID != "" {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}
	f.dropConnection(guildID)
}

// Play starts transcoding source and streaming it to the guild's voice connection.
// done is called once when the stream ends.
func (f *FFmpegOutput) Play(
	ctx context.Context,
	guildID snowflake.ID,
	source ports.StreamSource,
	done ports.PlaybackDone,
) error {
	f.mu.Lock()
	vc := f.connections[guildID]
	f.mu.Unlock()
	if vc == nil {
		return ErrVoiceNotConnected
	}

	streamCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(streamCtx, f.config.Executable, ffmpegArgs(source.URL, f.config.Bitrate)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to open ffmpeg output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	stream := newFFmpegStream(cancel)

	f.mu.Lock()
	previous := f.streams[guildID]
	f.streams[guildID] = stream
	f.mu.Unlock()

	if previous != nil {
		previous.stop()
	}

	slog.Debug("started ffmpeg stream", "guild", guildID, "title", source.Title)

	go func() {
		if err := vc.Speaking(true); err != nil {
			slog.Warn("failed to set speaking", "guild", guildID, "error", err)
		}

		pumpErr := pumpFrames(streamCtx, stdout, stream.waitResume,
			func(ctx context.Context, frame []byte) bool {
				select {
				case vc.OpusSend <- frame:
					return true
				case <-ctx.Done():
					return false
				}
			})
		waitErr := waitFFmpeg(cmd.Wait, cancel, pumpErr != nil, ffmpegExitGrace)
		cancel()

		if err := vc.Speaking(false); err != nil {
			slog.Debug("failed to clear speaking", "guild", guildID, "error", err)
		}

		f.mu.Lock()
		if f.streams[guildID] == stream {
			delete(f.streams, guildID)
		}
		f.mu.Unlock()

		done(streamResult(stream.wasStopped(), pumpErr, waitErr, stderr.String()))
	}()

	return nil
}

func (f *FFmpegOutput) stream(guildID snowflake.ID) *ffmpegStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams[guildID]
}

// Stop ends the current stream. Its done callback reports Stopped.
func (f *FFmpegOutput) Stop(_ context.Context, guildID snowflake.ID) error {
	stream := f.stream(guildID)
	if stream == nil {
		return ErrNoStream
	}
	stream.stop()
	return nil
}

// Pause holds frames until Resume.
func (f *FFmpegOutput) Pause(_ context.Context, guildID snowflake.ID) error {
	stream := f.stream(guildID)
	if stream == nil {
		return ErrNoStream
	}
	stream.setPaused(true)
	return nil
}

// Resume releases held frames.
func (f *FFmpegOutput) Resume(_ context.Context, guildID snowflake.ID) error {
	stream := f.stream(guildID)
	if stream == nil {
		return ErrNoStream
	}
	stream.setPaused(false)
	return nil
}

// IsConnected reports whether the bot holds a voice connection in the guild.
func (f *FFmpegOutput) IsConnected(guildID snowflake.ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connections[guildID] != nil
}

// IsPlaying reports whether a stream is running and not paused.
func (f *FFmpegOutput) IsPlaying(guildID snowflake.ID) bool {
	stream := f.stream(guildID)
	return stream != nil && !stream.isPaused()
}

// IsPaused reports whether the running stream is paused.
func (f *FFmpegOutput) IsPaused(guildID snowflake.ID) bool {
	stream := f.stream(guildID)
	return stream != nil && stream.isPaused()
}

// Ensure FFmpegOutput implements port interfaces.
var (
	_ ports.AudioOutput     = (*FFmpegOutput)(nil)
	_ ports.VoiceConnection = (*FFmpegOutput)(nil)
)
