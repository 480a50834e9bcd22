// Package chat runs a conversation with the farming assistant: text
// questions carrying the farmer's profile as context, plant image
// classification, recorded voice round trips and spoken replies. History
// lives in memory only.
package chat

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/krishi/internal/logging"
	"github.com/mesh-intelligence/krishi/internal/remote"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

// WelcomeMessage opens every session.
const WelcomeMessage = "Welcome to KrishiSevak! 🌾\n\n" +
	"I'm your AI farming assistant. You can:\n" +
	"• Type your farming questions\n" +
	"• Take photos of plants for disease detection\n" +
	"• Use voice commands in your local language\n\n" +
	"How can I help you today?"

// Message texts shown in the history.
const (
	textImageCaptured = "Plant image captured"
	textImageSelected = "Plant image selected"
	textRecording     = "Recording..."
	textVoiceSent     = "[Voice message sent]"
	textVoiceReply    = "[Voice reply]"
	textNoRecording   = "No recording file found"
	textEmptyBody     = "Voice processing failed: empty body"
)

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
)

// Backend is the part of the remote client a session uses.
type Backend interface {
	Chat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error)
	ClassifyImage(ctx context.Context, filename string, r io.Reader) (*types.ImageClassification, error)
	Voice(ctx context.Context, req types.VoiceRequest) (*remote.AudioStream, error)
	TTS(ctx context.Context, text, language string) (*remote.AudioStream, error)
}

// ProfileSource supplies the onboarded profile.
type ProfileSource interface {
	Profile(ctx context.Context) (*types.UserProfile, error)
}

// Options configures a Session. Zero values are usable: no recorder, a
// logging player and the OS temp directory.
type Options struct {
	SessionID string
	AudioDir  string
	Recorder  Recorder
	Player    Player
	Logger    *zerolog.Logger

	// AttachImages also sends images to the chat endpoint as base64 when
	// a text question follows an image.
	AttachImages bool
}

// Session is one conversation.
type Session struct {
	backend  Backend
	profiles ProfileSource
	opts     Options
	log      zerolog.Logger

	mu        sync.Mutex
	messages  []types.ChatMessage
	recording string // active recording path, empty when idle
	pending   []byte // last image, for AttachImages
}

// NewSession starts a conversation seeded with the welcome message.
func NewSession(backend Backend, profiles ProfileSource, opts Options) *Session {
	if opts.SessionID == "" {
		opts.SessionID = types.DefaultSessionID
	}
	if opts.AudioDir == "" {
		opts.AudioDir = os.TempDir()
	}
	log := logging.For("chat")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if opts.Player == nil {
		opts.Player = LogPlayer{Log: log}
	}
	s := &Session{
		backend:  backend,
		profiles: profiles,
		opts:     opts,
		log:      log,
	}
	s.append(types.NewBotMessage(WelcomeMessage))
	return s
}

// Messages returns a copy of the history, oldest first.
func (s *Session) Messages() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Recording reports whether a voice recording is in progress.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording != ""
}

func (s *Session) append(m types.ChatMessage) types.ChatMessage {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	return m
}

func (s *Session) reply(format string, args ...any) types.ChatMessage {
	return s.append(types.NewBotMessage(fmt.Sprintf(format, args...)))
}

// SendText asks the assistant a question. Blank text is ignored and ok is
// false. Failures become the reply text.
func (s *Session) SendText(ctx context.Context, text string) (reply types.ChatMessage, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.ChatMessage{}, false
	}
	s.append(types.NewUserMessage(text))

	req := types.ChatRequest{
		SessionID:   s.opts.SessionID,
		Message:     text,
		UserContext: s.userContext(ctx),
	}
	if s.opts.AttachImages {
		s.mu.Lock()
		if s.pending != nil {
			req.ImagesBase64 = []string{base64.StdEncoding.EncodeToString(s.pending)}
			s.pending = nil
		}
		s.mu.Unlock()
	}

	resp, err := s.backend.Chat(ctx, req)
	if err != nil {
		s.log.Debug().Err(err).Msg("chat request failed")
		return s.reply("Chat request failed: %s", errText(err)), true
	}
	return s.append(types.NewBotMessage(resp.Text)), true
}

// SendImage classifies a plant photo. captured distinguishes a camera
// capture from a picked file in the history.
func (s *Session) SendImage(ctx context.Context, filename string, data []byte, captured bool) types.ChatMessage {
	label := textImageSelected
	if captured {
		label = textImageCaptured
	}
	m := types.NewUserMessage(label)
	m.Image = data
	s.append(m)

	if s.opts.AttachImages {
		s.mu.Lock()
		s.pending = data
		s.mu.Unlock()
	}

	res, err := s.backend.ClassifyImage(ctx, filepath.Base(filename), bytes.NewReader(data))
	if err != nil {
		s.log.Debug().Err(err).Msg("classification failed")
		return s.reply("Image analysis failed: %s", errText(err))
	}
	return s.reply("%s", FormatClassification(res))
}

// FormatClassification renders a classifier result, truncating the score
// to a whole percent.
func FormatClassification(res *types.ImageClassification) string {
	return fmt.Sprintf("Detected: %s (confidence %d%%)", res.Label, int(res.Score*100))
}

// StartRecording begins a voice recording into recording_<unix-ms>.m4a in
// the audio directory. A recorder failure is reported in the history and
// leaves the session idle. Returns ErrAlreadyRecording, without touching the
// active recording, when one is in progress.
func (s *Session) StartRecording(ctx context.Context) (types.ChatMessage, error) {
	s.mu.Lock()
	if s.recording != "" {
		s.mu.Unlock()
		return types.ChatMessage{}, ErrAlreadyRecording
	}
	if s.opts.Recorder == nil {
		s.mu.Unlock()
		return s.reply("Failed to start recording: %s", errText(ErrNoRecorder)), nil
	}
	path := filepath.Join(s.opts.AudioDir, fmt.Sprintf("recording_%d.m4a", time.Now().UnixMilli()))
	s.recording = path
	s.mu.Unlock()

	if err := s.opts.Recorder.Start(ctx, path); err != nil {
		s.mu.Lock()
		s.recording = ""
		s.mu.Unlock()
		return s.reply("Failed to start recording: %s", errText(err)), nil
	}
	return s.reply("%s", textRecording), nil
}

// StopRecording ends the recording and runs the voice round trip: upload
// with the farmer's language, save the spoken reply and play it. Returns
// ErrNotRecording when idle. The session is idle again before the upload
// starts.
func (s *Session) StopRecording(ctx context.Context) (types.ChatMessage, error) {
	s.mu.Lock()
	path := s.recording
	s.recording = ""
	s.mu.Unlock()
	if path == "" {
		return types.ChatMessage{}, ErrNotRecording
	}

	if s.opts.Recorder != nil {
		if err := s.opts.Recorder.Stop(); err != nil {
			s.log.Warn().Err(err).Msg("stopping recorder")
		}
	}
	if _, err := os.Stat(path); err != nil {
		return s.reply("%s", textNoRecording), nil
	}
	return s.sendVoice(ctx, path), nil
}

// SendVoiceFile runs the voice round trip for an existing recording.
func (s *Session) SendVoiceFile(ctx context.Context, path string) types.ChatMessage {
	if _, err := os.Stat(path); err != nil {
		return s.reply("%s", textNoRecording)
	}
	return s.sendVoice(ctx, path)
}

func (s *Session) sendVoice(ctx context.Context, path string) types.ChatMessage {
	sent := types.NewUserMessage(textVoiceSent)
	sent.Voice = true
	sent.AudioPath = path
	s.append(sent)

	f, err := os.Open(path)
	if err != nil {
		return s.reply("Voice processing error: %s", errText(err))
	}
	defer f.Close()

	stream, err := s.backend.Voice(ctx, types.VoiceRequest{
		SessionID: s.opts.SessionID,
		TTS:       true,
		Language:  WhisperCode(s.languageTag(ctx)),
		Filename:  filepath.Base(path),
		Audio:     f,
	})
	switch {
	case errors.Is(err, remote.ErrEmptyBody):
		return s.reply("%s", textEmptyBody)
	case remote.StatusCode(err) != 0:
		return s.reply("Voice processing failed: %d", remote.StatusCode(err))
	case err != nil:
		return s.reply("Voice processing error: %s", errText(err))
	}

	out, err := stream.SaveTo(s.opts.AudioDir)
	if err != nil {
		return s.reply("Voice processing error: %s", errText(err))
	}
	s.play(ctx, out)

	m := types.NewBotMessage(textVoiceReply)
	m.Voice = true
	m.AudioPath = out
	return s.append(m)
}

// Speak synthesizes text in the farmer's language, saves and plays it, and
// returns the saved file.
func (s *Session) Speak(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text", types.ErrMissingField)
	}
	stream, err := s.backend.TTS(ctx, text, WhisperCode(s.languageTag(ctx)))
	if err != nil {
		return "", err
	}
	out, err := stream.SaveTo(s.opts.AudioDir)
	if err != nil {
		return "", err
	}
	s.play(ctx, out)
	return out, nil
}

// Close stops any recording and releases the recorder and player. Calls
// already in flight are not cancelled.
func (s *Session) Close() error {
	s.mu.Lock()
	s.recording = ""
	s.mu.Unlock()

	var errs []error
	if s.opts.Recorder != nil {
		errs = append(errs, s.opts.Recorder.Close())
	}
	errs = append(errs, s.opts.Player.Close())
	return errors.Join(errs...)
}

// play logs playback failures; the saved file is still reported.
func (s *Session) play(ctx context.Context, path string) {
	if err := s.opts.Player.Play(ctx, path); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("playback failed")
	}
}

func (s *Session) profile(ctx context.Context) *types.UserProfile {
	if s.profiles == nil {
		return nil
	}
	p, err := s.profiles.Profile(ctx)
	if err != nil {
		if !errors.Is(err, types.ErrNotOnboarded) {
			s.log.Warn().Err(err).Msg("reading profile")
		}
		return nil
	}
	return p
}

// userContext is the profile summary sent with each question, or empty
// when there is no onboarded profile.
func (s *Session) userContext(ctx context.Context) string {
	if p := s.profile(ctx); p != nil {
		return p.ContextString()
	}
	return ""
}

func (s *Session) languageTag(ctx context.Context) string {
	if p := s.profile(ctx); p != nil {
		return LanguageTag(p.PreferredLanguage)
	}
	return DefaultLanguageTag
}

// errText is the user-facing text of err. HTTP failures show only the
// status line.
func errText(err error) string {
	var herr *remote.HTTPError
	if errors.As(err, &herr) {
		return herr.Error()
	}
	if err == nil || err.Error() == "" {
		return "unknown error"
	}
	return err.Error()
}
