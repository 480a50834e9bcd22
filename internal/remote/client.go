// Package remote is the HTTP client for the farming-assistant backend:
// health, chat, image classification, voice round trip and text to speech.
// Every call is a single request. There is no retry or backoff.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/krishi/internal/logging"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

// DefaultTimeout bounds each request, including reading a streamed body.
const DefaultTimeout = 30 * time.Second

// Endpoint paths, relative to the base URL.
const (
	pathHealth   = "v1/health"
	pathChat     = "v1/chat"
	pathClassify = "v1/image/classify"
	pathVoice    = "v1/voice"
	pathTTS      = "v1/tts"
)

// Client talks to one backend.
type Client struct {
	base *url.URL
	http *http.Client
	log  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient returns a client for the backend at baseURL. A missing trailing
// slash is added so endpoint paths resolve beneath it.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBase(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		base: base,
		http: &http.Client{Timeout: DefaultTimeout},
		log:  logging.For("remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func parseBase(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("base url required")
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", raw)
	}
	return u, nil
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Health calls GET v1/health.
func (c *Client) Health(ctx context.Context) (*types.HealthResponse, error) {
	var out types.HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, pathHealth, nil, &out); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	return &out, nil
}

// Chat sends one message. An empty session id is sent as "default".
func (c *Client) Chat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	if req.SessionID == "" {
		req.SessionID = types.DefaultSessionID
	}
	var out types.ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, pathChat, req, &out); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	return &out, nil
}

// ClassifyImage uploads an image as multipart field "file". The content type
// is image/png for a .png filename and image/jpeg otherwise.
func (c *Client) ClassifyImage(ctx context.Context, filename string, r io.Reader) (*types.ImageClassification, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := writeFilePart(w, "file", filename, imageContentType(filename), r); err != nil {
		return nil, fmt.Errorf("classify image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("classify image: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, pathClassify, w.FormDataContentType(), &buf)
	if err != nil {
		return nil, fmt.Errorf("classify image: %w", err)
	}
	defer resp.Body.Close()

	var out types.ImageClassification
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("classify image: decode response: %w", err)
	}
	return &out, nil
}

// Voice uploads recorded audio with the session id, tts flag and optional
// language, and returns the streamed audio reply. A 2xx reply without a body
// returns ErrEmptyBody. The caller must close the stream.
func (c *Client) Voice(ctx context.Context, req types.VoiceRequest) (*AudioStream, error) {
	if req.SessionID == "" {
		req.SessionID = types.DefaultSessionID
	}
	filename := req.Filename
	if filename == "" {
		filename = "audio.m4a"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"session_id", req.SessionID},
		{"tts", strconv.FormatBool(req.TTS)},
	}
	if req.Language != "" {
		fields = append(fields, [2]string{"language", req.Language})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("voice: %w", err)
		}
	}
	if err := writeFilePart(w, "audio", filepath.Base(filename), "audio/m4a", req.Audio); err != nil {
		return nil, fmt.Errorf("voice: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("voice: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, pathVoice, w.FormDataContentType(), &buf)
	if err != nil {
		return nil, fmt.Errorf("voice: %w", err)
	}
	return newAudioStream(resp)
}

// TTS synthesizes text, optionally in language, and returns the streamed
// audio. The caller must close the stream.
func (c *Client) TTS(ctx context.Context, text, language string) (*AudioStream, error) {
	form := url.Values{"text": {text}}
	if language != "" {
		form.Set("language", language)
	}
	resp, err := c.send(ctx, http.MethodPost, pathTTS, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("tts: %w", err)
	}
	return newAudioStream(resp)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	contentType := ""
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = &buf
		contentType = "application/json"
	}

	resp, err := c.send(ctx, method, path, contentType, rd)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send performs one request. Non-2xx responses are drained, closed and
// returned as *HTTPError; otherwise the caller owns resp.Body.
func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	target := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, audio/*")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("url", target.String()).
			Dur("elapsed", time.Since(start)).Msg("request failed")
		return nil, err
	}
	c.log.Debug().Str("method", method).Str("url", target.String()).
		Int("status", resp.StatusCode).Int64("content_length", resp.ContentLength).
		Dur("elapsed", time.Since(start)).Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}
	return resp, nil
}

func writeFilePart(w *multipart.Writer, field, filename, contentType string, r io.Reader) error {
	if r == nil {
		return fmt.Errorf("%s: no content", field)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, escapeQuotes(filename)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy %s: %w", field, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

func imageContentType(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
