package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/krishi/internal/logging"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, WithLogger(logging.Nop()))
	require.NoError(t, err)
	return c
}

func TestNewClient_BaseURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "adds trailing slash", in: "http://host:8000", want: "http://host:8000/"},
		{name: "keeps prefix path", in: "https://example.org/api/", want: "https://example.org/api/"},
		{name: "empty", in: "  ", wantErr: true},
		{name: "bad scheme", in: "ftp://host/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.BaseURL())
		})
	}
}

func TestClient_Health(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/health", r.URL.Path)
		w.Write([]byte(`{"status":"ok"}`))
	}))

	got, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Status)
}

func TestClient_Chat(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"text":"Sow after the first rain.","tool_calls":[{"name":"weather"}]}`))
	}))

	got, err := c.Chat(context.Background(), types.ChatRequest{
		Message:     "When should I sow?",
		UserContext: "Farmer Name: Ravi",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sow after the first rain.", got.Text)
	assert.Len(t, got.ToolCalls, 1)

	assert.Equal(t, "default", body["session_id"])
	assert.Equal(t, "When should I sow?", body["message"])
	assert.Equal(t, false, body["stream"])
	assert.Equal(t, "Farmer Name: Ravi", body["user_context"])
	assert.NotContains(t, body, "images_base64")
}

func TestClient_HTTPError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))

	_, err := c.Chat(context.Background(), types.ChatRequest{Message: "hi"})
	require.Error(t, err)

	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusServiceUnavailable, herr.StatusCode)
	assert.Equal(t, "model not loaded", herr.Body)
	assert.Contains(t, err.Error(), "HTTP 503 Service Unavailable")
	assert.Equal(t, 503, StatusCode(err))
	assert.Zero(t, StatusCode(io.EOF))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c, err := NewClient(srv.URL, WithLogger(logging.Nop()))
	require.NoError(t, err)

	_, err = c.Health(context.Background())
	require.Error(t, err)
	assert.Zero(t, StatusCode(err))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	c, err := NewClient(srv.URL, WithTimeout(50*time.Millisecond), WithLogger(logging.Nop()))
	require.NoError(t, err)

	_, err = c.Health(context.Background())
	assert.Error(t, err)
}

func TestClient_ClassifyImage(t *testing.T) {
	tests := []struct {
		filename string
		wantType string
	}{
		{filename: "leaf.png", wantType: "image/png"},
		{filename: "leaf.JPG", wantType: "image/jpeg"},
		{filename: "capture", wantType: "image/jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/image/classify", r.URL.Path)
				f, hdr, err := r.FormFile("file")
				if !assert.NoError(t, err) {
					return
				}
				defer f.Close()
				data, _ := io.ReadAll(f)
				assert.Equal(t, "pixels", string(data))
				assert.Equal(t, tt.filename, hdr.Filename)
				assert.Equal(t, tt.wantType, hdr.Header.Get("Content-Type"))
				w.Write([]byte(`{"label":"late_blight","score":0.87,"top_k":[{"label":"late_blight","score":0.87},{"label":"healthy","score":0.1}]}`))
			}))

			got, err := c.ClassifyImage(context.Background(), tt.filename, strings.NewReader("pixels"))
			require.NoError(t, err)
			assert.Equal(t, "late_blight", got.Label)
			assert.InDelta(t, 0.87, got.Score, 1e-9)
			require.Len(t, got.TopK, 2)
			assert.Equal(t, "healthy", got.TopK[1].Label)
		})
	}
}

func TestClient_Voice(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/voice", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "farm-1", r.FormValue("session_id"))
		assert.Equal(t, "true", r.FormValue("tts"))
		assert.Equal(t, "hi", r.FormValue("language"))

		f, hdr, err := r.FormFile("audio")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "recorded", string(data))
		assert.Equal(t, "recording_1.m4a", hdr.Filename)
		assert.Equal(t, "audio/m4a", hdr.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("RIFF-reply"))
	}))

	stream, err := c.Voice(context.Background(), types.VoiceRequest{
		SessionID: "farm-1",
		TTS:       true,
		Language:  "hi",
		Filename:  "/tmp/x/recording_1.m4a",
		Audio:     strings.NewReader("recorded"),
	})
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", stream.ContentType)

	dir := t.TempDir()
	path, err := stream.SaveTo(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "tts_"))
	assert.Equal(t, ".bin", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF-reply", string(data))
}

func TestClient_VoiceOmitsEmptyLanguage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "default", r.FormValue("session_id"))
		assert.Equal(t, "false", r.FormValue("tts"))
		_, present := r.MultipartForm.Value["language"]
		assert.False(t, present)
		w.Write([]byte("x"))
	}))

	stream, err := c.Voice(context.Background(), types.VoiceRequest{Audio: strings.NewReader("a")})
	require.NoError(t, err)
	require.NoError(t, stream.Close())
}

func TestClient_VoiceEmptyBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	_, err := c.Voice(context.Background(), types.VoiceRequest{Audio: strings.NewReader("a")})
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestClient_VoiceStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.Voice(context.Background(), types.VoiceRequest{Audio: strings.NewReader("a")})
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
}

func TestClient_TTS(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tts", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "नमस्ते किसान", r.PostForm.Get("text"))
		assert.Equal(t, "hi", r.PostForm.Get("language"))
		w.Write([]byte("speech"))
	}))

	stream, err := c.TTS(context.Background(), "नमस्ते किसान", "hi")
	require.NoError(t, err)
	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	assert.Equal(t, "speech", string(data))
}
