package remote

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// AudioStream is a streamed audio response body.
type AudioStream struct {
	ContentType string
	body        io.ReadCloser
	r           *bufio.Reader
}

func newAudioStream(resp *http.Response) (*AudioStream, error) {
	if resp.ContentLength == 0 {
		resp.Body.Close()
		return nil, ErrEmptyBody
	}
	r := bufio.NewReader(resp.Body)
	if _, err := r.Peek(1); err != nil {
		resp.Body.Close()
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyBody
		}
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return &AudioStream{
		ContentType: resp.Header.Get("Content-Type"),
		body:        resp.Body,
		r:           r,
	}, nil
}

func (a *AudioStream) Read(p []byte) (int, error) { return a.r.Read(p) }

func (a *AudioStream) Close() error { return a.body.Close() }

// SaveTo copies the stream into a new file tts_<unix-ms>.bin under dir,
// closes the stream and returns the file path.
func (a *AudioStream) SaveTo(dir string) (string, error) {
	defer a.Close()

	f, err := createAudioFile(dir, "tts", ".bin")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, a.r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write audio: %w", err)
	}
	return f.Name(), nil
}

// createAudioFile creates <prefix>_<unix-ms><ext> in dir, or a uniquely
// suffixed variant when that name is taken.
func createAudioFile(dir, prefix, ext string) (*os.File, error) {
	stamp := time.Now().UnixMilli()
	path := filepath.Join(dir, fmt.Sprintf("%s_%d%s", prefix, stamp, ext))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create audio file: %w", err)
	}
	f, err = os.CreateTemp(dir, fmt.Sprintf("%s_%d_*%s", prefix, stamp, ext))
	if err != nil {
		return nil, fmt.Errorf("create audio file: %w", err)
	}
	return f, nil
}
