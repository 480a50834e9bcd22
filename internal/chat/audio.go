package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoRecorder is returned when no recording command is configured.
var ErrNoRecorder = errors.New("no recorder configured")

// Recorder captures audio into a file.
type Recorder interface {
	Start(ctx context.Context, path string) error
	Stop() error
	Close() error
}

// Player plays an audio file.
type Player interface {
	Play(ctx context.Context, path string) error
	Close() error
}

const filePlaceholder = "{file}"

// commandArgs splits a command line and substitutes path for {file}, or
// appends path when the placeholder is absent.
func commandArgs(command, path string) ([]string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	substituted := false
	for i, f := range fields {
		if strings.Contains(f, filePlaceholder) {
			fields[i] = strings.ReplaceAll(f, filePlaceholder, path)
			substituted = true
		}
	}
	if !substituted {
		fields = append(fields, path)
	}
	return fields, nil
}

// CommandRecorder records by running an external program, for example
// "arecord -q -f cd {file}" or "ffmpeg -loglevel quiet -f avfoundation -i :0 {file}".
// Stop interrupts the program and waits for it to finish writing.
type CommandRecorder struct {
	Command     string
	StopTimeout time.Duration

	mu  sync.Mutex
	cmd *exec.Cmd
}

func (r *CommandRecorder) Start(ctx context.Context, path string) error {
	if strings.TrimSpace(r.Command) == "" {
		return ErrNoRecorder
	}
	args, err := commandArgs(r.Command, path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd != nil {
		return fmt.Errorf("recorder busy")
	}
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	r.cmd = cmd
	return nil
}

func (r *CommandRecorder) Stop() error {
	r.mu.Lock()
	cmd := r.cmd
	r.cmd = nil
	r.mu.Unlock()
	if cmd == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	_ = cmd.Process.Signal(os.Interrupt)
	timeout := r.StopTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	select {
	case <-done:
		// Recorders exit non-zero when interrupted; the file is what matters.
		return nil
	case <-time.After(timeout):
		_ = cmd.Process.Kill()
		<-done
		return fmt.Errorf("recorder did not stop within %s", timeout)
	}
}

func (r *CommandRecorder) Close() error { return r.Stop() }

// FileRecorder stands in for a microphone by copying an existing audio file
// into the recording path when stopped.
type FileRecorder struct {
	Source string

	mu   sync.Mutex
	path string
}

func (r *FileRecorder) Start(_ context.Context, path string) error {
	if _, err := os.Stat(r.Source); err != nil {
		return err
	}
	r.mu.Lock()
	r.path = path
	r.mu.Unlock()
	return nil
}

func (r *FileRecorder) Stop() error {
	r.mu.Lock()
	path := r.path
	r.path = ""
	r.mu.Unlock()
	if path == "" {
		return nil
	}

	src, err := os.Open(r.Source)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (r *FileRecorder) Close() error { return nil }

// CommandPlayer plays files with an external program such as
// "ffplay -nodisp -autoexit -loglevel quiet {file}".
type CommandPlayer struct {
	Command string
}

func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	args, err := commandArgs(p.Command, path)
	if err != nil {
		return err
	}
	return exec.CommandContext(ctx, args[0], args[1:]...).Run()
}

func (p *CommandPlayer) Close() error { return nil }

// LogPlayer only reports where the audio was saved.
type LogPlayer struct {
	Log zerolog.Logger
}

func (p LogPlayer) Play(_ context.Context, path string) error {
	p.Log.Info().Str("path", path).Msg("audio saved")
	return nil
}

func (p LogPlayer) Close() error { return nil }

// NewPlayer returns a CommandPlayer for command, or a LogPlayer when
// command is empty.
func NewPlayer(command string, log zerolog.Logger) Player {
	if strings.TrimSpace(command) == "" {
		return LogPlayer{Log: log}
	}
	return &CommandPlayer{Command: command}
}
