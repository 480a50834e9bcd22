package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/krishi/internal/chat"
	"github.com/mesh-intelligence/krishi/internal/logging"
	"github.com/mesh-intelligence/krishi/internal/onboarding"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

// newSession builds a chat session over the configured backend, with the
// onboarded profile as context.
func (a *app) newSession(store types.Store, attachImages bool) (*chat.Session, error) {
	client, err := a.remoteClient()
	if err != nil {
		return nil, err
	}
	dir, err := a.audioDir()
	if err != nil {
		return nil, err
	}
	var rec chat.Recorder
	if strings.TrimSpace(a.settings.Recorder) != "" {
		rec = &chat.CommandRecorder{Command: a.settings.Recorder}
	}
	return chat.NewSession(client, onboarding.NewService(store), chat.Options{
		SessionID:    a.settings.SessionID,
		AudioDir:     dir,
		Recorder:     rec,
		Player:       chat.NewPlayer(a.settings.Player, logging.For("audio")),
		AttachImages: attachImages,
	}), nil
}

const chatHelp = `Type a question, or:
  /image <path>    classify a plant photo
  /camera <path>   same, recorded as a camera capture
  /record          start or stop a voice recording
  /voice <path>    send an existing recording
  /say <text>      speak text in your language
  /history         show the conversation
  /help            show this help
  /quit            leave`

func newChatCmd(a *app) *cobra.Command {
	var (
		messages     []string
		attachImages bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the farming assistant",
		Long: `Chat starts an interactive conversation. Each question carries the
onboarded profile as context. With -m the given messages are sent in order
and the command exits.

` + chatHelp + `

Example:
  krishi chat
  krishi chat -m "When should I sow mustard?"`,
		Args: cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				onboarding.NewService(store).Touch(cmd.Context())

				s, err := a.newSession(store, attachImages)
				if err != nil {
					return err
				}
				defer s.Close()

				out := cmd.OutOrStdout()
				if len(messages) > 0 {
					var replies []types.ChatMessage
					for _, m := range messages {
						if r, ok := s.SendText(cmd.Context(), m); ok {
							replies = append(replies, r)
						}
					}
					if a.flags.jsonMode {
						return printJSON(out, replies)
					}
					for _, r := range replies {
						fmt.Fprintln(out, r.Text)
					}
					return nil
				}
				return repl(cmd.Context(), s, cmd.InOrStdin(), out)
			})
		}),
	}
	cmd.Flags().StringArrayVarP(&messages, "message", "m", nil, "send a message and exit (repeatable)")
	cmd.Flags().BoolVar(&attachImages, "attach-images", false, "also send the last image with the next question")
	return cmd
}

// repl reads lines from in until EOF or /quit.
func repl(ctx context.Context, s *chat.Session, in io.Reader, out io.Writer) error {
	say := func(m types.ChatMessage) {
		fmt.Fprintf(out, "krishi: %s\n", m.Text)
		if m.AudioPath != "" && !m.FromUser {
			fmt.Fprintf(out, "        (audio: %s)\n", m.AudioPath)
		}
	}
	say(s.Messages()[0])

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if r, ok := s.SendText(ctx, line); ok {
				say(r)
			}
			continue
		}

		verb, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch verb {
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(out, chatHelp)
		case "/history":
			for _, m := range s.Messages() {
				who := "krishi"
				if m.FromUser {
					who = "you"
				}
				fmt.Fprintf(out, "[%s] %s: %s\n", m.Timestamp.Format("15:04"), who, m.Text)
			}
		case "/image", "/camera":
			if arg == "" {
				fmt.Fprintln(out, "usage: "+verb+" <path>")
				continue
			}
			data, err := os.ReadFile(arg)
			if err != nil {
				fmt.Fprintln(out, "cannot read image:", err)
				continue
			}
			say(s.SendImage(ctx, filepath.Base(arg), data, verb == "/camera"))
		case "/record":
			m, err := toggleRecording(ctx, s)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			say(m)
		case "/voice":
			if arg == "" {
				fmt.Fprintln(out, "usage: /voice <path>")
				continue
			}
			say(s.SendVoiceFile(ctx, arg))
		case "/say":
			path, err := s.Speak(ctx, arg)
			if err != nil {
				fmt.Fprintln(out, "speech failed:", err)
				continue
			}
			fmt.Fprintln(out, "audio saved to", path)
		default:
			fmt.Fprintf(out, "unknown command %s (try /help)\n", verb)
		}
	}
}

func toggleRecording(ctx context.Context, s *chat.Session) (types.ChatMessage, error) {
	if s.Recording() {
		return s.StopRecording(ctx)
	}
	return s.StartRecording(ctx)
}
