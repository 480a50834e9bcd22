package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/krishi/internal/chat"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <image>",
		Short: "Detect plant disease in a photo",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return userError(err)
			}
			defer f.Close()

			client, err := a.remoteClient()
			if err != nil {
				return err
			}
			res, err := client.ClassifyImage(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return printJSON(out, res)
			}
			fmt.Fprintln(out, chat.FormatClassification(res))
			if len(res.TopK) > 0 {
				rows := make([][]string, len(res.TopK))
				for i, p := range res.TopK {
					rows[i] = []string{strconv.Itoa(i + 1), p.Label, strconv.FormatFloat(p.Score, 'f', 3, 64)}
				}
				printTable(out, []string{"RANK", "LABEL", "SCORE"}, rows)
			}
			return nil
		}),
	}
}

func newVoiceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "voice <recording.m4a>",
		Short: "Send a voice recording and play the spoken reply",
		Long: `Voice uploads a recording in the farmer's language, saves the spoken
reply to the audio directory and plays it with the configured player.`,
		Args: cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				s, err := a.newSession(store, false)
				if err != nil {
					return err
				}
				defer s.Close()

				reply := s.SendVoiceFile(cmd.Context(), args[0])
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), reply)
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
				if reply.AudioPath != "" {
					fmt.Fprintln(cmd.OutOrStdout(), "audio:", reply.AudioPath)
				}
				if !reply.Voice {
					return sysError(errors.New("voice round trip failed"))
				}
				return nil
			})
		}),
	}
}

func newTTSCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tts <text>",
		Short: "Speak text in the farmer's language",
		Args:  cobra.MinimumNArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				s, err := a.newSession(store, false)
				if err != nil {
					return err
				}
				defer s.Close()

				path, err := s.Speak(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		}),
	}
}
