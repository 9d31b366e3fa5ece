package cli

import (
	"errors"
	"fmt"

	"gptcli/internal/llm"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type transcribeOptions struct {
	Model    string
	Language string
	Prompt   string
}

func newTranscribeCmd(v *viper.Viper) *cobra.Command {
	opts := &transcribeOptions{}
	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, v, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "override transcription model")
	cmd.Flags().StringVar(&opts.Language, "language", "", "ISO-639-1 language of the audio")
	cmd.Flags().StringVar(&opts.Prompt, "prompt", "", "text to guide the transcription")

	return cmd
}

func runTranscribe(cmd *cobra.Command, v *viper.Viper, opts *transcribeOptions, file string) error {
	s, err := openSession(cmd, v)
	if err != nil {
		return err
	}
	defer s.close()

	resp := s.client.Transcribe(cmd.Context(), llm.TranscriptionParameter{
		File:     file,
		Model:    firstNonEmpty(opts.Model, s.cfg.LLM.TranscriptionModel),
		Language: opts.Language,
		Prompt:   opts.Prompt,
	})
	if !resp.OK {
		return errors.New("transcription failed")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
	return err
}
