package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gptcli/internal/llm"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type chatOptions struct {
	InputFile   string
	System      string
	Model       string
	Temperature float64
	MaxTokens   int
	Raw         bool
}

func newChatCmd(v *viper.Viper) *cobra.Command {
	opts := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat [prompt...]",
		Short: "Stream a chat completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, v, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "file", "F", "", "prompt file, use -F- for stdin")
	cmd.Flags().StringVar(&opts.System, "system", "", "system prompt")
	cmd.Flags().StringVar(&opts.Model, "model", "", "override model name")
	cmd.Flags().Float64Var(&opts.Temperature, "temperature", 1, "sampling temperature")
	cmd.Flags().IntVar(&opts.MaxTokens, "max-tokens", 0, "maximum tokens to generate")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print the raw event stream after the answer")

	return cmd
}

func runChat(cmd *cobra.Command, v *viper.Viper, opts *chatOptions, args []string) error {
	prompt, err := readInput(args, opts.InputFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if strings.TrimSpace(prompt) == "" {
		return errors.New("prompt is required")
	}

	s, err := openSession(cmd, v)
	if err != nil {
		return err
	}
	defer s.close()

	param := llm.ChatParameter{
		Model:     firstNonEmpty(opts.Model, s.cfg.LLM.Model),
		Messages:  buildMessages(opts.System, prompt),
		MaxTokens: opts.MaxTokens,
	}
	if cmd.Flags().Changed("temperature") {
		temperature := opts.Temperature
		param.Temperature = &temperature
	}

	out := cmd.OutOrStdout()
	printer := &deltaPrinter{out: out}
	resp := s.client.Chat(cmd.Context(), param, printer.handle)
	_, _ = fmt.Fprintln(out)
	if opts.Raw {
		_, _ = fmt.Fprintln(out, resp.Response)
	}
	if !resp.OK {
		return fmt.Errorf("chat failed (status %d)", resp.StatusCode)
	}
	return nil
}

// deltaPrinter writes only the part of each cumulative event not yet printed.
type deltaPrinter struct {
	out     io.Writer
	printed int
}

func (p *deltaPrinter) handle(event llm.CallbackEvent) {
	if event.Done || len(event.Content) <= p.printed {
		return
	}
	_, _ = fmt.Fprint(p.out, event.Content[p.printed:])
	p.printed = len(event.Content)
}

func buildMessages(system, prompt string) []llm.Message {
	messages := make([]llm.Message, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: system,
		})
	}
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: prompt,
	})
	return messages
}
