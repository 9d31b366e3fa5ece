package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gptcli/internal/llm"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type imageOptions struct {
	Model          string
	N              int
	Size           string
	Quality        string
	ResponseFormat string
	Format         string
}

func newImageCmd(v *viper.Viper) *cobra.Command {
	opts := &imageOptions{}
	cmd := &cobra.Command{
		Use:   "image <prompt...>",
		Short: "Generate images from a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImage(cmd, v, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "override image model")
	cmd.Flags().IntVarP(&opts.N, "count", "n", 1, "number of images")
	cmd.Flags().StringVar(&opts.Size, "size", "1024x1024", "image size")
	cmd.Flags().StringVar(&opts.Quality, "quality", "", "image quality")
	cmd.Flags().StringVar(&opts.ResponseFormat, "response-format", "url", "url or b64_json")
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "json", "output format: json or yaml")

	return cmd
}

func runImage(cmd *cobra.Command, v *viper.Viper, opts *imageOptions, args []string) error {
	if opts.Format != "json" && opts.Format != "yaml" {
		return fmt.Errorf("invalid output format: %s", opts.Format)
	}
	s, err := openSession(cmd, v)
	if err != nil {
		return err
	}
	defer s.close()

	resp := s.client.CreateImage(cmd.Context(), llm.ImageParameter{
		Prompt:         strings.Join(args, " "),
		Model:          firstNonEmpty(opts.Model, s.cfg.LLM.ImageModel),
		N:              opts.N,
		Size:           opts.Size,
		Quality:        opts.Quality,
		ResponseFormat: opts.ResponseFormat,
	})
	if !resp.OK {
		return errors.New("image generation failed")
	}
	return writeImageResponse(cmd.OutOrStdout(), resp, opts.Format)
}

func writeImageResponse(out io.Writer, resp llm.ImageResponse, format string) error {
	if format == "yaml" {
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return encoder.Close()
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(resp); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
