package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Transcribe uploads an audio file for transcription. On any failure, or
// when the response text is blank, it returns the zero TranscriptionResponse.
func (c *Client) Transcribe(ctx context.Context, param TranscriptionParameter) TranscriptionResponse {
	start := time.Now()
	requestID, logger := c.begin(OperationTranscription)

	resp, status, err := c.transcribe(ctx, requestID, param, logger)
	if err != nil {
		logger.Error("transcription failed", "status", status, "file", param.File, "error", err)
		c.observeCall(OperationTranscription, false, status, start)
		return TranscriptionResponse{}
	}
	c.observeCall(OperationTranscription, resp.OK, status, start)
	return resp
}

func (c *Client) transcribe(ctx context.Context, requestID string, param TranscriptionParameter, logger *slog.Logger) (TranscriptionResponse, int, error) {
	form, contentType, err := buildTranscriptionForm(param)
	if err != nil {
		return TranscriptionResponse{}, 0, err
	}
	httpReq, err := c.newRequest(ctx, requestID, transcriptionPath, contentType, form)
	if err != nil {
		return TranscriptionResponse{}, 0, err
	}
	body, status, err := c.do(httpReq)
	if err != nil {
		return TranscriptionResponse{}, status, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		logger.Warn("transcription response is empty", "status", status)
		return TranscriptionResponse{}, status, nil
	}

	var resp TranscriptionResponse
	if err := decodeLenient(body, &resp); err != nil {
		return TranscriptionResponse{}, status, fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		logger.Warn("transcription response has no text", "status", status)
		return TranscriptionResponse{}, status, nil
	}
	resp.OK = true
	return resp, status, nil
}

func buildTranscriptionForm(param TranscriptionParameter) (*bytes.Buffer, string, error) {
	file, err := os.Open(param.File)
	if err != nil {
		return nil, "", fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(param.File))
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("copy audio file: %w", err)
	}

	fields := []struct{ name, value string }{
		{"model", param.Model},
		{"language", param.Language},
		{"prompt", param.Prompt},
	}
	if param.Temperature != nil {
		fields = append(fields, struct{ name, value string }{"temperature", strconv.FormatFloat(*param.Temperature, 'f', -1, 64)})
	}
	for _, field := range fields {
		if field.value == "" && field.name != "model" {
			continue
		}
		if err := writer.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("write %s field: %w", field.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
