package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"

	maxStreamLine = 1024 * 1024
)

// Chat sends a streaming chat completion request and feeds the callback as
// the answer arrives. Stream is always requested regardless of param.Stream.
// The returned response has OK set when any text was received; when the
// request never reached the server StatusCode is zero and Content is empty.
func (c *Client) Chat(ctx context.Context, param ChatParameter, callback Callback) ChatResponse {
	start := time.Now()
	requestID, logger := c.begin(OperationChat)

	resp, err := c.chat(ctx, requestID, param, callback, logger)
	if err != nil {
		logger.Error("chat request failed", "error", err)
		c.observeCall(OperationChat, false, 0, start)
		return ChatResponse{}
	}
	c.observeCall(OperationChat, resp.OK, resp.StatusCode, start)
	return resp
}

func (c *Client) chat(ctx context.Context, requestID string, param ChatParameter, callback Callback, logger *slog.Logger) (ChatResponse, error) {
	param.Stream = true
	requestBody, err := json.Marshal(param)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := c.newRequest(ctx, requestID, chatPath, "application/json", bytes.NewReader(requestBody))
	if err != nil {
		return ChatResponse{}, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	httpResp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("openai request: %w", err)
	}
	defer httpResp.Body.Close()

	if !isSuccess(httpResp.StatusCode) {
		logger.Warn("chat stream returned non-success status", "status", httpResp.StatusCode)
	}

	content, raw := c.consumeStream(httpResp.Body, callback, logger)
	return ChatResponse{
		OK:         content != "",
		StatusCode: httpResp.StatusCode,
		Content:    content,
		Response:   raw,
	}, nil
}

// consumeStream reads body line by line until the end-of-stream sentinel,
// EOF or a read error. It returns the accumulated delta text and the raw
// lines joined without separators. A line that fails to decode is logged
// and skipped; a read error ends the stream with whatever was accumulated.
func (c *Client) consumeStream(body io.Reader, callback Callback, logger *slog.Logger) (string, string) {
	var content strings.Builder
	var raw strings.Builder
	emit := func(event CallbackEvent) {
		if callback != nil {
			callback(event)
		}
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	for scanner.Scan() {
		line := scanner.Text()
		raw.WriteString(line)

		delta, done, err := parseStreamLine(line)
		if err != nil {
			logger.Warn("skipping malformed stream line", "error", err, "line", excerpt([]byte(line)))
			continue
		}
		if done {
			emit(CallbackEvent{Done: true})
			break
		}
		if delta == "" {
			continue
		}
		content.WriteString(delta)
		c.observeChunk(OperationChat)
		emit(CallbackEvent{Content: content.String()})
	}
	if err := scanner.Err(); err != nil {
		logger.Error("read chat stream", "error", err)
	}
	return content.String(), raw.String()
}

// parseStreamLine classifies one line of the event stream. It returns the
// first choice's delta text, or done when the line is the end-of-stream
// sentinel. Lines without the data prefix, with an empty payload or with no
// choices yield an empty delta.
func parseStreamLine(line string) (string, bool, error) {
	data, ok := strings.CutPrefix(line, dataPrefix)
	if !ok || data == "" {
		return "", false, nil
	}
	if data == doneSentinel {
		return "", true, nil
	}
	var chunk chatChunk
	if err := decodeLenient([]byte(data), &chunk); err != nil {
		return "", false, fmt.Errorf("decode stream chunk: %w", err)
	}
	if len(chunk.Choices) == 0 {
		return "", false, nil
	}
	return chunk.Choices[0].Delta.Content, false, nil
}

type chatChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Delta        Message `json:"delta"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}
