package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// CreateImage requests image generation. On any failure, or when the
// response carries no images, it returns the zero ImageResponse.
func (c *Client) CreateImage(ctx context.Context, param ImageParameter) ImageResponse {
	start := time.Now()
	requestID, logger := c.begin(OperationImage)

	resp, status, err := c.createImage(ctx, requestID, param, logger)
	if err != nil {
		logger.Error("create image failed", "status", status, "error", err)
		c.observeCall(OperationImage, false, status, start)
		return ImageResponse{}
	}
	c.observeCall(OperationImage, resp.OK, status, start)
	return resp
}

func (c *Client) createImage(ctx context.Context, requestID string, param ImageParameter, logger *slog.Logger) (ImageResponse, int, error) {
	requestBody, err := json.Marshal(param)
	if err != nil {
		return ImageResponse{}, 0, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := c.newRequest(ctx, requestID, imagePath, "application/json", bytes.NewReader(requestBody))
	if err != nil {
		return ImageResponse{}, 0, err
	}
	body, status, err := c.do(httpReq)
	if err != nil {
		return ImageResponse{}, status, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		logger.Warn("image response is empty", "status", status)
		return ImageResponse{}, status, nil
	}

	var resp ImageResponse
	if err := decodeLenient(body, &resp); err != nil {
		return ImageResponse{}, status, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Data) == 0 {
		logger.Warn("image response has no data", "status", status)
		return ImageResponse{}, status, nil
	}
	resp.OK = true
	return resp, status, nil
}
