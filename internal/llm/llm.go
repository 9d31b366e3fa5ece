package llm

import "time"

const (
	OperationChat          = "chat"
	OperationImage         = "image"
	OperationTranscription = "transcription"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParameter is sent verbatim as the chat completion request body.
type ChatParameter struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	User        string    `json:"user,omitempty"`
}

type ChatResponse struct {
	OK         bool
	StatusCode int
	// Content is the concatenation of every delta received.
	Content string
	// Response is every line read from the stream, joined without separators.
	Response string
}

// CallbackEvent is delivered once per stream line that carries text, and
// once more with Done set when the server sends the end-of-stream sentinel.
// Content holds everything received so far, not just the latest fragment.
type CallbackEvent struct {
	Done    bool
	Content string
}

// Callback receives chat events on the goroutine reading the stream. It must
// return promptly: the stream is not read while it runs.
type Callback func(event CallbackEvent)

type ImageParameter struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model,omitempty"`
	N              int    `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	Quality        string `json:"quality,omitempty"`
	Style          string `json:"style,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
	User           string `json:"user,omitempty"`
}

type ImageData struct {
	URL           string `json:"url,omitempty" yaml:"url,omitempty"`
	B64JSON       string `json:"b64_json,omitempty" yaml:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty" yaml:"revised_prompt,omitempty"`
}

type ImageResponse struct {
	OK      bool        `json:"ok" yaml:"ok"`
	Created int64       `json:"created,omitempty" yaml:"created,omitempty"`
	Data    []ImageData `json:"data,omitempty" yaml:"data,omitempty"`
}

// TranscriptionParameter describes one audio upload. File is a path on the
// local filesystem; its base name is sent as the upload file name.
type TranscriptionParameter struct {
	File        string
	Model       string
	Language    string
	Prompt      string
	Temperature *float64
}

type TranscriptionResponse struct {
	OK       bool    `json:"ok"`
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Observer is notified about finished calls and delivered chat chunks.
type Observer interface {
	ObserveCall(operation string, ok bool, statusCode int, elapsed time.Duration)
	ObserveChunk(operation string)
}
