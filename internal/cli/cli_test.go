package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gptcli/internal/llm"
	"gptcli/internal/version"
)

func TestDeltaPrinter(t *testing.T) {
	var out bytes.Buffer
	printer := &deltaPrinter{out: &out}
	printer.handle(llm.CallbackEvent{Content: "He"})
	printer.handle(llm.CallbackEvent{Content: "Hello"})
	printer.handle(llm.CallbackEvent{Content: "Hello"})
	printer.handle(llm.CallbackEvent{Done: true})
	if out.String() != "Hello" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestBuildMessages(t *testing.T) {
	messages := buildMessages("be brief", "hi")
	if len(messages) != 2 || messages[0].Role != "system" || messages[1].Content != "hi" {
		t.Fatalf("unexpected messages: %+v", messages)
	}
	if messages := buildMessages(" ", "hi"); len(messages) != 1 {
		t.Fatalf("blank system prompt should be dropped: %+v", messages)
	}
}

func TestExecuteVersion(t *testing.T) {
	var out bytes.Buffer
	if code := Execute([]string{"version"}, &out, io.Discard); code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if strings.TrimSpace(out.String()) != version.Version {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestExecuteChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatParameter
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Content != "be brief" || req.Messages[1].Content != "say hi" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if req.Temperature == nil || *req.Temperature != 0.2 {
			t.Errorf("unexpected temperature: %v", req.Temperature)
		}
		_, _ = io.WriteString(w, strings.Join([]string{
			`data: {"choices":[{"delta":{"content":"Hi"}}]}`,
			`data: {"choices":[{"delta":{"content":" there"}}]}`,
			"data: [DONE]",
		}, "\n"))
	}))
	defer server.Close()

	metricsPath := filepath.Join(t.TempDir(), "gptcli.prom")
	var out bytes.Buffer
	code := Execute([]string{
		"chat",
		"--url", server.URL,
		"--token", "token",
		"--metrics-textfile", metricsPath,
		"--system", "be brief",
		"--temperature", "0.2",
		"say", "hi",
	}, &out, io.Discard)
	if code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out.String() != "Hi there\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), "gptcli_stream_chunks_total") {
		t.Fatalf("metrics missing chunk counter:\n%s", data)
	}
}

func TestExecuteChatFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	var errOut bytes.Buffer
	code := Execute([]string{"chat", "--url", server.URL, "--token", "token", "hi"}, io.Discard, &errOut)
	if code == 0 {
		t.Fatalf("expected non-zero exit code")
	}
	if !strings.Contains(errOut.String(), "status 401") {
		t.Fatalf("unexpected error output: %q", errOut.String())
	}
}

func TestExecuteImageYAML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"created":1,"data":[{"url":"https://img/1"}]}`)
	}))
	defer server.Close()

	var out bytes.Buffer
	code := Execute([]string{"image", "--url", server.URL, "--token", "token", "-o", "yaml", "a", "cat"}, &out, io.Discard)
	if code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if !strings.Contains(out.String(), "url: https://img/1") || !strings.Contains(out.String(), "ok: true") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestExecuteTranscribeMissingFile(t *testing.T) {
	code := Execute([]string{"transcribe", "--token", "token", filepath.Join(t.TempDir(), "none.mp3")}, io.Discard, io.Discard)
	if code == 0 {
		t.Fatalf("expected non-zero exit code")
	}
}

func TestExecuteDoesNotLeakConfigBetweenRuns(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GPTCLI_LLM_TOKEN", "")

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\ndata: [DONE]\n")
	}))
	defer server.Close()

	configPath := filepath.Join(t.TempDir(), "gptcli.yaml")
	content := "llm:\n  url: " + server.URL + "\n  token: from-file\n"
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	if code := Execute([]string{"chat", "--config", configPath, "hi"}, &out, io.Discard); code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if out.String() != "ok\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}

	if code := Execute([]string{"chat", "--url", server.URL, "hi"}, io.Discard, io.Discard); code == 0 {
		t.Fatalf("expected second run without a token to fail")
	}
	if calls != 1 {
		t.Fatalf("unexpected request count: %d", calls)
	}
}
