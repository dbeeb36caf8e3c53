// Package chat is the generative-chat collaborator boundary. It produces
// persuasive free text only; deterministic detectors remain the sole
// authority for moving money.
package chat

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// #endregion

// #region types

// Message is one turn of chat history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer generates free text from a system prompt and history.
type Completer interface {
	CompleteChat(ctx context.Context, system string, history []Message) (string, error)
}

// #endregion

// #region client

// Client calls an Ollama-compatible chat API over HTTP JSON. Explicitly
// constructed and injected; no process-wide singleton.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

// defaultTimeout bounds the single attempt; there is no retry loop.
const defaultTimeout = 20 * time.Second

// NewClient creates a chat client. Empty arguments fall back to a local
// Ollama default.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

// #endregion

// #region wire-types

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// #endregion

// #region complete

// CompleteChat sends the system prompt plus history and returns the
// generated text.
func (c *Client) CompleteChat(ctx context.Context, system string, history []Message) (string, error) {
	messages := make([]Message, 0, len(history)+1)
	if system != "" {
		messages = append(messages, Message{Role: "system", Content: system})
	}
	messages = append(messages, history...)

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return decoded.Message.Content, nil
}

// #endregion

// #region fallback

// CompleteOrFallback returns fallback when the completer is nil or the
// single attempt fails. Chat failure is never a request failure.
func CompleteOrFallback(ctx context.Context, c Completer, system string, history []Message, fallback string) string {
	if c == nil {
		return fallback
	}
	text, err := c.CompleteChat(ctx, system, history)
	if err != nil {
		log.Printf("[CHAT] completion failed, using fallback: %v", err)
		return fallback
	}
	if text == "" {
		return fallback
	}
	return text
}

// #endregion
