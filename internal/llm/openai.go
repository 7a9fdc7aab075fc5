package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Message represents a chat message
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart represents a part of message content (text or image)
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents an image URL in the message
type ImageURL struct {
	URL string `json:"url"`
}

// textMessage is a chat message with plain string content.
type textMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the chat completions request structure
type ChatRequest struct {
	Model       string   `json:"model"`
	Messages    any      `json:"messages"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// ChatResponse represents the chat completions response structure
type ChatResponse struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice represents a single completion choice
type Choice struct {
	Message      Delta  `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// Delta represents the message of a choice
type Delta struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// openAIShape speaks the chat completions protocol.
type openAIShape struct{}

func (openAIShape) Name() string { return "openai" }

func (openAIShape) URL(baseURL, _ string) string {
	return strings.TrimSuffix(baseURL, "/") + "/v1/chat/completions"
}

func (openAIShape) ImageRequest(model, prompt string, img encodedImage, gen generationSettings) any {
	temperature := gen.Temperature
	return ChatRequest{
		Model: model,
		Messages: []Message{{
			Role: "user",
			Content: []ContentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &ImageURL{URL: img.DataURL()}},
			},
		}},
		Temperature: &temperature,
		MaxTokens:   gen.MaxTokens,
	}
}

func (openAIShape) PingRequest(model, prompt string) any {
	return ChatRequest{
		Model:    model,
		Messages: []textMessage{{Role: "user", Content: prompt}},
	}
}

func (openAIShape) ParseText(body []byte) (string, error) {
	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode chat completions response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
