package llm

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// generateContentRequest is the body of a models/{model}:generateContent call.
type generateContentRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generation_config,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// geminiShape speaks the generateContent protocol.
type geminiShape struct{}

func (geminiShape) Name() string { return "gemini" }

func (geminiShape) URL(baseURL, model string) string {
	return strings.TrimSuffix(baseURL, "/") + "/v1/models/" + url.PathEscape(model) + ":generateContent"
}

func (geminiShape) ImageRequest(_ string, prompt string, img encodedImage, gen generationSettings) any {
	return generateContentRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: prompt},
				{InlineData: &inlineData{MimeType: img.MimeType, Data: img.Data}},
			},
		}},
		GenerationConfig: &generationConfig{
			Temperature:     gen.Temperature,
			MaxOutputTokens: gen.MaxTokens,
		},
	}
}

func (geminiShape) PingRequest(_ string, prompt string) any {
	return generateContentRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
}

func (geminiShape) ParseText(body []byte) (string, error) {
	var resp generateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode generateContent response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
