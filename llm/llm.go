// Package llm turns natural-language task descriptions into pipeline
// configuration documents via an OpenAI-compatible chat API.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"qt-visual-agent/pipeline"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

var (
	config *Config
	client *openai.Client
)

func Init(cfg *Config) {
	config = cfg
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	client = openai.NewClientWithConfig(cc)
}

const (
	maxRetries   = 3
	initialDelay = 1 * time.Second
)

const systemPrompt = `You translate UI automation tasks into a JSON pipeline document.

The document is a JSON object. Keys starting with "$" are metadata
("$comment", "$description", "$resource_base"); every other key names a node:

{
  "node_name": {
    "recognition": "DirectHit" | "TemplateMatch" | "ColorMatch",
    "template": ["file.png"],          // TemplateMatch: image paths
    "threshold": 0.7,                  // TemplateMatch: score in [0, 1]
    "roi": [x, y, w, h],               // optional search region
    "lower": [h, s, v],                // ColorMatch bounds
    "upper": [h, s, v],
    "count": 1,                        // ColorMatch minimum pixel count
    "action": "Click" | "Swipe" | "InputText" | "Wait" | "LongPress" | "DoNothing",
    "target": true | [x, y],           // true clicks the matched box center
    "input_text": "...",               // InputText payload
    "duration": 200,                   // Swipe/Wait/LongPress milliseconds
    "next": ["successor_node"],
    "timeout": 20000                   // recognition budget in milliseconds
  }
}

Rules:
- Reply with the JSON document only. No prose, no code fences.
- Every name in "next" must be a node in the document.
- Nodes without "next" end the pipeline.`

// GeneratePipeline asks the model for a pipeline document implementing the
// described task. The reply is validated through the regular config parser
// before being returned, so callers only ever see loadable documents.
func GeneratePipeline(ctx context.Context, task string) ([]byte, error) {
	if config == nil || client == nil {
		return nil, fmt.Errorf("LLM client not initialized")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	req := openai.ChatCompletionRequest{
		Model: config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: task},
		},
		Temperature: 0.1,
		MaxTokens:   2000,
	}

	// Retry logic with exponential backoff
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(initialDelay) * (1.5 * float64(attempt)))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no choices in API response")
			continue
		}

		doc := []byte(stripFences(resp.Choices[0].Message.Content))
		if _, err := pipeline.Parse(doc); err != nil {
			lastErr = fmt.Errorf("model produced an invalid document: %w", err)
			continue
		}
		return doc, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %v", maxRetries, lastErr)
}

// stripFences removes a surrounding markdown code fence, if the model added
// one despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
