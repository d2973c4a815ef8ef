// Package openai implements the analysis.Analyzer contract on top of the
// OpenAI chat-completions API. The payload returned to the core is the raw
// JSON object produced by the model; the core never interprets it.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const maxTokens = 2048

const systemPrompt = `You are a fashion style analyst for an online storefront.
Given a subject (a photographed outfit or a catalog item), respond with a single JSON object:
{"style_tags": [..], "similar_items": [{"id": "...", "score": 0..1}, ..], "scores": {"formality": 0..1, "versatility": 0..1, "seasonality": 0..1}}
Respond with JSON only.`

// Client calls the OpenAI API for style analysis.
type Client struct {
	*openai.Client
	Model string
}

// NewClient constructs a Client for the given API key and model.
func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// AnalyzeImage analyzes a user-uploaded image reference.
func (c *Client) AnalyzeImage(ctx context.Context, imageRef string) (json.RawMessage, error) {
	return c.complete(ctx, fmt.Sprintf("Analyze the style of the outfit in this image: %s", imageRef))
}

// AnalyzeCatalogItem analyzes a catalog item by id.
func (c *Client) AnalyzeCatalogItem(ctx context.Context, itemID string) (json.RawMessage, error) {
	return c.complete(ctx, fmt.Sprintf("Analyze the style of catalog item %q and list similar items.", itemID))
}

func (c *Client) complete(ctx context.Context, userPrompt string) (json.RawMessage, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	// Reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens instead of MaxTokens.
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty completion response")
	}

	content := resp.Choices[0].Message.Content
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("model returned non-JSON payload")
	}
	return json.RawMessage(content), nil
}
