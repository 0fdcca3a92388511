// Package analysis provides sentiment analyzers for ticket drafts.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/domain"
)

const systemPrompt = `You classify customer support tickets for a fitness studio.
Reply with a JSON object: {"sentiment": "positive"|"neutral"|"negative", "tags": [up to 5 short lowercase tags], "summary": one sentence}.`

// Analyzer is implemented by every sentiment source.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.SentimentRequest) (*domain.SentimentResult, error)
}

// OpenAIAnalyzer asks a chat completion model for sentiment.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
}

// NewOpenAIAnalyzer builds the analyzer from configuration.
func NewOpenAIAnalyzer(cfg config.AnalyzerConfig) *OpenAIAnalyzer {
	clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout()}
	model := cfg.OpenAIModel
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIAnalyzer{client: openai.NewClientWithConfig(clientCfg), model: model}
}

// Analyze classifies the ticket.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, req domain.SentimentRequest) (*domain.SentimentResult, error) {
	user := fmt.Sprintf("Title: %s\nDescription: %s\nClient mood: %s", req.Title, req.Description, req.ClientMood)
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		MaxTokens:      200,
		Temperature:    0,
	})
	if err != nil {
		return nil, fmt.Errorf("openai analyze: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai analyze: no choices returned")
	}
	return parseResult(resp.Choices[0].Message.Content)
}

func parseResult(content string) (*domain.SentimentResult, error) {
	var out domain.SentimentResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	out.Sentiment = strings.ToLower(strings.TrimSpace(out.Sentiment))
	switch out.Sentiment {
	case "positive", "neutral", "negative":
	default:
		return nil, fmt.Errorf("unexpected sentiment %q", out.Sentiment)
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return &out, nil
}

// Chain tries analyzers in order and returns the first result.
type Chain []Analyzer

// Analyze returns the first successful result or the joined errors.
func (c Chain) Analyze(ctx context.Context, req domain.SentimentRequest) (*domain.SentimentResult, error) {
	var errs []error
	for _, a := range c {
		if a == nil {
			continue
		}
		res, err := a.Analyze(ctx, req)
		if err == nil && res != nil {
			return res, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no analyzer configured")
	}
	return nil, errors.Join(errs...)
}
