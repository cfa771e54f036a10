package briefing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dpup/prefab/logging"
	openai "github.com/sashabaranov/go-openai"

	"github.com/atlascommand/chaincontrol/server/internal/lib/chaincontrol"
	"github.com/atlascommand/chaincontrol/server/internal/metrics"
)

const maxActions = 4

// openAIWriter drafts briefings with a chat completion using structured output
type openAIWriter struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

// NewWriter creates a Writer backed by OpenAI that falls back to the template
// when the model fails. Without an API key only the template is used.
func NewWriter(apiKey, model string) Writer {
	if apiKey == "" {
		return NewTemplateWriter()
	}
	return NewWriterWithClient(openai.NewClient(apiKey), model)
}

// NewWriterWithClient is NewWriter with a preconfigured client
func NewWriterWithClient(client *openai.Client, model string) Writer {
	return &fallbackWriter{
		primary:  &openAIWriter{client: client, model: model, now: time.Now},
		fallback: NewTemplateWriter(),
	}
}

// Draft asks the model for a briefing
func (w *openAIWriter) Draft(ctx context.Context, req BriefingRequest) (Briefing, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return Briefing{}, fmt.Errorf("failed to marshal briefing request: %w", err)
	}

	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: w.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Write the briefing for this route:\n\n" + string(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type:       openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &BriefingSchema,
		},
		Temperature: 0.2,
		MaxTokens:   600,
	})
	if err != nil {
		return Briefing{}, fmt.Errorf("%w: OpenAI API error: %w", ErrBriefingUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return Briefing{}, fmt.Errorf("%w: no response from OpenAI API", ErrBriefingUnavailable)
	}

	var drafted struct {
		Headline string   `json:"headline"`
		Body     string   `json:"body"`
		Actions  []string `json:"actions"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &drafted); err != nil {
		return Briefing{}, fmt.Errorf("%w: failed to parse OpenAI JSON response: %w", ErrBriefingUnavailable, err)
	}
	if strings.TrimSpace(drafted.Headline) == "" || strings.TrimSpace(drafted.Body) == "" {
		return Briefing{}, fmt.Errorf("%w: empty briefing from OpenAI", ErrBriefingUnavailable)
	}

	actions := drafted.Actions
	if len(actions) > maxActions {
		actions = actions[:maxActions]
	}
	if len(actions) == 0 {
		actions = templateActions(req.Alerts)
	}

	return Briefing{
		Headline:    strings.TrimSpace(drafted.Headline),
		Body:        strings.TrimSpace(drafted.Body),
		Actions:     actions,
		Level:       chaincontrol.HighestLevel(req.Alerts).Code,
		Source:      SourceOpenAI,
		GeneratedAt: w.now(),
	}, nil
}

// fallbackWriter uses the template whenever the primary writer fails
type fallbackWriter struct {
	primary  Writer
	fallback Writer
}

func (w *fallbackWriter) Draft(ctx context.Context, req BriefingRequest) (Briefing, error) {
	b, err := w.primary.Draft(ctx, req)
	if err == nil {
		metrics.BriefingsDrafted.WithLabelValues(b.Source).Inc()
		return b, nil
	}
	logging.Warnw(ctx, "Briefing draft failed, using template", "route", req.RouteName, "error", err)
	return w.fallback.Draft(ctx, req)
}
