// Package extract is the gateway to the language model that flags event-like
// messages and pulls out their raw attribute fields.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"chatcal/internal/models"
)

const defaultModel = "gpt-4o-mini"

// Extractor produces an event candidate from a chat message. The boolean is
// the event gate: when false the message carries no schedulable event and the
// candidate is meaningless.
type Extractor interface {
	Extract(ctx context.Context, msg models.Message, now time.Time) (models.EventCandidate, bool, error)
}

// OpenAIExtractor calls a chat-completion model with a fixed system prompt.
type OpenAIExtractor struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIExtractor builds the extractor. Extra request options are passed
// through to the client, which lets tests point it at a local server.
func NewOpenAIExtractor(apiKey, model string, logger *slog.Logger, opts ...option.RequestOption) *OpenAIExtractor {
	if model == "" {
		model = defaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIExtractor{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

// Extract sends the message to the model and parses its JSON verdict.
func (e *OpenAIExtractor) Extract(ctx context.Context, msg models.Message, now time.Time) (models.EventCandidate, bool, error) {
	payload := fmt.Sprintf(
		"Current date: %s (%s)\nChannel: %s\nSender: %s\nMessage: %s",
		now.Format("2006-01-02"), now.Weekday(), msg.Channel, msg.Sender, msg.Text,
	)

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(payload),
		},
	})
	if err != nil {
		return models.EventCandidate{}, false, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.EventCandidate{}, false, fmt.Errorf("chat completion returned no choices")
	}

	e.logger.Debug("Extraction response received.", "message_id", msg.ID)
	return parseResponse(resp.Choices[0].Message.Content)
}

// response mirrors the JSON contract in the system prompt.
type response struct {
	IsEvent     bool   `json:"is_event"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// parseResponse decodes the model output. Models occasionally ignore the
// no-fences rule, so anything around the outermost JSON object is discarded.
func parseResponse(content string) (models.EventCandidate, bool, error) {
	trimmed := strings.TrimSpace(content)
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			trimmed = trimmed[start : end+1]
		}
	}

	var r response
	if err := json.Unmarshal([]byte(trimmed), &r); err != nil {
		return models.EventCandidate{}, false, fmt.Errorf("unparseable extraction response: %w", err)
	}
	if !r.IsEvent {
		return models.EventCandidate{}, false, nil
	}
	return models.EventCandidate{
		Title:       r.Title,
		DatePhrase:  r.Date,
		TimePhrase:  r.Time,
		Location:    r.Location,
		Description: r.Description,
	}, true, nil
}
