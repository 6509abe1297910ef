package analyst

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"
)

// ClientConfig holds the model client settings.
type ClientConfig struct {
	APIKey string
	Model  string
	Retry  RetryConfig
	// RequestsPerSecond caps the outbound call rate across both services.
	RequestsPerSecond float64
	Burst             int
}

// DefaultClientConfig returns the production client settings.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Model:             "claude-3-5-haiku-latest",
		Retry:             DefaultRetryConfig(),
		RequestsPerSecond: 2,
		Burst:             4,
	}
}

// Client is the Anthropic-backed Analyst and Summarizer.
type Client struct {
	client  anthropic.Client
	model   string
	retry   RetryConfig
	breaker *breaker
	limiter *rate.Limiter
}

// NewClient creates a model client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		client:  anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:   cfg.Model,
		retry:   cfg.Retry,
		breaker: newBreaker(cfg.Retry),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// complete runs one rate-limited, retried completion and returns the text.
func (c *Client) complete(ctx context.Context, operation, prompt string, maxTokens int64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%s rate limit wait: %w", operation, err)
	}

	var response *anthropic.Message
	err := retryWithBackoff(ctx, c.retry, c.breaker, operation, func(attemptCtx context.Context) error {
		resp, apiErr := c.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", err
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

// Analyze implements Analyst.
func (c *Client) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	prompt := buildAnalysisPrompt(req)
	text, err := c.complete(ctx, "analyze", prompt, 1024)
	if err != nil {
		return nil, fmt.Errorf("analysis call failed: %w", err)
	}

	var a Analysis
	if err := parseJSON(text, &a); err != nil {
		return nil, fmt.Errorf("analysis response unparseable: %w", err)
	}
	a.Scores.Clamp()
	return &a, nil
}

// Summarize implements Summarizer.
func (c *Client) Summarize(ctx context.Context, layered string) (*StreamSummary, error) {
	prompt := buildSummaryPrompt(layered)
	text, err := c.complete(ctx, "summarize", prompt, 1024)
	if err != nil {
		return nil, fmt.Errorf("summary call failed: %w", err)
	}

	var s StreamSummary
	if err := parseJSON(text, &s); err != nil {
		return nil, fmt.Errorf("summary response unparseable: %w", err)
	}
	return &s, nil
}

// SummarizeBatch implements Summarizer for narrative compression.
func (c *Client) SummarizeBatch(ctx context.Context, texts []string) (string, error) {
	prompt := fmt.Sprintf(
		"Compress the following stream events into ONE short past-tense sentence. Reply with the sentence only.\n\n%s",
		strings.Join(texts, "\n"))
	text, err := c.complete(ctx, "compress", prompt, 256)
	if err != nil {
		return "", fmt.Errorf("compression call failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func buildAnalysisPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are scoring one event from a live stream for an autonomous co-host.\n")
	if req.Context != "" {
		fmt.Fprintf(&b, "Current stream context: %s\n", req.Context)
	}
	if req.Username != "" {
		fmt.Fprintf(&b, "Speaker: %s\n", req.Username)
	}
	fmt.Fprintf(&b, "Event: %q\n\n", req.Text)
	b.WriteString(`Reply with JSON only:
{
  "scores": {
    "interestingness": 0.0,
    "urgency": 0.0,
    "conversational_value": 0.0,
    "emotional_intensity": 0.0,
    "topic_relevance": 0.0
  },
  "sentiment": "one of: ecstatic, excited, positive, happy, neutral, negative, annoyed, frustrated, angry, scared",
  "summary": "one sentence worth remembering, or empty",
  "user_facts": ["durable facts learned about the speaker, if any"]
}`)
	return b.String()
}

func buildSummaryPrompt(layered string) string {
	return fmt.Sprintf(`You are the situational awareness of an autonomous stream co-host.
Here are the recent events, layered newest to oldest:

%s

Reply with JSON only:
{
  "summary": "2-3 sentences on what is happening right now",
  "prediction": "one sentence on what is likely to happen next",
  "conversation_state": "one of: idle, engaged, frustrated, celebratory, storytelling",
  "topics": ["current topics"],
  "entities": ["people, games, or things in play"]
}`, layered)
}
