package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/syllabus-cli/internal/model"
	"github.com/sells-group/syllabus-cli/internal/resilience"
	"github.com/sells-group/syllabus-cli/pkg/anthropic"
)

const systemPrompt = `You extract structured data from university course syllabi.

Respond with a single JSON object and nothing else:
{
  "course": {"name": string, "professor": string, "credits": number, "grade_weights": {category: percent}, "confidence": number},
  "class_schedule": [{"day": string, "start": "HH:MM", "end": "HH:MM", "location": string, "confidence": number}],
  "office_hours": [{"day": string, "start": "HH:MM", "end": "HH:MM", "location": string, "confidence": number}],
  "assignments": [{"title": string, "due_date": "YYYY-MM-DD", "category": string, "effort_hours": number, "pages": number, "confidence": number}]
}

Rules:
- Use 24-hour times and full English weekday names.
- One class_schedule entry per weekday the class meets.
- confidence is your certainty in [0,1] that the entry is correct.
- Omit fields you cannot find. Use null for course if the document is not a syllabus.
- Never invent assignments that are not in the document.`

// AnthropicConfig tunes the model-backed extractor.
type AnthropicConfig struct {
	Model             string
	MaxTokens         int64
	RequestsPerMinute int
	Retry             resilience.RetryConfig
}

// AnthropicExtractor asks a Claude model to extract syllabus records.
type AnthropicExtractor struct {
	client  anthropic.Client
	cfg     AnthropicConfig
	limiter *rate.Limiter
}

// NewAnthropicExtractor creates an extractor. RequestsPerMinute <= 0 disables
// rate limiting.
func NewAnthropicExtractor(client anthropic.Client, cfg AnthropicConfig) *AnthropicExtractor {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	if cfg.Retry.OnRetry == nil {
		cfg.Retry.OnRetry = resilience.RetryLogger("anthropic", "extract")
	}
	return &AnthropicExtractor{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Extract implements Extractor.
func (e *AnthropicExtractor) Extract(ctx context.Context, doc Document) ([]model.StagingItem, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, eris.New("extract: document has no text")
	}

	req := anthropic.MessageRequest{
		Model:     e.cfg.Model,
		MaxTokens: e.cfg.MaxTokens,
		System:    anthropic.CachedSystem(systemPrompt),
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf("Syllabus (%s):\n\n%s", doc.SourceFileRef, doc.Text),
		}},
	}

	resp, err := resilience.DoVal(ctx, e.cfg.Retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := e.client.CreateMessage(ctx, req)
		if err != nil {
			return nil, classify(err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: anthropic")
	}
	resp.Usage.Log(e.cfg.Model, "extract")

	if resp.StopReason == "max_tokens" {
		zap.L().Warn("extract: response truncated at max tokens",
			zap.String("source_file_ref", doc.SourceFileRef),
			zap.Int64("max_tokens", e.cfg.MaxTokens),
		)
	}

	items, err := Decode([]byte(resp.Text()))
	if err != nil {
		return nil, err
	}
	zap.L().Debug("extract: decoded items",
		zap.String("source_file_ref", doc.SourceFileRef),
		zap.Int("items", len(items)),
	)
	return items, nil
}

// classify marks API errors with retryable status codes as transient.
func classify(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
		return resilience.NewTransientError(err, apiErr.StatusCode)
	}
	return err
}
