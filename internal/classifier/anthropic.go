package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
)

const anthropicVersion = "2023-06-01"

// instructionPrompt pins the model to the ticket enums and a bare JSON
// object reply.
const instructionPrompt = `You are a support ticket classification assistant. Your job is to analyze a support ticket description and suggest:
1. A category (one of: billing, technical, account, general)
2. A priority level (one of: low, medium, high, critical)

Category definitions:
- billing: Payment issues, invoices, refunds, pricing questions
- technical: Software bugs, errors, performance issues, integration problems
- account: Login issues, password resets, account settings, permissions
- general: Questions, feedback, feature requests, other inquiries

Priority definitions:
- low: Minor issues, questions, non-urgent requests
- medium: Standard issues affecting single user, workarounds available
- high: Significant issues affecting multiple users or business operations
- critical: System down, data loss, security issues, blocking all users

You must respond with ONLY a valid JSON object in this exact format:
{
  "category": "one of: billing, technical, account, general",
  "priority": "one of: low, medium, high, critical"
}

Do not include any explanation, markdown formatting, or additional text. Only return the JSON object.`

// AnthropicClassifier calls the Anthropic messages API with
// deterministic sampling. One request per call; failures collapse to
// ErrUnavailable.
type AnthropicClassifier struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
	logger    *zap.Logger
}

// NewAnthropic builds the classifier from config. When no API key is
// configured the disabled stand-in is returned instead.
func NewAnthropic(cfg config.ClassifierConfig, logger *zap.Logger) Classifier {
	if cfg.APIKey == "" {
		logger.Warn("CLASSIFIER_API_KEY not configured; classification disabled")
		return NewDisabled()
	}
	return &AnthropicClassifier{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: cfg.Timeout()},
		logger:    logger,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Classify sends one prompt and validates the JSON reply against the
// ticket enums.
func (a *AnthropicClassifier) Classify(ctx context.Context, description string) (*domain.Suggestion, error) {
	if strings.TrimSpace(description) == "" {
		return nil, errors.Join(ErrUnavailable, errors.New("empty description"))
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: 0,
		Messages: []anthropicMessage{
			{Role: "user", Content: instructionPrompt + "\n\nTicket description:\n" + description},
		},
	})
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("classifier request failed", zap.Error(err))
		return nil, errors.Join(ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		a.logger.Error("classifier backend error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return nil, errors.Join(ErrUnavailable, fmt.Errorf("backend status %d", resp.StatusCode))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	if len(parsed.Content) == 0 {
		return nil, errors.Join(ErrUnavailable, errors.New("empty model reply"))
	}

	suggestion, err := parseSuggestion(parsed.Content[0].Text)
	if err != nil {
		a.logger.Error("classifier reply rejected",
			zap.String("reply", parsed.Content[0].Text),
			zap.Error(err))
		return nil, err
	}

	a.logger.Info("ticket classified",
		zap.String("category", string(suggestion.Category)),
		zap.String("priority", string(suggestion.Priority)))
	return suggestion, nil
}
