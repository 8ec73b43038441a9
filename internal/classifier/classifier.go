package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/spec-kit/triage-service/internal/domain"
)

// ErrUnavailable is returned for every classification failure: backend
// not configured, network error, timeout, malformed reply, or an
// out-of-enum value. Callers never see the underlying cause beyond
// wrapped context for logging.
var ErrUnavailable = errors.New("classification unavailable")

// Classifier suggests a category/priority pair for a ticket description.
// Implementations are stateless; there is no retry, caching, or backoff.
type Classifier interface {
	Classify(ctx context.Context, description string) (*domain.Suggestion, error)
}

// Disabled is the stand-in used when no classification backend is
// configured.
type Disabled struct{}

// NewDisabled returns a classifier that always reports unavailable.
func NewDisabled() Disabled {
	return Disabled{}
}

// Classify always fails with ErrUnavailable.
func (Disabled) Classify(ctx context.Context, description string) (*domain.Suggestion, error) {
	return nil, ErrUnavailable
}

// parseSuggestion decodes a model reply into a validated Suggestion.
// The reply must be a bare JSON object with in-enum category and
// priority values; markdown fencing is stripped defensively first.
func parseSuggestion(reply string) (*domain.Suggestion, error) {
	cleaned := stripFences(reply)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}

	var category domain.TicketCategory
	if err := json.Unmarshal(fields["category"], &category); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	var priority domain.TicketPriority
	if err := json.Unmarshal(fields["priority"], &priority); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}

	if !category.Valid() {
		return nil, errors.Join(ErrUnavailable, errors.New("category outside enum: "+string(category)))
	}
	if !priority.Valid() {
		return nil, errors.Join(ErrUnavailable, errors.New("priority outside enum: "+string(priority)))
	}

	return &domain.Suggestion{Category: category, Priority: priority}, nil
}

// stripFences removes a leading ``` or ```json fence and a trailing ```
// that some models wrap around JSON despite instructions.
func stripFences(reply string) string {
	cleaned := strings.TrimSpace(reply)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimPrefix(cleaned, "json")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}
