package dto

import "github.com/spec-kit/triage-service/internal/domain"

// ClassifyRequest payload.
type ClassifyRequest struct {
	Description string `json:"description"`
}

// ClassifyResponse is the validated suggestion pair.
type ClassifyResponse struct {
	SuggestedCategory domain.TicketCategory `json:"suggested_category"`
	SuggestedPriority domain.TicketPriority `json:"suggested_priority"`
}

// ClassifyUnavailableResponse is the fixed 503 body of the classify
// endpoint.
type ClassifyUnavailableResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}
