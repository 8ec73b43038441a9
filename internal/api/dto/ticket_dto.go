package dto

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest is a partial update; absent fields stay nil.
type UpdateTicketRequest struct {
	Category *domain.TicketCategory `json:"category"`
	Priority *domain.TicketPriority `json:"priority"`
	Status   *domain.TicketStatus   `json:"status"`
}

// TicketResponse mirrors the stored ticket.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
}

// StatsResponse carries aggregate counts, zero-filled across enums.
type StatsResponse struct {
	TotalTickets      int64                           `json:"total_tickets"`
	OpenTickets       int64                           `json:"open_tickets"`
	AvgTicketsPerDay  float64                         `json:"avg_tickets_per_day"`
	PriorityBreakdown map[domain.TicketPriority]int64 `json:"priority_breakdown"`
	CategoryBreakdown map[domain.TicketCategory]int64 `json:"category_breakdown"`
}
