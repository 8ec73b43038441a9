package domain

import "time"

// TicketCategory enumerates the support areas a ticket can belong to.
type TicketCategory string

const (
	TicketCategoryBilling   TicketCategory = "billing"
	TicketCategoryTechnical TicketCategory = "technical"
	TicketCategoryAccount   TicketCategory = "account"
	TicketCategoryGeneral   TicketCategory = "general"
)

// TicketCategories lists every valid category in breakdown order.
var TicketCategories = []TicketCategory{
	TicketCategoryBilling,
	TicketCategoryTechnical,
	TicketCategoryAccount,
	TicketCategoryGeneral,
}

// Valid reports whether the category is one of the fixed values.
func (c TicketCategory) Valid() bool {
	switch c {
	case TicketCategoryBilling, TicketCategoryTechnical, TicketCategoryAccount, TicketCategoryGeneral:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// TicketPriorities lists every valid priority in breakdown order.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityCritical,
}

// Valid reports whether the priority is one of the fixed values.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether the status is one of the fixed values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TitleMaxLength bounds ticket titles at both the API and storage layer.
const TitleMaxLength = 200

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Category    TicketCategory
	Priority    TicketPriority
	Status      TicketStatus
	CreatedAt   time.Time
}

// TicketStats carries the aggregate counts served by the stats endpoint.
// Breakdown maps are zero-filled across the full enum value sets.
type TicketStats struct {
	TotalTickets      int64
	OpenTickets       int64
	AvgTicketsPerDay  float64
	PriorityBreakdown map[TicketPriority]int64
	CategoryBreakdown map[TicketCategory]int64
}
