package service

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spec-kit/triage-service/internal/classifier"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/repository"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// TicketService coordinates ticket workflows and classification.
type TicketService struct {
	tickets    repository.TicketRepository
	classifier classifier.Classifier
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Classifier classifier.Classifier
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
}

// TicketUpdateInput describes a partial update. Nil fields are left
// untouched; at least one must be set.
type TicketUpdateInput struct {
	Category *domain.TicketCategory
	Priority *domain.TicketPriority
	Status   *domain.TicketStatus
}

// TicketListFilter describes listing filters; all are conjunctive.
type TicketListFilter struct {
	Category   *domain.TicketCategory
	Priority   *domain.TicketPriority
	Status     *domain.TicketStatus
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		classifier: deps.Classifier,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket validates and persists a new ticket. Status always
// starts at open.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	fieldErrors := map[string]any{}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		fieldErrors["title"] = "title cannot be empty"
	} else if utf8.RuneCountInString(title) > domain.TitleMaxLength {
		fieldErrors["title"] = "title cannot exceed 200 characters"
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		fieldErrors["description"] = "description cannot be empty"
	}

	if !input.Category.Valid() {
		fieldErrors["category"] = "category must be one of: billing, technical, account, general"
	}
	if !input.Priority.Valid() {
		fieldErrors["priority"] = "priority must be one of: low, medium, high, critical"
	}

	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket payload", fieldErrors)
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Category:    input.Category,
		Priority:    input.Priority,
		Status:      domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Category: ticket.Category,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets newest-first with conjunctive filters.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Category:   filter.Category,
		Priority:   filter.Priority,
		Status:     filter.Status,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// GetTicket loads a single ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// UpdateTicket merges the provided fields into an existing ticket.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	update := repository.TicketUpdate{
		Category: input.Category,
		Priority: input.Priority,
		Status:   input.Status,
	}
	if update.IsEmpty() {
		return nil, apperrors.NewValidationError("at least one field must be provided for update", nil)
	}

	fieldErrors := map[string]any{}
	if input.Category != nil && !input.Category.Valid() {
		fieldErrors["category"] = "category must be one of: billing, technical, account, general"
	}
	if input.Priority != nil && !input.Priority.Valid() {
		fieldErrors["priority"] = "priority must be one of: low, medium, high, critical"
	}
	if input.Status != nil && !input.Status.Valid() {
		fieldErrors["status"] = "status must be one of: open, in_progress, resolved, closed"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid update payload", fieldErrors)
	}

	ticket, err := s.tickets.UpdateFields(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Payload: events.TicketUpdatedPayload{
			Category: input.Category,
			Priority: input.Priority,
			Status:   input.Status,
		},
	})
	return ticket, nil
}

// Stats assembles aggregate counts from grouped repository queries.
func (s *TicketService) Stats(ctx context.Context) (*domain.TicketStats, error) {
	agg, err := s.tickets.Aggregates(ctx)
	if err != nil {
		return nil, err
	}
	return statsFromAggregates(agg, time.Now().UTC()), nil
}

// Classify suggests category/priority for a description. Any backend
// failure surfaces as classifier.ErrUnavailable.
func (s *TicketService) Classify(ctx context.Context, description string) (*domain.Suggestion, error) {
	if strings.TrimSpace(description) == "" {
		return nil, apperrors.NewValidationError("invalid classify payload", map[string]any{
			"description": "description cannot be empty",
		})
	}

	suggestion, err := s.classifier.Classify(ctx, strings.TrimSpace(description))
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type: events.EventTicketClassified,
		Payload: events.TicketClassifiedPayload{
			SuggestedCategory: suggestion.Category,
			SuggestedPriority: suggestion.Priority,
		},
	})
	return suggestion, nil
}

// statsFromAggregates turns raw grouped counts into the stats payload,
// zero-filling breakdowns and computing the daily average as
// total / max(days since earliest ticket, 1) rounded to one decimal.
func statsFromAggregates(agg *repository.TicketAggregates, now time.Time) *domain.TicketStats {
	stats := &domain.TicketStats{
		TotalTickets:      agg.Total,
		OpenTickets:       agg.Open,
		PriorityBreakdown: make(map[domain.TicketPriority]int64, len(domain.TicketPriorities)),
		CategoryBreakdown: make(map[domain.TicketCategory]int64, len(domain.TicketCategories)),
	}

	for _, priority := range domain.TicketPriorities {
		stats.PriorityBreakdown[priority] = agg.ByPriority[priority]
	}
	for _, category := range domain.TicketCategories {
		stats.CategoryBreakdown[category] = agg.ByCategory[category]
	}

	if agg.Total > 0 && agg.EarliestCreated != nil {
		days := int64(now.Sub(*agg.EarliestCreated).Hours() / 24)
		if days < 1 {
			days = 1
		}
		stats.AvgTicketsPerDay = math.Round(float64(agg.Total)/float64(days)*10) / 10
	}
	return stats
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
