package domain

// Suggestion is an LLM-proposed category/priority pair for a ticket
// description. Both values are guaranteed to be members of their enums
// by the time a Suggestion leaves the classifier.
type Suggestion struct {
	Category TicketCategory
	Priority TicketPriority
}
