package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketCategoryValid(t *testing.T) {
	for _, category := range TicketCategories {
		assert.True(t, category.Valid(), string(category))
	}
	assert.False(t, TicketCategory("").Valid())
	assert.False(t, TicketCategory("sales").Valid())
	assert.False(t, TicketCategory("Billing").Valid())
}

func TestTicketPriorityValid(t *testing.T) {
	for _, priority := range TicketPriorities {
		assert.True(t, priority.Valid(), string(priority))
	}
	assert.False(t, TicketPriority("").Valid())
	assert.False(t, TicketPriority("urgent").Valid())
	assert.False(t, TicketPriority("HIGH").Valid())
}

func TestTicketStatusValid(t *testing.T) {
	for _, status := range []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed} {
		assert.True(t, status.Valid(), string(status))
	}
	assert.False(t, TicketStatus("").Valid())
	assert.False(t, TicketStatus("cancelled").Valid())
}
