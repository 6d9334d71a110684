package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OpportunityStatus is the sales disposition of an opportunity.
type OpportunityStatus string

// Possible opportunity status values
const (
	OpportunityInProgress OpportunityStatus = "IN_PROGRESS"
	OpportunityWon        OpportunityStatus = "WON"
	OpportunityLost       OpportunityStatus = "LOST"
)

// IsClosed reports whether the opportunity was won or lost. The comparison is
// case-insensitive since the status is owned by another component.
func (s OpportunityStatus) IsClosed() bool {
	return strings.EqualFold(string(s), string(OpportunityWon)) ||
		strings.EqualFold(string(s), string(OpportunityLost))
}

// Opportunity is the collaborator-owned sales deal a task may belong to.
type Opportunity struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	Title     string            `db:"title" json:"title"`
	Status    OpportunityStatus `db:"status" json:"status"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

// NewOpportunity creates an in-progress opportunity.
func NewOpportunity(title string, now time.Time) (*Opportunity, error) {
	o := &Opportunity{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(title),
		Status:    OpportunityInProgress,
		CreatedAt: now.UTC(),
	}
	if o.Title == "" {
		return nil, ErrEmptyTitle
	}
	return o, nil
}
