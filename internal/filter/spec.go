package filter

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// Paging limits.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPageNumber keeps Number*Size within int for every accepted size.
	MaxPageNumber = math.MaxInt / MaxPageSize
)

// Sentinel bounds used in place of an unparseable date.
var (
	MinDeadline = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxDeadline = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

// ArchivedScope selects tasks by their archived flag.
type ArchivedScope int

// Archived scopes. The zero value lists active tasks only.
const (
	ArchivedExclude ArchivedScope = iota
	ArchivedOnly
	ArchivedAny
)

// Params are the raw listing parameters as received from a caller. Every
// field is optional.
type Params struct {
	Status         string
	Priority       string
	OpportunityID  string
	AssignedUserID string
	Unassigned     string
	Archived       string
	DeadlineFrom   string
	DeadlineTo     string
	Query          string
	Sort           string
	Page           string
	Size           string
}

// Spec is the normalized form of Params. A nil pointer or invalid NullUUID
// leaves its axis unconstrained.
type Spec struct {
	Status         *domain.TaskStatus
	Priority       *domain.Priority
	OpportunityID  uuid.NullUUID
	AssigneeID     uuid.NullUUID
	UnassignedOnly bool
	Archived       ArchivedScope
	DeadlineFrom   *time.Time
	DeadlineTo     *time.Time
	Query          string
	Sort           store.Sort
	Page           store.Page
}

// DefaultSpec returns a Spec with every axis unconstrained except the
// archived axis, which excludes archived tasks.
func DefaultSpec() Spec {
	return Spec{
		Sort: store.DefaultSort,
		Page: store.Page{Size: DefaultPageSize},
	}
}
