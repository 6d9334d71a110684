package filter

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/clock"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// anyValue explicitly leaves an enum axis unconstrained.
const anyValue = "ANY"

// sortFields maps the accepted sort names to store fields.
var sortFields = map[string]store.Field{
	"deadline":    store.FieldDeadline,
	"title":       store.FieldTitle,
	"priority":    store.FieldPriority,
	"status":      store.FieldStatus,
	"completedat": store.FieldCompletedAt,
	"createdat":   store.FieldCreatedAt,
}

// Normalize validates p and resolves it against clk.
//
// Malformed enums, identifiers, sort and paging values are rejected with an
// error wrapping domain.ErrInvalidInput. Malformed dates are not: the bound
// falls back to MinDeadline or MaxDeadline and a warning is logged.
func Normalize(ctx context.Context, p Params, clk *clock.Clock) (Spec, error) {
	spec := DefaultSpec()
	var err error

	if spec.Status, err = parseEnum(p.Status, domain.ParseTaskStatus); err != nil {
		return Spec{}, domain.NewValidationError("status", err.Error())
	}
	if spec.Priority, err = parseEnum(p.Priority, domain.ParsePriority); err != nil {
		return Spec{}, domain.NewValidationError("priority", err.Error())
	}
	if spec.OpportunityID, err = parseID(p.OpportunityID); err != nil {
		return Spec{}, domain.NewValidationError("opportunityId", "must be a UUID")
	}
	if spec.AssigneeID, err = parseID(p.AssignedUserID); err != nil {
		return Spec{}, domain.NewValidationError("assignedUserId", "must be a UUID")
	}
	if spec.UnassignedOnly, err = parseFlag(p.Unassigned); err != nil {
		return Spec{}, domain.NewValidationError("unassigned", "must be true or false")
	}
	if spec.UnassignedOnly && spec.AssigneeID.Valid {
		return Spec{}, domain.NewValidationError("unassigned", "cannot be combined with assignedUserId")
	}
	if spec.Archived, err = parseArchived(p.Archived); err != nil {
		return Spec{}, domain.NewValidationError("archived", "must be true, false or any")
	}

	spec.DeadlineFrom = parseBound(ctx, clk, "deadlineFrom", p.DeadlineFrom, MinDeadline, clk.StartOfDay)
	spec.DeadlineTo = parseBound(ctx, clk, "deadlineTo", p.DeadlineTo, MaxDeadline, clk.EndOfDay)
	spec.Query = strings.TrimSpace(p.Query)

	if spec.Sort, err = ParseSort(p.Sort); err != nil {
		return Spec{}, err
	}
	if spec.Page, err = parsePage(p.Page, p.Size); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// ParseSort reads "field" or "field,direction". An empty value yields
// store.DefaultSort; the direction defaults to descending.
func ParseSort(s string) (store.Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return store.DefaultSort, nil
	}

	name, dir, _ := strings.Cut(s, ",")
	field, ok := sortFields[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return store.Sort{}, domain.NewValidationError("sort", "unsupported sort field "+strconv.Quote(name))
	}

	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "desc":
		return store.Sort{Field: field, Desc: true}, nil
	case "asc":
		return store.Sort{Field: field}, nil
	default:
		return store.Sort{}, domain.NewValidationError("sort", "direction must be asc or desc")
	}
}

func parseEnum[T any](s string, parse func(string) (T, error)) (*T, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, anyValue) {
		return nil, nil
	}
	v, err := parse(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseID(s string) (uuid.NullUUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

func parseFlag(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

func parseArchived(s string) (ArchivedScope, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, anyValue) {
		return ArchivedAny, nil
	}
	only, err := parseFlag(s)
	if err != nil {
		return ArchivedExclude, err
	}
	if only {
		return ArchivedOnly, nil
	}
	return ArchivedExclude, nil
}

// parseBound reads one end of the deadline range. A date without a time
// covers the whole zone-local day through widen.
func parseBound(
	ctx context.Context,
	clk *clock.Clock,
	name, raw string,
	fallback time.Time,
	widen func(time.Time) time.Time,
) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	t, dateOnly, err := clk.ParseLocal(raw)
	if err != nil {
		logger.FromContext(ctx).Warn("unparseable filter date, using sentinel bound",
			slog.String("param", name),
			slog.String("value", raw),
			slog.Time("bound", fallback))
		return &fallback
	}
	if dateOnly {
		t = widen(t)
	}
	return &t
}

func parsePage(page, size string) (store.Page, error) {
	p := store.Page{Size: DefaultPageSize}

	if s := strings.TrimSpace(page); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return store.Page{}, domain.NewValidationError("page", "must be a non-negative integer")
		}
		if n > MaxPageNumber {
			return store.Page{}, domain.NewValidationError("page", "is out of range")
		}
		p.Number = n
	}

	if s := strings.TrimSpace(size); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return store.Page{}, domain.NewValidationError("size", "must be a positive integer")
		}
		p.Size = min(n, MaxPageSize)
	}
	return p, nil
}
