package sqlstore

import (
	"fmt"
	"strings"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

const taskColumns = `id, title, description, deadline, priority, status, type,
	completed_at, archived, opportunity_id, assigned_user_id, created_at, updated_at`

// taskFilterColumns is the allow-list of filterable task columns.
var taskFilterColumns = map[store.Field]string{
	store.FieldStatus:      "status",
	store.FieldPriority:    "priority",
	store.FieldOpportunity: "opportunity_id",
	store.FieldAssignee:    "assigned_user_id",
	store.FieldArchived:    "archived",
	store.FieldDeadline:    "deadline",
	store.FieldTitle:       "title",
	store.FieldCompletedAt: "completed_at",
	store.FieldCreatedAt:   "created_at",
}

// taskSortExprs is the allow-list of sort expressions. Enum columns sort by
// their declared order rather than alphabetically.
var taskSortExprs = map[store.Field]string{
	store.FieldDeadline:    "deadline",
	store.FieldTitle:       "LOWER(title)",
	store.FieldPriority:    rankExpr("priority", domain.Priorities),
	store.FieldStatus:      rankExpr("status", domain.TaskStatuses),
	store.FieldCompletedAt: "completed_at",
	store.FieldCreatedAt:   "created_at",
}

func rankExpr[T ~string](column string, values []T) string {
	var b strings.Builder
	b.WriteString("CASE " + column)
	for i, v := range values {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", string(v), i+1)
	}
	b.WriteString(" END")
	return b.String()
}

// likeEscaper escapes LIKE wildcards in user input.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildWhere renders the conjunction of preds. Every predicate is rendered
// through the column allow-list; values are always bound as arguments.
func buildWhere(preds []store.Predicate) (string, []any, error) {
	if len(preds) == 0 {
		return "", nil, nil
	}

	conditions := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		col, ok := taskFilterColumns[p.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: field %q", store.ErrUnsupportedPredicate, p.Field)
		}

		switch p.Op {
		case store.OpEq:
			if err := wantArgs(p, 1); err != nil {
				return "", nil, err
			}
			conditions = append(conditions, col+" = ?")
			args = append(args, p.Args[0])
		case store.OpIn, store.OpNotIn:
			if len(p.Args) == 0 {
				// An empty IN matches nothing; an empty NOT IN matches everything.
				if p.Op == store.OpIn {
					conditions = append(conditions, "1 = 0")
				}
				continue
			}
			op := " IN ("
			if p.Op == store.OpNotIn {
				op = " NOT IN ("
			}
			conditions = append(conditions, col+op+placeholders(len(p.Args))+")")
			args = append(args, p.Args...)
		case store.OpIsNull:
			conditions = append(conditions, col+" IS NULL")
		case store.OpNotNull:
			conditions = append(conditions, col+" IS NOT NULL")
		case store.OpBetween:
			if err := wantArgs(p, 2); err != nil {
				return "", nil, err
			}
			conditions = append(conditions, col+" >= ? AND "+col+" <= ?")
			args = append(args, p.Args[0], p.Args[1])
		case store.OpBefore, store.OpAfter, store.OpAtMost:
			if err := wantArgs(p, 1); err != nil {
				return "", nil, err
			}
			cmp := map[store.Op]string{store.OpBefore: " < ?", store.OpAfter: " > ?", store.OpAtMost: " <= ?"}[p.Op]
			conditions = append(conditions, col+cmp)
			args = append(args, p.Args[0])
		case store.OpContainsFold:
			if err := wantArgs(p, 1); err != nil {
				return "", nil, err
			}
			s, ok := p.Args[0].(string)
			if !ok {
				return "", nil, fmt.Errorf("%w: %s expects a string", store.ErrUnsupportedPredicate, p.Field)
			}
			conditions = append(conditions, "LOWER("+col+`) LIKE ? ESCAPE '\'`)
			args = append(args, "%"+likeEscaper.Replace(strings.ToLower(s))+"%")
		default:
			return "", nil, fmt.Errorf("%w: operator %d", store.ErrUnsupportedPredicate, p.Op)
		}
	}

	if len(conditions) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

// buildOrderBy renders s through the sort allow-list. Rows with a NULL sort
// key always come last, and id breaks ties so pages are stable.
func buildOrderBy(s store.Sort) (string, error) {
	if s.Field == "" {
		s = store.DefaultSort
	}
	expr, ok := taskSortExprs[s.Field]
	if !ok {
		return "", fmt.Errorf("%w: sort field %q", store.ErrUnsupportedPredicate, s.Field)
	}
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	order := fmt.Sprintf(" ORDER BY %s %s, id ASC", expr, direction)
	if s.Field == store.FieldCompletedAt {
		order = fmt.Sprintf(" ORDER BY (completed_at IS NULL) ASC, %s %s, id ASC", expr, direction)
	}
	return order, nil
}

func wantArgs(p store.Predicate, n int) error {
	if len(p.Args) != n {
		return fmt.Errorf("%w: %s expects %d argument(s), got %d",
			store.ErrUnsupportedPredicate, p.Field, n, len(p.Args))
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
