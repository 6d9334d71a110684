package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/filter"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
)

// HandleAPIError writes the response for err: status from its category,
// a safe message, and a redacted log line. fallback replaces the generic
// message for 5xx responses when non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status >= http.StatusInternalServerError && fallback != "" {
		msg = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}

// requirePrincipal returns the authenticated principal or writes a 401.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*domain.Principal, bool) {
	p := shared.PrincipalFrom(r.Context())
	if p == nil || p.UserID == uuid.Nil {
		logger.FromContext(r.Context()).Warn("principal not found in request context")
		HandleAPIError(w, r, domain.ErrUnauthenticated, "")
		return nil, false
	}
	return p, true
}

// getPathUUID parses the named chi path parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format")
	}
	return id, nil
}

// handlePrincipalAndPathUUID resolves both the principal and a path UUID,
// writing the error response if either fails.
func handlePrincipalAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (*domain.Principal, uuid.UUID, bool) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return nil, uuid.Nil, false
	}
	id, err := getPathUUID(r, paramName)
	if err != nil {
		log.Debug("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return nil, uuid.Nil, false
	}
	return p, id, true
}

// listParams reads the task listing query string. Every parameter is optional.
func listParams(r *http.Request) filter.Params {
	q := r.URL.Query()
	return filter.Params{
		Status:         q.Get("status"),
		Priority:       q.Get("priority"),
		OpportunityID:  q.Get("opportunity_id"),
		AssignedUserID: q.Get("assigned_user_id"),
		Unassigned:     q.Get("unassigned"),
		Archived:       q.Get("archived"),
		DeadlineFrom:   q.Get("deadline_from"),
		DeadlineTo:     q.Get("deadline_to"),
		Query:          q.Get("q"),
		Sort:           q.Get("sort"),
		Page:           q.Get("page"),
		Size:           q.Get("size"),
	}
}
