package sqlstore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// OpportunityStore implements store.OpportunityStore on sqlx.
type OpportunityStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewOpportunityStore creates an OpportunityStore.
func NewOpportunityStore(db store.DBTX, logger *slog.Logger) *OpportunityStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpportunityStore{
		db:     db,
		logger: logger.With(slog.String("component", "opportunity_store")),
	}
}

var _ store.OpportunityStore = (*OpportunityStore)(nil)

// WithTx implements store.OpportunityStore.WithTx.
func (s *OpportunityStore) WithTx(tx *sqlx.Tx) store.OpportunityStore {
	return &OpportunityStore{db: tx, logger: s.logger}
}

// Create implements store.OpportunityStore.Create.
func (s *OpportunityStore) Create(ctx context.Context, opp *domain.Opportunity) error {
	query := s.db.Rebind(`INSERT INTO opportunities (id, title, status, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, opp.ID, opp.Title, opp.Status, opp.CreatedAt.UTC()); err != nil {
		return store.NewStoreError("opportunity", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID implements store.OpportunityStore.GetByID.
func (s *OpportunityStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	var opp domain.Opportunity
	query := s.db.Rebind(`SELECT id, title, status, created_at FROM opportunities WHERE id = ?`)
	if err := s.db.GetContext(ctx, &opp, query, id); err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrNotFound) {
			return nil, store.ErrOpportunityNotFound
		}
		return nil, store.NewStoreError("opportunity", "get", "select failed", mapped)
	}
	opp.CreatedAt = opp.CreatedAt.UTC()
	return &opp, nil
}

// UpdateStatus implements store.OpportunityStore.UpdateStatus.
func (s *OpportunityStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OpportunityStatus) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE opportunities SET status = ? WHERE id = ?`), status, id)
	if err != nil {
		return store.NewStoreError("opportunity", "update", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrOpportunityNotFound)
}
