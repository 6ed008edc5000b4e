package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mfotel "github.com/Strob0t/MenuForge/internal/adapter/otel"
	"github.com/Strob0t/MenuForge/internal/domain"
	"github.com/Strob0t/MenuForge/internal/domain/audit"
	"github.com/Strob0t/MenuForge/internal/logger"
	"github.com/Strob0t/MenuForge/internal/port/database"
	"github.com/Strob0t/MenuForge/internal/port/messagequeue"
)

// AuditRecorder appends audit rows. Audit is best effort: a failed write is
// rolled back to its own savepoint, logged and counted, and never rolls back
// the mutation it describes. This differs from QR generation, whose failure
// is reported to the caller as a warning on the result.
type AuditRecorder struct {
	log     *slog.Logger
	metrics *mfotel.Metrics
	now     func() time.Time
}

// NewAuditRecorder creates an AuditRecorder.
func NewAuditRecorder(log *slog.Logger, metrics *mfotel.Metrics) *AuditRecorder {
	return &AuditRecorder{log: log, metrics: metrics, now: time.Now}
}

// Record appends e through store. On failure the returned log is nil and the
// error wraps domain.ErrDependencyFailure; callers may surface it as a
// warning but must not abort because of it.
func (r *AuditRecorder) Record(ctx context.Context, store database.Store, e audit.Entry) (*audit.Log, error) {
	l := &audit.Log{
		ID:          newID(),
		TenantID:    e.TenantID,
		ActorUserID: e.ActorUserID,
		Action:      e.Action,
		Entity:      e.Entity,
		EntityID:    e.EntityID,
		CreatedAt:   r.now().UTC(),
	}
	if len(e.Payload) > 0 {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, r.fail(ctx, e, fmt.Errorf("marshal payload: %w", err))
		}
		l.Payload = payload
	}

	err := store.InTx(ctx, func(tx database.Store) error {
		return tx.AppendAudit(ctx, l)
	})
	if err != nil {
		return nil, r.fail(ctx, e, err)
	}
	return l, nil
}

func (r *AuditRecorder) fail(ctx context.Context, e audit.Entry, err error) error {
	logger.FromContext(ctx, r.log).Warn("audit write skipped",
		"action", e.Action, "entity", e.Entity, "entity_id", e.EntityID, "error", err)
	mfotel.Count(ctx, r.metrics.AuditFailures, "action", string(e.Action))
	return fmt.Errorf("audit %s %s: %w: %w", e.Action, e.EntityID, domain.ErrDependencyFailure, err)
}

// List returns the newest audit rows of a tenant.
func (r *AuditRecorder) List(ctx context.Context, store database.Store, tenantID string, limit int) ([]audit.Log, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("list audit: %w: tenant is required", domain.ErrValidation)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return store.ListAudit(ctx, tenantID, limit)
}

func auditEvent(l *audit.Log) messagequeue.AuditPayload {
	return messagequeue.AuditPayload{
		ID:          l.ID,
		TenantID:    l.TenantID,
		ActorUserID: l.ActorUserID,
		Action:      string(l.Action),
		Entity:      l.Entity,
		EntityID:    l.EntityID,
		CreatedAt:   l.CreatedAt,
	}
}
