// Package audit appends AuditRecord entries for every mutating operation.
// Audit writes are best-effort except for purge and import, where the
// caller must treat a write failure as fatal per spec.
package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/store"
)

// Log appends AuditRecord entries to the store.
type Log struct {
	store store.Store
}

// New creates a Log backed by s.
func New(s store.Store) *Log {
	return &Log{store: s}
}

// Entry describes one record to append, independent of how it is persisted.
type Entry struct {
	TenantID     string
	Module       string
	Action       string
	ParentPath   string
	DocID        string
	UserID       string
	FriendlyName string
	Notes        string
	Metadata     map[string]interface{}
}

func auditPath(tenantID, id string) string {
	return fmt.Sprintf("clients/%s/auditLog/%s", tenantID, id)
}

// Record appends e. A failure is logged and swallowed: callers in §4.E–§4.K
// treat audit failures as non-fatal. Use RecordFatal for purge/import.
func (l *Log) Record(ctx context.Context, e Entry) {
	if err := l.write(ctx, e); err != nil {
		log.Error().Err(err).
			Str("tenant_id", e.TenantID).
			Str("module", e.Module).
			Str("action", e.Action).
			Msg("audit: write failed, continuing")
	}
}

// RecordFatal appends e and returns the error if the write fails, for
// purge and import where an audit failure must abort the operation.
func (l *Log) RecordFatal(ctx context.Context, e Entry) error {
	return l.write(ctx, e)
}

func (l *Log) write(ctx context.Context, e Entry) error {
	id := uuid.NewString()
	data := map[string]interface{}{
		"tenantId":     e.TenantID,
		"module":       e.Module,
		"action":       e.Action,
		"parentPath":   e.ParentPath,
		"docId":        e.DocID,
		"userId":       e.UserID,
		"friendlyName": e.FriendlyName,
		"notes":        e.Notes,
		"timestamp":    store.ServerTimestamp(),
	}
	if e.Metadata != nil {
		data["metadata"] = e.Metadata
	}
	return l.store.Set(ctx, auditPath(e.TenantID, id), data)
}

// ToDomain is a convenience converter for report/read endpoints that want
// a typed domain.AuditRecord instead of the raw store.Doc map.
func ToDomain(tenantID string, doc store.Doc) domain.AuditRecord {
	data := doc.Data
	rec := domain.AuditRecord{
		TenantID: tenantID,
	}
	if v, ok := data["module"].(string); ok {
		rec.Module = v
	}
	if v, ok := data["action"].(string); ok {
		rec.Action = v
	}
	if v, ok := data["parentPath"].(string); ok {
		rec.ParentPath = v
	}
	if v, ok := data["docId"].(string); ok {
		rec.DocID = v
	}
	if v, ok := data["userId"].(string); ok {
		rec.UserID = v
	}
	if v, ok := data["friendlyName"].(string); ok {
		rec.FriendlyName = v
	}
	if v, ok := data["notes"].(string); ok {
		rec.Notes = v
	}
	if v, ok := data["metadata"].(map[string]interface{}); ok {
		rec.Metadata = v
	}
	return rec
}
