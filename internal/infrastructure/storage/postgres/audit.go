package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/klauspost/compress/zstd"

	"github.com/saeidmoini/salehi-panel/internal/domain/audit"
)

const auditTable = "audit_log"

// Changes payloads above this size are stored zstd-compressed.
const auditCompressThreshold = 4 * 1024

// AuditRecorder persists audit entries to the audit_log table.
type AuditRecorder struct {
	txm     *TxManager
	builder sq.StatementBuilderType
	encoder *zstd.Encoder
}

var _ audit.Recorder = (*AuditRecorder)(nil)

// NewAuditRecorder creates an audit recorder.
func NewAuditRecorder(txm *TxManager) (*AuditRecorder, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &AuditRecorder{
		txm:     txm,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		encoder: encoder,
	}, nil
}

// Record writes one audit row. When the entry is written inside a service
// transaction it commits or rolls back with it.
func (r *AuditRecorder) Record(ctx context.Context, entry audit.Entry) error {
	changes, compressed, err := r.encodeChanges(entry.Changes)
	if err != nil {
		return fmt.Errorf("encode audit changes: %w", err)
	}

	query, args, err := r.builder.
		Insert(auditTable).
		Columns("entity_type", "entity_id", "action", "company_id",
			"user_id", "username", "changes", "changes_compressed", "created_at").
		Values(entry.EntityType, entry.EntityID, string(entry.Action), entry.CompanyID,
			nullableID(entry.UserID), entry.Username, changes, compressed, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRecorder) encodeChanges(changes any) ([]byte, bool, error) {
	if changes == nil {
		return nil, false, nil
	}
	raw, err := json.Marshal(changes)
	if err != nil {
		return nil, false, err
	}
	if len(raw) < auditCompressThreshold {
		return raw, false, nil
	}
	return r.encoder.EncodeAll(raw, nil), true, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
