// Package audit records operator mutations for later review.
package audit

import (
	"context"
	"fmt"

	appctx "github.com/saeidmoini/salehi-panel/internal/core/context"
	"github.com/saeidmoini/salehi-panel/pkg/logger"
)

// Action is the kind of audited operation.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionOverride Action = "override"
	ActionAdjust   Action = "adjust"
)

// Entry is one audited mutation. Changes is serialized (and compressed when
// large) by the storage layer.
type Entry struct {
	EntityType string
	EntityID   string
	Action     Action
	CompanyID  int64
	UserID     int64
	Username   string
	Changes    any
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Record fills user fields from context and writes the entry best-effort:
// audit failures are logged and never fail the audited operation.
func Record(ctx context.Context, rec Recorder, entityType string, entityID any, action Action, companyID int64, changes any) {
	if rec == nil {
		return
	}
	entry := Entry{
		EntityType: entityType,
		EntityID:   fmt.Sprintf("%v", entityID),
		Action:     action,
		CompanyID:  companyID,
		Changes:    changes,
	}
	if user := appctx.GetUser(ctx); user != nil {
		entry.UserID = user.UserID
		entry.Username = user.Username
	}
	if err := rec.Record(ctx, entry); err != nil {
		logger.Warn(ctx, "audit record failed",
			"entity_type", entityType,
			"action", string(action),
			"error", err,
		)
	}
}
