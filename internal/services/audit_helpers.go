package services

import (
	"context"

	"github.com/charlesng35/autodetail/internal/auditctx"
)

// recordAudit logs the supplied entry while tolerating audit failures. Request
// details missing from entry are taken from the actor stored in ctx.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	if actor, ok := auditctx.FromContext(ctx); ok {
		if entry.AccountID == nil && actor.AccountID != "" {
			id := actor.AccountID
			entry.AccountID = &id
		}
		if entry.Email == "" {
			entry.Email = actor.Email
		}
		if entry.IPAddress == "" {
			entry.IPAddress = actor.IPAddress
		}
		if entry.UserAgent == "" {
			entry.UserAgent = actor.UserAgent
		}
	}
	_ = audit.Log(ctx, entry)
}

func accountIDPtr(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
