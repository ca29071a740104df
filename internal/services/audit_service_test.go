package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/autodetail/internal/auditctx"
	"github.com/charlesng35/autodetail/internal/models"
)

func TestAuditServiceLogAndList(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)
	account := createTestAccount(t, db, "auditor@example.com", models.RoleAdmin)

	ctx := context.Background()
	require.NoError(t, svc.Log(ctx, AuditEntry{
		AccountID: &account.ID,
		Email:     "Auditor@Example.com",
		Action:    "admin.user.update",
		Resource:  "users",
		Result:    "success",
		Metadata:  map[string]any{"target_id": "abc"},
	}))
	require.Error(t, svc.Log(ctx, AuditEntry{Result: "success"}))

	logs, total, err := svc.List(ctx, AuditListOptions{Page: 1, PageSize: 10, Filters: AuditFilters{Email: "auditor@example.com"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "auditor@example.com", logs[0].Email)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal(logs[0].Metadata, &metadata))
	require.Equal(t, "abc", metadata["target_id"])
}

func TestRecordAuditUsesRequestActor(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	ctx := auditctx.WithActor(context.Background(), auditctx.Actor{IPAddress: "203.0.113.7", UserAgent: "test-agent"})
	recordAudit(svc, ctx, AuditEntry{Action: "auth.login", Result: "failure", Email: "x@example.com"})
	recordAudit(nil, ctx, AuditEntry{Action: "ignored", Result: "success"})

	logs, _, err := svc.List(ctx, AuditListOptions{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "203.0.113.7", logs[0].IPAddress)
	require.Equal(t, "test-agent", logs[0].UserAgent)
}

func TestAuditServiceCleanupOlderThan(t *testing.T) {
	db := openServiceTestDB(t)
	now := time.Now()
	svc, err := NewAuditService(db, WithAuditClock(func() time.Time { return now }))
	require.NoError(t, err)

	old := models.AuditLog{Action: "old", Result: "success", CreatedAt: now.AddDate(0, 0, -100)}
	fresh := models.AuditLog{Action: "fresh", Result: "success", CreatedAt: now}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	removed, err := svc.CleanupOlderThan(context.Background(), 90)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	_, err = svc.CleanupOlderThan(context.Background(), 0)
	require.Error(t, err)
}
