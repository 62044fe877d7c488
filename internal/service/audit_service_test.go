package service

import (
	"context"
	"testing"
	"time"

	"merchcrm/internal/errlog"
	"merchcrm/internal/model"
	"merchcrm/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuditFixture(t *testing.T) (AuditService, *fakeAuditRepo, *fakeSecurityRepo) {
	t.Helper()
	audits := &fakeAuditRepo{}
	security := &fakeSecurityRepo{}
	svc := NewAuditService(audits, security, &fakeTxManager{}, errlog.NewRecorder(security))
	return svc, audits, security
}

func TestClearAuditLogsLeavesOwnRecord(t *testing.T) {
	svc, audits, _ := newAuditFixture(t)
	ctx := context.Background()
	actorID := uuid.New()

	for i := 0; i < 5; i++ {
		require.NoError(t, audits.Log(ctx, &model.AuditLog{Action: model.ActionCreateUser}))
	}

	require.NoError(t, svc.ClearAuditLogs(ctx, actorID))

	// The wipe itself is the only entry left
	require.Len(t, audits.entries, 1)
	entry := audits.entries[0]
	assert.Equal(t, model.ActionClearAuditLogs, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, actorID, *entry.UserID)
}

func TestClearAuditLogsRollsBackIfRecordFails(t *testing.T) {
	svc, audits, _ := newAuditFixture(t)
	ctx := context.Background()

	require.NoError(t, audits.Log(ctx, &model.AuditLog{Action: model.ActionCreateUser}))

	// Snapshot hook mirrors a database rollback
	auditSvc := svc.(*auditService)
	auditSvc.tx = &fakeTxManager{snapshot: func() func() {
		entries := append([]*model.AuditLog(nil), audits.entries...)
		return func() { audits.entries = entries }
	}}
	audits.failOnLog = true
	defer func() { audits.failOnLog = false }()

	err := svc.ClearAuditLogs(ctx, uuid.New())
	require.Error(t, err)

	// Failed wipe keeps the previous entries
	assert.Len(t, audits.entries, 1)
	assert.Equal(t, model.ActionCreateUser, audits.entries[0].Action)
}

func TestClearFailedLoginsKeepsOtherEvents(t *testing.T) {
	svc, _, security := newAuditFixture(t)
	ctx := context.Background()

	security.events = []*model.SecurityEvent{
		{EventType: model.EventLoginFailed, Severity: model.SeverityWarning},
		{EventType: model.EventLoginSuccess, Severity: model.SeverityInfo},
		{EventType: model.EventLoginFailed, Severity: model.SeverityWarning},
	}

	require.NoError(t, svc.ClearFailedLogins(ctx, uuid.New()))

	require.Len(t, security.events, 1)
	assert.Equal(t, model.EventLoginSuccess, security.events[0].EventType)
}

func TestSecuritySummaryBuckets(t *testing.T) {
	svc, _, security := newAuditFixture(t)

	security.events = []*model.SecurityEvent{
		{EventType: model.EventLoginFailed, Severity: model.SeverityWarning},
		{EventType: model.EventLoginFailed, Severity: model.SeverityWarning},
		{EventType: model.EventMaintenanceToggle, Severity: model.SeverityCritical},
	}

	summary, err := svc.SecuritySummary(context.Background())
	require.NoError(t, err)

	var failed repository.EventCount
	for _, c := range summary.Counts {
		if c.EventType == model.EventLoginFailed {
			failed = c
		}
	}
	assert.EqualValues(t, 2, failed.Count)
	require.Len(t, summary.RecentCritical, 1)
	assert.Equal(t, model.EventMaintenanceToggle, summary.RecentCritical[0].EventType)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), summary.Since, time.Minute)
}
