package session_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/session"
	"github.com/pratik071103/case-link-share/core/skill"
	"github.com/pratik071103/case-link-share/storage/database/inmem"
	"github.com/pratik071103/case-link-share/tests"
)

const childID = "child-1"

func setup() (*session.Service, session.Repository) {
	repo := inmemdb.NewSessionRepository(inmemdb.Open())
	return session.NewService(repo), repo
}

func TestService_NextNumber(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()

	no, err := svc.NextNumber(ctx, childID)
	require.NoError(t, err)
	assert.Equal(t, 1, no)

	testutil.CreateSession(t, repo, childID, 1, "2024-01-01")
	testutil.CreateSession(t, repo, childID, 4, "2024-01-08")
	testutil.CreateSession(t, repo, "other-child", 9, "2024-01-08")

	no, err = svc.NextNumber(ctx, childID)
	require.NoError(t, err)
	assert.Equal(t, 5, no)
}

func TestService_Create_defaults(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	rec, err := svc.Create(ctx, childID, session.NewRecord{})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.SessionNo)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), rec.SessionDate)
	assert.Equal(t, session.DefaultType, rec.SessionType)
	assert.False(t, rec.Attendance.Valid)

	rec2, err := svc.Create(ctx, childID, session.NewRecord{SessionDate: "2024-03-02", Attendance: session.AttendanceLate})
	require.NoError(t, err)
	assert.Equal(t, 2, rec2.SessionNo)
	assert.Equal(t, "2024-03-02", rec2.SessionDate)
	assert.Equal(t, session.AttendanceLate, rec2.Attendance.String)

	_, err = svc.Create(ctx, childID, session.NewRecord{SessionNo: 2})
	require.Error(t, err)
	_, ok := errors.Cause(err).(*core.ValidationError)
	assert.True(t, ok)
}

func TestService_List_ordered(t *testing.T) {
	svc, repo := setup()
	testutil.CreateSession(t, repo, childID, 3, "2024-01-15")
	testutil.CreateSession(t, repo, childID, 1, "2024-01-01")
	testutil.CreateSession(t, repo, childID, 2, "2024-01-08")

	recs, err := svc.List(context.Background(), childID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, r := range recs {
		assert.Equal(t, i+1, r.SessionNo)
	}
}

func TestService_Update(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()
	rec := testutil.CreateSession(t, repo, childID, 1, "2024-01-01")

	tests := []struct {
		name    string
		patch   session.Patch
		wantErr bool
		check   func(t *testing.T, r session.Record)
	}{
		{
			name:  "attendance and links",
			patch: session.Patch{"attendance": json.RawMessage(`"present"`), "session_link_url": json.RawMessage(`"https://meet/x"`)},
			check: func(t *testing.T, r session.Record) {
				assert.Equal(t, "present", r.Attendance.String)
				assert.Equal(t, "https://meet/x", r.SessionLinkURL.String)
			},
		},
		{
			name:  "clear attendance",
			patch: session.Patch{"attendance": json.RawMessage(`null`)},
			check: func(t *testing.T, r session.Record) {
				assert.False(t, r.Attendance.Valid)
			},
		},
		{
			name:    "bad attendance",
			patch:   session.Patch{"attendance": json.RawMessage(`"sick"`)},
			wantErr: true,
		},
		{
			name:    "bad date",
			patch:   session.Patch{"session_date": json.RawMessage(`"02/01/2024"`)},
			wantErr: true,
		},
		{
			name:    "read-only session number",
			patch:   session.Patch{"session_no": json.RawMessage(`7`)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Update(ctx, rec.ID, tt.patch)
			if tt.wantErr {
				require.Error(t, err)
				_, ok := errors.Cause(err).(*core.ValidationError)
				assert.True(t, ok)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}

	_, err := svc.Update(ctx, "missing", session.Patch{})
	assert.True(t, core.IsNotFound(err))
}

func TestService_ReplaceEntries(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()
	rec := testutil.CreateSession(t, repo, childID, 1, "2024-01-01")
	testutil.CreateEntries(t, repo, rec.ID, "A", "B", "C")

	var entries skill.Entries
	entries = entries.Add(false).Add(true)
	entries[0].SkillName = "X"
	entries[1].SkillName = "Y"
	entries[1].SkillOrder = 7
	require.NoError(t, svc.ReplaceEntries(ctx, rec.ID, entries))

	got, err := svc.ListEntries(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "X", got[0].SkillName)
	assert.Equal(t, 0, got[0].SkillOrder)
	assert.Equal(t, "Y", got[1].SkillName)
	assert.Equal(t, 1, got[1].SkillOrder)
	assert.True(t, got[0].TargetCutoff.Valid, "calculated fields are stored")
	assert.Equal(t, rec.ID, got[1].SessionID)
}

func TestService_Delete(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()
	rec := testutil.CreateSession(t, repo, childID, 1, "2024-01-01")
	testutil.CreateEntries(t, repo, rec.ID, "A")

	require.NoError(t, svc.Delete(ctx, rec.ID))
	_, err := svc.Get(ctx, rec.ID)
	assert.Equal(t, session.ErrNotFound, errors.Cause(err))
	assert.True(t, core.IsNotFound(svc.Delete(ctx, rec.ID)))
}
