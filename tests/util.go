package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/pratik071103/case-link-share/core/casefile"
	"github.com/pratik071103/case-link-share/core/session"
	"github.com/pratik071103/case-link-share/core/skill"
)

func CreateCase(t *testing.T, repo casefile.Repository, name string, createdAt ...time.Time) casefile.Case {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	child := casefile.Child{
		Name:      name,
		CaseSlug:  casefile.GenerateSlug(name),
		CreatedAt: tstamp,
	}
	c, err := repo.CreateCase(context.Background(), child, casefile.CaseRecord{CreatedAt: tstamp, UpdatedAt: tstamp})
	if err != nil {
		t.Fatalf("CreateCase() failed: %v", err)
	}
	return c
}

func CreateSection(t *testing.T, repo casefile.Repository, caseRecordID, key string, data map[string]interface{}) casefile.Section {
	t.Helper()
	s, err := repo.InsertSection(context.Background(), casefile.Section{
		CaseRecordID: caseRecordID,
		Key:          key,
		Data:         data,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	return s
}

func CreateSession(t *testing.T, repo session.Repository, childID string, no int, date string) session.Record {
	t.Helper()
	now := time.Now().UTC()
	rec, err := repo.Create(context.Background(), session.Record{
		ChildID:     childID,
		SessionNo:   no,
		SessionDate: date,
		SessionType: session.DefaultType,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return rec
}

func CreateEntries(t *testing.T, repo session.Repository, sessionID string, names ...string) skill.Entries {
	t.Helper()
	var entries skill.Entries
	for _, name := range names {
		entries = entries.Add(false)
		entries[len(entries)-1].SkillName = name
	}
	if err := repo.ReplaceEntries(context.Background(), sessionID, entries); err != nil {
		t.Fatalf("CreateEntries() failed: %v", err)
	}
	stored, err := repo.ListEntries(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("CreateEntries() failed: %v", err)
	}
	return stored
}
