package inmemdb

import (
	"sync"

	"github.com/pratik071103/case-link-share/core/casefile"
	"github.com/pratik071103/case-link-share/core/session"
	"github.com/pratik071103/case-link-share/core/skill"
)

type (
	// DB keeps every table in memory. Meant for DEV and tests.
	DB struct {
		cases    *caseTables
		sessions *sessionTables
	}

	caseTables struct {
		sync.RWMutex
		children map[string]*casefile.Child
		records  map[string]*casefile.CaseRecord // keyed by child ID
		sections map[string]*casefile.Section
		coach    map[string]*casefile.CoachDetails // keyed by case record ID
	}

	sessionTables struct {
		sync.RWMutex
		sessions map[string]*session.Record
		entries  map[string]skill.Entries // keyed by session ID
	}
)

func Open() *DB {
	return &DB{
		cases: &caseTables{
			children: make(map[string]*casefile.Child),
			records:  make(map[string]*casefile.CaseRecord),
			sections: make(map[string]*casefile.Section),
			coach:    make(map[string]*casefile.CoachDetails),
		},
		sessions: &sessionTables{
			sessions: make(map[string]*session.Record),
			entries:  make(map[string]skill.Entries),
		},
	}
}
