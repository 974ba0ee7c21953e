package caserecord_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/autosave"
	"github.com/pratik071103/case-link-share/core/casefile"
	"github.com/pratik071103/case-link-share/core/caserecord"
)

func newRegistry(f fixture, ttl time.Duration) (*caserecord.Registry, *int32) {
	var opens int32
	r := caserecord.NewRegistry(func(ctx context.Context, slug string) (*caserecord.Assembly, error) {
		atomic.AddInt32(&opens, 1)
		return caserecord.Open(ctx, f.deps, slug, slow)
	}, ttl, nil)
	return r, &opens
}

func TestRegistry_Get(t *testing.T) {
	f := newFixture(t)
	r, opens := newRegistry(f, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	got := make([]*caserecord.Assembly, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := r.Get(ctx, f.c.CaseSlug)
			assert.NoError(t, err)
			got[i] = a
		}(i)
	}
	wg.Wait()

	for _, a := range got[1:] {
		assert.Same(t, got[0], a)
	}
	assert.Equal(t, 1, r.Len())
	assert.LessOrEqual(t, atomic.LoadInt32(opens), int32(len(got)))

	padded, err := r.Get(ctx, " "+f.c.CaseSlug+" ")
	require.NoError(t, err)
	assert.Same(t, got[0], padded)

	_, err = r.Get(ctx, "nobody-000000")
	assert.True(t, core.IsNotFound(err))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Close(t *testing.T) {
	f := newFixture(t)
	r, _ := newRegistry(f, time.Hour)
	ctx := context.Background()

	a, err := r.Get(ctx, f.c.CaseSlug)
	require.NoError(t, err)
	assert.True(t, r.Close(f.c.CaseSlug))
	assert.False(t, r.Close(f.c.CaseSlug))

	_, err = a.UpdateSection(casefile.SectionGeneralInfo, autosave.Data{"city": "Pune"})
	assert.Equal(t, autosave.ErrClosed, err)

	b, err := r.Get(ctx, f.c.CaseSlug)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestRegistry_Sweep(t *testing.T) {
	f := newFixture(t)
	r, _ := newRegistry(f, time.Minute)
	ctx := context.Background()

	a, err := r.Get(ctx, f.c.CaseSlug)
	require.NoError(t, err)
	_, err = a.UpdateSection(casefile.SectionGeneralInfo, autosave.Data{"city": "Pune"})
	require.NoError(t, err)

	assert.Empty(t, r.Sweep(ctx, time.Now()))
	assert.Equal(t, 1, r.Len())

	f.cases.setDown(true)
	assert.Empty(t, r.Sweep(ctx, time.Now().Add(2*time.Minute)))
	assert.Equal(t, 1, r.Len())

	f.cases.setDown(false)
	retired := r.Sweep(ctx, time.Now().Add(2*time.Minute))
	assert.Equal(t, []string{f.c.CaseSlug}, retired)
	assert.Equal(t, 0, r.Len())

	s, err := f.cases.FindSection(ctx, f.c.Record.ID, casefile.SectionGeneralInfo)
	require.NoError(t, err)
	assert.Equal(t, "Pune", s.Data["city"])
}

func TestRegistry_Shutdown(t *testing.T) {
	f := newFixture(t)
	r, _ := newRegistry(f, time.Hour)
	ctx := context.Background()

	a, err := r.Get(ctx, f.c.CaseSlug)
	require.NoError(t, err)
	_, err = a.UpdateCoach(casefile.UpdateCoachDetails{CoachName: "Asha"})
	require.NoError(t, err)

	require.NoError(t, r.Shutdown(ctx))
	assert.Equal(t, 0, r.Len())

	cd, err := f.deps.Cases.GetCoachDetails(ctx, f.c.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", cd.CoachName.String)

	_, err = r.Get(ctx, f.c.CaseSlug)
	assert.True(t, core.IsShutdown(err))
}
