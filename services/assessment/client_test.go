package assessment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/storage/cache"
)

const providerBody = `{
  "status": 200,
  "data": {
    "user": {"name": "Jane", "parentName": "John", "ageGroup": "6-8", "gender": "F"},
    "activities": [
      {"key": "a1", "name": "Tower", "activity_type": "expert activity", "level": 2, "level_score": 3,
       "fTarget": "4 times", "fTargetValue": "4 times", "iTargetValue": 5, "sTargetValue": "x",
       "skill": {"name": "Focus"}, "indicator": {"name": "Sustained"}},
      {"key": "a2", "name": "Puzzle", "activity_type": "home activity",
       "skill": {"name": "Focus"}, "indicator": {"name": "Sustained"}},
      {"key": "a3", "name": "Beads", "activity_type": "expert activity",
       "indicator": {"name": "Fine"}}
    ]
  }
}`

func providerServer(t *testing.T, status int, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "jane@example.com", r.FormValue("email"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(providerBody))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string) *Client {
	return NewClient(core.AssessmentConfig{URL: url, Timeout: time.Second}, nil)
}

func TestClient_LoadUserAssessment(t *testing.T) {
	srv := providerServer(t, http.StatusOK, nil)

	res, err := newTestClient(srv.URL).LoadUserAssessment(context.Background(), "jane@example.com")
	require.NoError(t, err)

	require.NotNil(t, res.User)
	assert.Equal(t, "John", res.User.ParentName)
	assert.Equal(t, 3, res.RawActivitiesCount)
	assert.Equal(t, 2, res.ExpertActivitiesCount)

	require.Len(t, res.Skills, 2)
	assert.Equal(t, "Focus", res.Skills[0].Name)
	assert.Equal(t, "Unknown Skill", res.Skills[1].Name)

	tower := res.Skills[0].Indicators[0].Activities[0]
	assert.Equal(t, "Tower", tower.Name)
	assert.Equal(t, 3, tower.LevelScore)
	assert.Equal(t, 4.0, tower.FTargetValue)
	assert.Equal(t, 5.0, tower.ITargetValue)
	assert.Equal(t, 0.0, tower.STargetValue)
}

func TestClient_LoadUserAssessment_providerError(t *testing.T) {
	srv := providerServer(t, http.StatusBadGateway, nil)

	_, err := newTestClient(srv.URL).LoadUserAssessment(context.Background(), "jane@example.com")
	pErr, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, pErr.StatusCode)
}

func TestClient_LoadUserAssessment_unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := newTestClient(srv.URL).LoadUserAssessment(context.Background(), "jane@example.com")
	require.Error(t, err)
	_, ok := AsProviderError(err)
	assert.False(t, ok)
	assert.True(t, IsUnreachable(err))
	assert.Contains(t, err.Error(), "calling assessment provider")
}

func TestClient_LoadUserAssessment_timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := NewClient(core.AssessmentConfig{URL: srv.URL, Timeout: 20 * time.Millisecond}, nil)
	_, err := c.LoadUserAssessment(context.Background(), "jane@example.com")
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
}

func TestClient_LoadUserAssessment_badBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	t.Cleanup(srv.Close)

	_, err := newTestClient(srv.URL).LoadUserAssessment(context.Background(), "jane@example.com")
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.Contains(t, err.Error(), "decoding assessment response")
}

func TestCachedProvider(t *testing.T) {
	var hits int32
	srv := providerServer(t, http.StatusOK, &hits)
	p := NewCachedProvider(newTestClient(srv.URL), cache.NewMemory(), time.Minute, nil)
	ctx := context.Background()

	first, err := p.LoadUserAssessment(ctx, " Jane@example.com ")
	require.NoError(t, err)
	tax, err := p.Taxonomy(ctx, "jane@example.com")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, first.Skills, tax)
}

type failingProvider struct{ calls int32 }

func (f *failingProvider) LoadUserAssessment(context.Context, string) (Result, error) {
	atomic.AddInt32(&f.calls, 1)
	return Result{}, errors.WithStack(&ProviderError{StatusCode: http.StatusNotFound})
}

func TestCachedProvider_errorsAreNotCached(t *testing.T) {
	next := &failingProvider{}
	p := NewCachedProvider(next, cache.NewMemory(), time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := p.Taxonomy(ctx, "jane@example.com")
		pErr, ok := AsProviderError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, pErr.StatusCode)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&next.calls))
}
