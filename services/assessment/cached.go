package assessment

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/session"
	"github.com/pratik071103/case-link-share/core/taxonomy"
	"github.com/pratik071103/case-link-share/storage/cache"
)

const DefaultCacheTTL = 5 * time.Minute

// CachedProvider keeps each user's assessment for a while and shares concurrent fetches
// of the same user.
type CachedProvider struct {
	next   Provider
	cache  cache.Cache
	ttl    time.Duration
	logger core.Logger
	group  singleflight.Group
}

var (
	_ Provider               = (*CachedProvider)(nil)
	_ session.TaxonomySource = (*CachedProvider)(nil)
)

func NewCachedProvider(next Provider, c cache.Cache, ttl time.Duration, logger core.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &CachedProvider{next: next, cache: c, ttl: ttl, logger: logger}
}

func cacheKey(email string) string {
	return "assessment:" + email
}

func (p *CachedProvider) LoadUserAssessment(ctx context.Context, email string) (Result, error) {
	email = core.CleanString(email, true)
	key := cacheKey(email)

	var res Result
	ok, err := p.cache.Get(ctx, key, &res)
	if err != nil {
		p.logger.Warn("reading cached assessment failed", err, map[string]interface{}{"email": email})
	}
	if ok {
		return res, nil
	}

	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		res, err := p.next.LoadUserAssessment(ctx, email)
		if err != nil {
			return Result{}, err
		}
		if err := p.cache.Set(ctx, key, res, p.ttl); err != nil {
			p.logger.Warn("caching assessment failed", err, map[string]interface{}{"email": email})
		}
		return res, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// Taxonomy returns the grouped skills of the user with that email.
func (p *CachedProvider) Taxonomy(ctx context.Context, email string) (taxonomy.Taxonomy, error) {
	res, err := p.LoadUserAssessment(ctx, email)
	if err != nil {
		return nil, err
	}
	return res.Skills, nil
}
