// Package assessment talks to the external assessment provider that owns the skill taxonomy of a user.
package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/taxonomy"
)

type (
	// User is the assessed child, as the provider describes them.
	User struct {
		Name       string `json:"name"`
		ParentName string `json:"parentName"`
		AgeGroup   string `json:"ageGroup"`
		Gender     string `json:"gender"`
	}

	// Result is a user's assessment with expert activities grouped by skill and indicator.
	Result struct {
		User                  *User             `json:"user"`
		Skills                taxonomy.Taxonomy `json:"skills"`
		RawActivitiesCount    int               `json:"rawActivitiesCount"`
		ExpertActivitiesCount int               `json:"expertActivitiesCount"`
	}

	response struct {
		Status int `json:"status"`
		Data   struct {
			Activities []taxonomy.RawActivity `json:"activities"`
			User       *User                  `json:"user"`
		} `json:"data"`
	}
)

// ProviderError is a non-success answer of the provider.
type ProviderError struct {
	StatusCode int
}

func (err ProviderError) Error() string {
	return fmt.Sprintf("assessment provider returned status %d", err.StatusCode)
}

// UnreachableError is a provider call that never produced a usable answer:
// the request failed in transit, timed out or came back with a body that does not decode.
type UnreachableError struct {
	Op  string
	Err error
}

func (err *UnreachableError) Error() string {
	return err.Op + ": " + err.Err.Error()
}

func (err *UnreachableError) Unwrap() error { return err.Err }

func unreachable(op string, err error) error {
	return errors.WithStack(&UnreachableError{Op: op, Err: err})
}

// Provider loads assessments.
type Provider interface {
	LoadUserAssessment(ctx context.Context, email string) (Result, error)
}

type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
	logger  core.Logger
}

var _ Provider = (*Client)(nil)

func NewClient(conf core.AssessmentConfig, logger core.Logger) *Client {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if conf.RateLimit > 0 {
		limit = rate.Limit(conf.RateLimit)
	}
	burst := conf.Burst
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Client{
		url:     conf.URL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// LoadUserAssessment posts email to the provider and groups the returned expert activities.
func (c *Client) LoadUserAssessment(ctx context.Context, email string) (Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, unreachable("waiting for assessment rate limit", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("email", email); err != nil {
		return Result{}, errors.Wrap(err, "building assessment form")
	}
	if err := form.Close(); err != nil {
		return Result{}, errors.Wrap(err, "building assessment form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return Result{}, errors.Wrap(err, "building assessment request")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	c.logger.Debug("fetching assessment", map[string]interface{}{"email": email})
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, unreachable("calling assessment provider", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, &ProviderError{StatusCode: resp.StatusCode}
	}

	var data response
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Result{}, unreachable("decoding assessment response", err)
	}

	grouped := taxonomy.Group(data.Data.Activities)
	c.logger.Debug("assessment received", map[string]interface{}{
		"activities":        grouped.RawActivitiesCount,
		"expert_activities": grouped.ExpertActivitiesCount,
	})
	return Result{
		User:                  data.Data.User,
		Skills:                grouped.Skills,
		RawActivitiesCount:    grouped.RawActivitiesCount,
		ExpertActivitiesCount: grouped.ExpertActivitiesCount,
	}, nil
}

// IsUnreachable reports whether err is a provider call that failed before an answer was read.
func IsUnreachable(err error) bool {
	_, ok := errors.Cause(err).(*UnreachableError)
	return ok
}

// AsProviderError reports whether err is a non-success answer of the provider.
func AsProviderError(err error) (*ProviderError, bool) {
	pErr, ok := errors.Cause(err).(*ProviderError)
	return pErr, ok
}
