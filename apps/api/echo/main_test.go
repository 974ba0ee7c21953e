package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/pratik071103/case-link-share/apps/api/echo"
	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/casefile"
	"github.com/pratik071103/case-link-share/core/caserecord"
	"github.com/pratik071103/case-link-share/core/session"
	"github.com/pratik071103/case-link-share/core/taxonomy"
	"github.com/pratik071103/case-link-share/services/assessment"
	"github.com/pratik071103/case-link-share/storage/database/inmem"
)

var (
	caseRepo casefile.Repository
	sessRepo session.Repository
	registry *caserecord.Registry
	provider *fakeProvider
	app      *echoapi.Server
)

// offlineEmail is routed to a real client whose provider host is gone.
const offlineEmail = "offline@caselink.test"

// fakeProvider serves assessments from memory; unknown emails get a 404 from "upstream".
type fakeProvider struct {
	mu      sync.Mutex
	results map[string]assessment.Result
	offline assessment.Provider
}

func (p *fakeProvider) set(email string, res assessment.Result) {
	p.mu.Lock()
	p.results[email] = res
	p.mu.Unlock()
}

func (p *fakeProvider) LoadUserAssessment(ctx context.Context, email string) (assessment.Result, error) {
	email = strings.ToLower(email)
	if email == offlineEmail {
		return p.offline.LoadUserAssessment(ctx, email)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	res, ok := p.results[email]
	if !ok {
		return assessment.Result{}, &assessment.ProviderError{StatusCode: http.StatusNotFound}
	}
	return res, nil
}

func (p *fakeProvider) Taxonomy(ctx context.Context, email string) (taxonomy.Taxonomy, error) {
	res, err := p.LoadUserAssessment(ctx, email)
	if err != nil {
		return nil, err
	}
	return res.Skills, nil
}

func TestMain(m *testing.M) {
	// set up DB & repos
	db := inmemdb.Open()
	caseRepo = inmemdb.NewCaseFileRepository(db)
	sessRepo = inmemdb.NewSessionRepository(db)

	// set up services
	caseSvc := casefile.NewService(caseRepo)
	sessSvc := session.NewService(sessRepo)
	gone := httptest.NewServer(http.NotFoundHandler())
	gone.Close()
	provider = &fakeProvider{
		results: make(map[string]assessment.Result),
		offline: assessment.NewClient(core.AssessmentConfig{URL: gone.URL, Timeout: time.Second}, nil),
	}
	registry = caserecord.NewDepsRegistry(
		caserecord.Deps{Cases: caseSvc, Sessions: sessSvc, Source: provider},
		caserecord.Options{FieldDelay: time.Hour, SectionDelay: time.Hour, SessionDelay: time.Hour, Logger: core.NopLogger{}},
		time.Hour,
	)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	casefile.InitValidators(validate, translator)
	session.InitValidators(validate, translator)

	// set up server
	conf := &core.Config{TestMode: true}
	conf.Server.AllowedOrigins = []string{"*"}
	app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         core.NopLogger{},
		DisableReqLogs: true,
		CaseSvc:        caseSvc,
		SessionSvc:     sessSvc,
		Registry:       registry,
		Assessment:     provider,
		Validate:       validate,
		Translator:     translator,
	})

	// run tests
	code := m.Run()

	// clean up
	_ = registry.Shutdown(context.Background())
	os.Exit(code)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

// do serves the request and returns the recorder.
func do(method, path string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newRequest(method, path, data...)
	app.ServeHTTP(rec, req)
	return rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("unmarshall(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(tt.method, tt.path, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestHome(t *testing.T) {
	rec := do(http.MethodGet, "/")
	if rec.Code != http.StatusOK || rec.Body.String() != "Welcome to CaseLink API!" {
		t.Errorf("home() = %d %q", rec.Code, rec.Body.String())
	}
}
