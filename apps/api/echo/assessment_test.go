package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/pratik071103/case-link-share/core/taxonomy"
	"github.com/pratik071103/case-link-share/services/assessment"
)

func Test_assessmentApi_load(t *testing.T) {
	provider.set("parent@caselink.test", assessment.Result{
		User:               &assessment.User{Name: "Sam", ParentName: "Alex", AgeGroup: "8-10", Gender: "F"},
		Skills:             taxonomy.Taxonomy{{Name: "Focus", Indicators: []taxonomy.Indicator{}}},
		RawActivitiesCount: 1,
	})

	runHTTPTests(t, []httpTest{
		{
			name:     "missing email",
			method:   http.MethodPost,
			path:     "/v1/assessment",
			body:     []byte(`{"email": "  "}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "Email is required"}),
		},
		{
			name:     "invalid email",
			method:   http.MethodPost,
			path:     "/v1/assessment",
			body:     []byte(`{"email": "parent"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email": "invalid email address"}`),
		},
		{
			name:     "provider error",
			method:   http.MethodPost,
			path:     "/v1/assessment",
			body:     []byte(`{"email": "unknown@caselink.test"}`),
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "Failed to fetch assessment data"}),
		},
		{
			name:     "provider unreachable",
			method:   http.MethodPost,
			path:     "/v1/assessment",
			body:     []byte(`{"email": "` + offlineEmail + `"}`),
			wantCode: http.StatusBadGateway,
			wantData: marshallObj(t, httpErr{Error: "Failed to fetch assessment data"}),
		},
		{
			name:     "success",
			method:   http.MethodPost,
			path:     "/v1/assessment",
			body:     []byte(`{"email": "Parent@CaseLink.test"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{
				"success":            true,
				"user":               {"name": "Sam", "parentName": "Alex", "ageGroup": "8-10", "gender": "F"},
				"skills":             [{"skillName": "Focus", "indicators": []}],
				"rawActivitiesCount": 1,
				"expertActivitiesCount": 0
			}`),
		},
	})
}
