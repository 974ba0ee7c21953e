package echoapi_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/pratik071103/case-link-share/apps/api/echo"
	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/autosave"
	"github.com/pratik071103/case-link-share/core/casefile"
	"github.com/pratik071103/case-link-share/core/caserecord"
	"github.com/pratik071103/case-link-share/tests"
)

func Test_caseApi_create(t *testing.T) {
	runHTTPTests(t, []httpTest{
		{
			name:     "invalid data",
			method:   http.MethodPost,
			path:     "/v1/children",
			body:     []byte(`{"name": "   "}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"name": "this field is required"}`),
		},
		{
			name:     "malformed body",
			method:   http.MethodPost,
			path:     "/v1/children",
			body:     []byte(`{"name": `),
			wantCode: http.StatusBadRequest,
		},
	})

	rec := do(http.MethodPost, "/v1/children", []byte(`{"name": " Jane Doe "}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var c casefile.Case
	unmarshall(t, rec, &c)
	assert.Equal(t, "Jane Doe", c.Name)
	assert.True(t, strings.HasPrefix(c.CaseSlug, "jane-doe-"), c.CaseSlug)
	assert.Equal(t, c.ID, c.Record.ChildID)

	rec = do(http.MethodGet, "/v1/children")
	require.Equal(t, http.StatusOK, rec.Code)
	var children []casefile.Child
	unmarshall(t, rec, &children)
	var found bool
	for _, child := range children {
		found = found || child.CaseSlug == c.CaseSlug
	}
	assert.True(t, found, "created child is listed")
}

func Test_caseApi_retrieve(t *testing.T) {
	c := testutil.CreateCase(t, caseRepo, "John Smith")

	runHTTPTests(t, []httpTest{
		{
			name:     "unknown slug",
			method:   http.MethodGet,
			path:     "/v1/cases/nobody-abc123",
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "case not found"}),
		},
		{
			name:     "unknown section",
			method:   http.MethodGet,
			path:     "/v1/cases/" + c.CaseSlug + "/sections/hobbies",
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "section not found"}),
		},
	})

	rec := do(http.MethodGet, "/v1/cases/"+strings.ToUpper(c.CaseSlug))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp echoapi.CaseResponse
	unmarshall(t, rec, &resp)
	assert.Equal(t, c.ID, resp.Case.ID)
	assert.Len(t, resp.Sections, len(casefile.SectionKeys))
	assert.False(t, resp.Dirty)

	rec = do(http.MethodGet, "/v1/cases/"+c.CaseSlug+"/sections/"+casefile.SectionGeneralInfo)
	require.Equal(t, http.StatusOK, rec.Code)
	var v caserecord.SectionView
	unmarshall(t, rec, &v)
	assert.Equal(t, "John Smith", v.Data["name_of_child"])
	assert.Equal(t, "synced", v.Status.State)
}

func Test_caseApi_updateSection(t *testing.T) {
	c := testutil.CreateCase(t, caseRepo, "Amy Pond")
	path := "/v1/cases/" + c.CaseSlug + "/sections/"

	runHTTPTests(t, []httpTest{
		{
			name:     "unknown section key",
			method:   http.MethodPatch,
			path:     path + "hobbies",
			body:     []byte(`{"data": {"a": 1}}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"section_key": "unknown section"}`),
		},
		{
			name:     "missing data",
			method:   http.MethodPatch,
			path:     path + casefile.SectionAcademicPerformance,
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"data": "this field is required"}`),
		},
	})

	rec := do(http.MethodPatch, path+casefile.SectionAcademicPerformance, []byte(`{"data": {"subjects_excels": "Maths"}}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var v caserecord.SectionView
	unmarshall(t, rec, &v)
	assert.Equal(t, "Maths", v.Data["subjects_excels"])
	assert.Equal(t, "", v.Data["teacher_concerns"])
	assert.True(t, v.Changed)
	assert.Equal(t, autosave.PhasePending, v.Status.Phase)

	// nothing is written until the save
	_, err := caseRepo.FindSection(context.Background(), c.Record.ID, casefile.SectionAcademicPerformance)
	assert.True(t, core.IsNotFound(err))

	rec = do(http.MethodPost, "/v1/cases/"+c.CaseSlug+"/save")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved echoapi.SaveResponse
	unmarshall(t, rec, &saved)
	assert.False(t, saved.Dirty)
	assert.Empty(t, saved.Notifications)

	s, err := caseRepo.FindSection(context.Background(), c.Record.ID, casefile.SectionAcademicPerformance)
	require.NoError(t, err)
	assert.Equal(t, "Maths", s.Data["subjects_excels"])
}

func Test_caseApi_coachDetails(t *testing.T) {
	c := testutil.CreateCase(t, caseRepo, "Rory Williams")
	path := "/v1/cases/" + c.CaseSlug + "/coach-details"

	rec := do(http.MethodPut, path, []byte(`{"date_of_parent_interaction": "31/01/2024"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "date_of_parent_interaction")

	rec = do(http.MethodPut, path, []byte(`{"coach_name": " River ", "total_sessions_taken": 3, "date_of_parent_interaction": "2024-01-31"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var v caserecord.CoachView
	unmarshall(t, rec, &v)
	assert.Equal(t, "River", v.Data.CoachName)
	assert.Equal(t, 3, v.Data.TotalSessionsTaken)
	assert.True(t, v.Changed)

	// closing saves first
	rec = do(http.MethodPost, "/v1/cases/"+c.CaseSlug+"/close")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	cd, err := caseRepo.GetCoachDetails(context.Background(), c.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "River", cd.CoachName.String)
	assert.Equal(t, "2024-01-31", cd.DateOfParentInteraction.String)
	assert.False(t, cd.ChildInteractionEndDate.Valid)

	// reopening reads the stored details back
	rec = do(http.MethodGet, path)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshall(t, rec, &v)
	assert.Equal(t, "River", v.Data.CoachName)
	assert.False(t, v.Changed)
}

func Test_caseApi_notifications(t *testing.T) {
	c := testutil.CreateCase(t, caseRepo, "Clara Oswald")

	runHTTPTests(t, []httpTest{
		{
			name:     "no notifications",
			method:   http.MethodGet,
			path:     "/v1/cases/" + c.CaseSlug + "/notifications",
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
	})
}
