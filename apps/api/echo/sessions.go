package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/autosave"
	"github.com/pratik071103/case-link-share/core/caserecord"
	"github.com/pratik071103/case-link-share/core/session"
	"github.com/pratik071103/case-link-share/core/skill"
	"github.com/pratik071103/case-link-share/core/taxonomy"
)

type (
	SessionResponse struct {
		session.Snapshot
		Status        autosave.Status `json:"status"`
		TaxonomyEmail string          `json:"taxonomy_email"`
	}

	NextNumberResponse struct {
		SessionNo int `json:"session_no"`
	}

	NewSkillRequest struct {
		IsManual bool `json:"is_manual"`
	}

	TaxonomyRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	TaxonomyResponse struct {
		Email  string            `json:"email"`
		Skills taxonomy.Taxonomy `json:"skills"`
	}
)

func (tr *TaxonomyRequest) Validate(validate *validator.Validate) error {
	tr.Email = core.CleanString(tr.Email, true)
	return validate.Struct(tr)
}

type sessionApi struct {
	svc      *session.Service
	registry *caserecord.Registry
	validate *validator.Validate
	binder   echo.DefaultBinder
}

func registerSessionAPI(g *echo.Group, svc *session.Service, registry *caserecord.Registry, validate *validator.Validate) {
	api := sessionApi{
		svc:      svc,
		registry: registry,
		validate: validate,
	}

	sg := g.Group("/cases/:slug/sessions")
	sg.GET("", api.list)
	sg.POST("", api.create)
	sg.GET("/next-number", api.nextNumber)

	// detail endpoints
	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/save", api.save)
	dg.GET("/taxonomy", api.taxonomy)
	dg.POST("/taxonomy", api.loadTaxonomy)
	dg.POST("/skills", api.addSkill)
	dg.PATCH("/skills/:index", api.updateSkill)
	dg.DELETE("/skills/:index", api.removeSkill)
}

func sessionResponse(ed *session.Editor) SessionResponse {
	return SessionResponse{Snapshot: ed.Snapshot(), Status: ed.Status(), TaxonomyEmail: ed.TaxonomyEmail()}
}

// getEditor returns the editor of the request's :id session, within the :slug case.
func (api *sessionApi) getEditor(ctx echo.Context) (*session.Editor, error) {
	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return nil, err
	}
	ed, err := a.Session(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return nil, errors.Wrap(err, "opening session")
	}
	return ed, nil
}

func skillIndex(ctx echo.Context) (int, error) {
	i, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return 0, errSkillNotFound
	}
	return i, nil
}

// Handlers

func (api *sessionApi) list(ctx echo.Context) error {
	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	recs, err := api.svc.List(ctx.Request().Context(), a.Case().ID)
	if err != nil {
		return errors.Wrap(err, "listing sessions")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *sessionApi) nextNumber(ctx echo.Context) error {
	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	no, err := api.svc.NextNumber(ctx.Request().Context(), a.Case().ID)
	if err != nil {
		return errors.Wrap(err, "getting next session number")
	}
	return ctx.JSON(http.StatusOK, NextNumberResponse{SessionNo: no})
}

func (api *sessionApi) create(ctx echo.Context) error {
	var data session.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	rec, err := api.svc.Create(ctx.Request().Context(), a.Case().ID, data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	ed, err := api.getEditor(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sessionResponse(ed))
}

// update edits session fields: {"attendance": "late", "session_date": "2024-01-31", ...}.
func (api *sessionApi) update(ctx echo.Context) error {
	var patch session.Patch
	if err := api.binder.BindBody(ctx, &patch); err != nil {
		return errors.Wrap(err, "binding to session.Patch")
	}
	ed, err := api.getEditor(ctx)
	if err != nil {
		return err
	}
	if _, err := ed.SetFields(patch); err != nil {
		return errors.Wrap(err, "updating session")
	}
	return ctx.JSON(http.StatusOK, sessionResponse(ed))
}

func (api *sessionApi) destroy(ctx echo.Context) error {
	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	id := ctx.Param("id")

	rec, err := api.svc.Get(reqCtx, id)
	if err != nil {
		return errors.Wrap(err, "getting session")
	}
	if rec.ChildID != a.Case().ID {
		return session.ErrNotFound
	}
	a.CloseSession(id)
	if err := api.svc.Delete(reqCtx, id); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *sessionApi) save(ctx echo.Context) error {
	ed, err := api.getEditor(ctx)
	if err != nil {
		return err
	}
	if err := ed.Save(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return ctx.JSON(http.StatusOK, sessionResponse(ed))
}

func (api *sessionApi) taxonomy(ctx echo.Context) error {
	ed, err := api.getEditor(ctx)
	if err != nil {
		return err
	}
	skills := ed.Taxonomy()
	if skills == nil {
		skills = taxonomy.Taxonomy{}
	}
	return ctx.JSON(http.StatusOK, TaxonomyResponse{Email: ed.TaxonomyEmail(), Skills: skills})
}

// loadTaxonomy fetches the assessment taxonomy of {"email": ...} into the session editor.
func (api *sessionApi) loadTaxonomy(ctx echo.Context) error {
	var data TaxonomyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TaxonomyRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ed, err := api.getEditor(ctx)
	if err != nil {
		return err
	}
	skills, err := ed.LoadTaxonomy(ctx.Request().Context(), data.Email)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TaxonomyResponse{Email: data.Email, Skills: skills})
}

func (api *sessionApi) addSkill(ctx echo.Context) error {
	var data NewSkillRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSkillRequest")
	}
	ed, err := api.getEditor(ctx)
	if err != nil {
		return err
	}
	if _, err := ed.AddSkill(data.IsManual); err != nil {
		return errors.Wrap(err, "adding skill entry")
	}
	return ctx.JSON(http.StatusCreated, sessionResponse(ed))
}

// updateSkill edits one skill entry: {"skill_name": "Focus", "actual_f_value": 3, ...}.
func (api *sessionApi) updateSkill(ctx echo.Context) error {
	i, err := skillIndex(ctx)
	if err != nil {
		return err
	}
	var patch skill.Patch
	if err := api.binder.BindBody(ctx, &patch); err != nil {
		return errors.Wrap(err, "binding to skill.Patch")
	}
	ed, err := api.getEditor(ctx)
	if err != nil {
		return err
	}
	if _, err := ed.UpdateSkill(i, patch); err != nil {
		return errors.Wrap(err, "updating skill entry")
	}
	return ctx.JSON(http.StatusOK, sessionResponse(ed))
}

func (api *sessionApi) removeSkill(ctx echo.Context) error {
	i, err := skillIndex(ctx)
	if err != nil {
		return err
	}
	ed, err := api.getEditor(ctx)
	if err != nil {
		return err
	}
	if _, err := ed.RemoveSkill(i); err != nil {
		return errors.Wrap(err, "removing skill entry")
	}
	return ctx.JSON(http.StatusOK, sessionResponse(ed))
}
