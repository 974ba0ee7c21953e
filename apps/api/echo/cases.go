package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pratik071103/case-link-share/core/autosave"
	"github.com/pratik071103/case-link-share/core/casefile"
	"github.com/pratik071103/case-link-share/core/caserecord"
)

type (
	CaseResponse struct {
		Case         casefile.Case            `json:"case"`
		Sections     []caserecord.SectionView `json:"sections"`
		CoachDetails caserecord.CoachView     `json:"coach_details"`
		Dirty        bool                     `json:"dirty"`
	}

	SaveResponse struct {
		Dirty         bool                    `json:"dirty"`
		Notifications []autosave.Notification `json:"notifications"`
	}
)

type caseApi struct {
	svc      *casefile.Service
	registry *caserecord.Registry
	validate *validator.Validate
}

func registerCaseAPI(g *echo.Group, svc *casefile.Service, registry *caserecord.Registry, validate *validator.Validate) {
	api := caseApi{
		svc:      svc,
		registry: registry,
		validate: validate,
	}

	g.GET("/children", api.listChildren)
	g.POST("/children", api.create)

	cg := g.Group("/cases/:slug")
	cg.GET("", api.retrieve)
	cg.POST("/save", api.save)
	cg.POST("/close", api.close)
	cg.GET("/notifications", api.notifications)
	cg.GET("/sections", api.listSections)
	cg.GET("/sections/:key", api.retrieveSection)
	cg.PATCH("/sections/:key", api.updateSection)
	cg.GET("/coach-details", api.retrieveCoach)
	cg.PUT("/coach-details", api.updateCoach)
}

// getAssembly returns the open case of the request's :slug.
func getAssembly(ctx echo.Context, registry *caserecord.Registry) (*caserecord.Assembly, error) {
	a, err := registry.Get(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return nil, errors.Wrap(err, "opening case")
	}
	return a, nil
}

// Handlers

func (api *caseApi) listChildren(ctx echo.Context) error {
	children, err := api.svc.ListChildren(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing children")
	}
	return ctx.JSON(http.StatusOK, children)
}

func (api *caseApi) create(ctx echo.Context) error {
	var data casefile.NewChild
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChild")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.CreateCase(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating case")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *caseApi) retrieve(ctx echo.Context) error {
	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, CaseResponse{
		Case:         a.Case(),
		Sections:     a.Sections(),
		CoachDetails: a.Coach(),
		Dirty:        a.Dirty(),
	})
}

// save writes every pending edit of the case now.
func (api *caseApi) save(ctx echo.Context) error {
	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	if err := a.Flush(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "saving case")
	}
	return ctx.JSON(http.StatusOK, SaveResponse{Dirty: a.Dirty(), Notifications: a.Notifications()})
}

// close saves the case then releases it.
func (api *caseApi) close(ctx echo.Context) error {
	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	if err := a.Flush(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "saving case")
	}
	api.registry.Close(ctx.Param("slug"))
	return ctx.NoContent(http.StatusNoContent)
}

func (api *caseApi) notifications(ctx echo.Context) error {
	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a.Notifications())
}

func (api *caseApi) listSections(ctx echo.Context) error {
	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a.Sections())
}

func (api *caseApi) retrieveSection(ctx echo.Context) error {
	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	v, err := a.Section(ctx.Param("key"))
	if err != nil {
		return errors.Wrap(err, "getting section")
	}
	return ctx.JSON(http.StatusOK, v)
}

// updateSection merges {"data": {...}} into the section and schedules its save.
func (api *caseApi) updateSection(ctx echo.Context) error {
	var data casefile.UpdateSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSection")
	}
	data.Key = ctx.Param("key")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	v, err := a.UpdateSection(data.Key, data.Fields)
	if err != nil {
		return errors.Wrap(err, "updating section")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *caseApi) retrieveCoach(ctx echo.Context) error {
	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a.Coach())
}

func (api *caseApi) updateCoach(ctx echo.Context) error {
	var data casefile.UpdateCoachDetails
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCoachDetails")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := getAssembly(ctx, api.registry)
	if err != nil {
		return err
	}
	v, err := a.UpdateCoach(data)
	if err != nil {
		return errors.Wrap(err, "updating coach details")
	}
	return ctx.JSON(http.StatusOK, v)
}
