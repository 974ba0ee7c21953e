package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/services/assessment"
)

type (
	AssessmentRequest struct {
		Email string `json:"email"`
	}

	AssessmentResponse struct {
		Success bool `json:"success"`
		assessment.Result
	}
)

func (ar *AssessmentRequest) Validate(validate *validator.Validate) error {
	ar.Email = core.CleanString(ar.Email, true)
	if ar.Email == "" {
		return errEmailRequired
	}
	return validate.Var(ar.Email, "email")
}

type assessmentApi struct {
	provider assessment.Provider
	validate *validator.Validate
}

func registerAssessmentAPI(g *echo.Group, provider assessment.Provider, validate *validator.Validate) {
	api := assessmentApi{
		provider: provider,
		validate: validate,
	}
	g.POST("/assessment", api.load)
}

func (api *assessmentApi) load(ctx echo.Context) error {
	var data AssessmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssessmentRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok && len(vErrs) > 0 {
			return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "invalid email address"})
		}
		return err
	}

	res, err := api.provider.LoadUserAssessment(ctx.Request().Context(), data.Email)
	if err != nil {
		return errors.Wrap(err, "loading assessment")
	}
	return ctx.JSON(http.StatusOK, AssessmentResponse{Success: true, Result: res})
}
