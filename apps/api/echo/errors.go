package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/autosave"
	"github.com/pratik071103/case-link-share/core/skill"
	"github.com/pratik071103/case-link-share/services/assessment"
	logsvc "github.com/pratik071103/case-link-share/services/logger"
)

var (
	errSkillNotFound      = echo.NewHTTPError(http.StatusNotFound, "skill entry not found")
	errCaseClosed         = echo.NewHTTPError(http.StatusConflict, "case was closed, reload it")
	errEmailRequired      = echo.NewHTTPError(http.StatusBadRequest, "Email is required")
	errProviderFailedText = "Failed to fetch assessment data"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = core.TranslateValidationErrors(origErr, translator)
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.NotFoundError:
			code = http.StatusNotFound
			message = origErr.Error()
		case *assessment.ProviderError:
			code = origErr.StatusCode
			message = errProviderFailedText
			logger.Warn(errProviderFailedText, err)
		case *assessment.UnreachableError:
			code = http.StatusBadGateway
			message = errProviderFailedText
			logger.Warn(errProviderFailedText, err)
		default:
			switch errors.Cause(err) {
			case skill.ErrIndexOutOfRange:
				code, message = errSkillNotFound.Code, errSkillNotFound.Message
			case autosave.ErrClosed:
				code, message = errCaseClosed.Code, errCaseClosed.Message
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				args := []interface{}{errors.Wrap(err, msg)}
				if slug := ctx.Param("slug"); slug != "" {
					args = append(args, logsvc.Case{Slug: slug})
				}
				logger.Error(msg, args...)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
