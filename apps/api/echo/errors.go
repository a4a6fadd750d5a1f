package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/penilaian/core"
)

// errorResponse is the body of every error response.
// Fields holds the per-field messages of a validation error, Hint a suggestion for a missing name.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	Hint   string            `json:"hint,omitempty"`
}

const invalidDataMsg = "invalid data"

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed { // already handled
			return
		}

		var code int
		var resp errorResponse

		var (
			vErrs  validator.ValidationErrors
			vErr   *core.ValidationError
			nfErr  *core.NotFoundError
			cfErr  *core.ConflictError
			httpEr *echo.HTTPError
		)
		switch {
		case errors.As(err, &vErrs):
			code = http.StatusBadRequest
			resp.Error = invalidDataMsg
			resp.Fields = make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				resp.Fields[fe.Field()] = fe.Translate(translator)
			}
		case errors.As(err, &vErr):
			code = http.StatusBadRequest
			resp.Error = vErr.Error()
			if len(vErr.Fields) > 0 {
				if resp.Error == "" {
					resp.Error = invalidDataMsg
				}
				resp.Fields = make(map[string]string, len(vErr.Fields))
				for _, fe := range vErr.Fields {
					resp.Fields[fe.Field] = fe.Error
				}
			}
		case errors.As(err, &nfErr):
			code = http.StatusNotFound
			resp.Error = "not found"
			if nfErr.Err != nil {
				resp.Error = nfErr.Err.Error()
			}
			resp.Hint = nfErr.Hint
		case errors.As(err, &cfErr):
			code = http.StatusBadRequest
			resp.Error = cfErr.Error()
		case errors.As(err, &httpEr):
			if httpEr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				resp.Error = httpEr.Message.(string)
				break
			}
			if herr, ok := httpEr.Internal.(*echo.HTTPError); ok {
				httpEr = herr
			}
			code = httpEr.Code
			if msg, ok := httpEr.Message.(string); ok {
				resp.Error = msg
			} else {
				resp.Error = http.StatusText(code)
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			resp.Error = http.StatusText(code)

			var args []interface{}
			args = append(args, errors.Wrap(err, resp.Error))
			if userID, uErr := getContextUserID(ctx); uErr == nil {
				args = append(args, core.UserID(userID))
			}
			logger.Error(resp.Error, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, resp)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
