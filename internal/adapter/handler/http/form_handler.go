package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/railroadmedia/customer-io/internal/domain/entity"
	domainErrors "github.com/railroadmedia/customer-io/internal/domain/errors"
	pkgerrors "github.com/railroadmedia/customer-io/pkg/errors"
)

type FormProcessor interface {
	ProcessForm(ctx context.Context, email, formName string, params map[string]string) ([]*entity.Customer, error)
}

type submitEmailFormRequest struct {
	Email           string `json:"email" validate:"required,email"`
	FormName        string `json:"form_name" validate:"required,configured_form"`
	SuccessRedirect string `json:"success_redirect"`
	ErrorRedirect   string `json:"error_redirect"`
}

// FormHandler accepts email form submissions from websites. Browser posts
// are answered with redirects, JSON clients with status codes.
type FormHandler struct {
	processor FormProcessor
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewFormHandler panics when the validator cannot be built, which only a
// broken tag registration can cause.
func NewFormHandler(processor FormProcessor, formNames []string, logger *zap.Logger) *FormHandler {
	validate, err := newValidator(formNames)
	if err != nil {
		panic(fmt.Sprintf("form handler validator: %v", err))
	}
	return &FormHandler{
		processor: processor,
		validate:  validate,
		logger:    logger,
	}
}

func (h *FormHandler) SubmitEmailForm(c echo.Context) error {
	params, err := requestParams(c)
	if err != nil {
		return pkgerrors.NewAppError(pkgerrors.ErrInvalidArgument, "Invalid request body", err)
	}

	req := submitEmailFormRequest{
		Email:           strings.TrimSpace(params["email"]),
		FormName:        params["form_name"],
		SuccessRedirect: params["success_redirect"],
		ErrorRedirect:   params["error_redirect"],
	}

	if err := h.validate.Struct(req); err != nil {
		fields := formatValidationErrors(err)
		h.logger.Info("FormHandler: rejected form submission",
			zap.String("form_name", req.FormName),
			zap.Any("fields", fields))

		if wantsJSON(c) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"error":  "The given data was invalid.",
				"fields": fields,
			})
		}
		message := "The given data was invalid."
		if len(fields) > 0 {
			message = fields[0].Message
		}
		return h.redirectBack(c, req.ErrorRedirect, "error", message)
	}

	_, err = h.processor.ProcessForm(c.Request().Context(), req.Email, req.FormName, params)
	if err != nil {
		pkgerrors.LogError(h.logger, err, "FormHandler: form submission failed",
			zap.String("form_name", req.FormName),
			zap.String("email", req.Email))

		message := errorMessage(err)
		if wantsJSON(c) {
			return c.JSON(pkgerrors.ToHTTPStatus(pkgerrors.CodeOf(err)), map[string]string{
				"error": message,
			})
		}
		return h.redirectBack(c, req.ErrorRedirect, "error", message)
	}

	if wantsJSON(c) {
		return c.NoContent(http.StatusCreated)
	}
	return h.redirectBack(c, req.SuccessRedirect, "success", "true")
}

// redirectBack sends the browser to target, else the referring page, else
// the site root, with key=value added to the query string.
func (h *FormHandler) redirectBack(c echo.Context, target, key, value string) error {
	if target == "" {
		target = c.Request().Referer()
	}
	if target == "" {
		target = "/"
	}

	u, err := url.Parse(target)
	if err != nil {
		h.logger.Warn("FormHandler: invalid redirect target", zap.String("target", target), zap.Error(err))
		u = &url.URL{Path: "/"}
	}
	query := u.Query()
	query.Set(key, value)
	u.RawQuery = query.Encode()

	return c.Redirect(http.StatusSeeOther, u.String())
}

func wantsJSON(c echo.Context) bool {
	req := c.Request()
	return strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) ||
		req.Header.Get(echo.HeaderXRequestedWith) == "XMLHttpRequest"
}

func errorMessage(err error) string {
	var syncErr *domainErrors.SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Message
	}
	return "Failed to process form"
}

// requestParams flattens the query string and the body, JSON or form
// encoded, into one map. Body values win over query values.
func requestParams(c echo.Context) (map[string]string, error) {
	params := make(map[string]string)
	for key, values := range c.QueryParams() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var body map[string]interface{}
		if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		for key, value := range body {
			switch v := value.(type) {
			case nil:
			case string:
				params[key] = v
			case bool, float64:
				params[key] = fmt.Sprint(v)
			}
		}
		return params, nil
	}

	form, err := c.FormParams()
	if err != nil {
		return nil, err
	}
	for key, values := range form {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params, nil
}
