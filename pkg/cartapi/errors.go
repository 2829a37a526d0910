package cartapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// errorBody accepts both the structured {"error":{...}} envelope and the
// flat {"message": "..."} shape some backends return.
type errorBody struct {
	Error   *apiError `json:"error"`
	Message string    `json:"message"`
	Errors  any       `json:"errors"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

var knownCodes = map[pkgerrors.Code]struct{}{
	pkgerrors.CodeValidation:    {},
	pkgerrors.CodeUnauthorized:  {},
	pkgerrors.CodeForbidden:     {},
	pkgerrors.CodeNotFound:      {},
	pkgerrors.CodeConflict:      {},
	pkgerrors.CodeStateConflict: {},
	pkgerrors.CodeRateLimit:     {},
	pkgerrors.CodeInternal:      {},
	pkgerrors.CodeDependency:    {},
}

func decodeError(resp *http.Response, op string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))

	code := pkgerrors.CodeForStatus(resp.StatusCode)
	message := ""
	var details any

	var body errorBody
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Error != nil:
			message = body.Error.Message
			details = body.Error.Details
			if _, ok := knownCodes[pkgerrors.Code(body.Error.Code)]; ok && resp.StatusCode < http.StatusInternalServerError {
				code = pkgerrors.Code(body.Error.Code)
			}
		default:
			message = body.Message
			details = body.Errors
		}
	}

	message = strings.TrimSpace(message)
	if message == "" {
		message = pkgerrors.MetadataFor(code).PublicMessage
	}

	cause := fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(raw)))
	typed := pkgerrors.Wrap(code, cause, message)
	if details != nil {
		typed = typed.WithDetails(details)
	}
	return typed
}

func validatePayload(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request")
	}
	details := map[string]string{}
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	first := fieldErrs[0]
	var message string
	switch first.Tag() {
	case "min":
		message = fmt.Sprintf("%s must be at least %s", first.Field(), first.Param())
	case "gt":
		message = fmt.Sprintf("%s must be greater than %s", first.Field(), first.Param())
	case "email":
		message = fmt.Sprintf("%s must be a valid email", first.Field())
	default:
		message = fmt.Sprintf("%s is required", first.Field())
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}
